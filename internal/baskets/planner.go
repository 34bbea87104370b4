package baskets

import (
	"math/rand"
	"sort"

	"mb-basketd/internal/broker"
	"mb-basketd/internal/model"
	"mb-basketd/internal/types"
)

// Assignment maps a broker id to the ordered item ids it should submit.
type Assignment map[string][]string

// Plan partitions basket items across at most maxBrokers of the active
// connection snapshot. It is a pure proposal: nothing is written until the
// coordinator commits it. An empty active set yields an empty assignment and
// the caller surfaces that as an immediate basket failure.
func Plan(items []model.BasketItem, active []broker.Connection, algo types.Algorithm, maxBrokers int) Assignment {
	out := Assignment{}
	if len(items) == 0 || len(active) == 0 {
		return out
	}
	if maxBrokers < 1 {
		maxBrokers = 1
	}
	brokers := append([]broker.Connection(nil), active...)
	if len(brokers) > maxBrokers {
		brokers = brokers[:maxBrokers]
	}

	switch algo {
	case types.AlgorithmRoundRobin:
		roundRobin(out, items, brokers)
	case types.AlgorithmLoadBalance:
		// Snapshot decision: sort ascending by reported load once, then
		// round-robin so the least-loaded connection takes the first item.
		sort.SliceStable(brokers, func(i, j int) bool { return brokers[i].LoadScore < brokers[j].LoadScore })
		roundRobin(out, items, brokers)
	case types.AlgorithmPriority:
		sort.SliceStable(brokers, func(i, j int) bool { return brokers[i].Priority > brokers[j].Priority })
		fair := (len(items) + len(brokers) - 1) / len(brokers)
		idx := 0
		for _, b := range brokers {
			for n := 0; n < fair && idx < len(items); n++ {
				out[b.ID] = append(out[b.ID], items[idx].ID)
				idx++
			}
		}
	default:
		// Random, and the documented fallback for unknown algorithm names.
		for _, it := range items {
			b := brokers[rand.Intn(len(brokers))]
			out[b.ID] = append(out[b.ID], it.ID)
		}
	}
	return out
}

func roundRobin(out Assignment, items []model.BasketItem, brokers []broker.Connection) {
	for i, it := range items {
		b := brokers[i%len(brokers)]
		out[b.ID] = append(out[b.ID], it.ID)
	}
}
