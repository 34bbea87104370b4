package baskets

import (
	"mb-basketd/internal/model"
	"mb-basketd/internal/types"
)

type OverallProgress struct {
	Total     int `json:"total"`
	Executed  int `json:"executed"`
	Failed    int `json:"failed"`
	Executing int `json:"executing"`
	Pending   int `json:"pending"`
	Assigned  int `json:"assigned"`
}

type BrokerProgress struct {
	BrokerID  string `json:"brokerId"`
	Total     int    `json:"total"`
	Executed  int    `json:"executed"`
	Failed    int    `json:"failed"`
	Executing int    `json:"executing"`
}

type Progress struct {
	Overall  OverallProgress  `json:"overall"`
	ByBroker []BrokerProgress `json:"byBroker"`
}

// computeProgress derives the snapshot by scanning item states. There are no
// incrementally maintained counters to drift.
func computeProgress(items []model.BasketItem) Progress {
	p := Progress{ByBroker: []BrokerProgress{}}
	p.Overall.Total = len(items)
	byBroker := map[string]int{}
	for _, it := range items {
		switch it.Status {
		case types.ItemStatusExecuted:
			p.Overall.Executed++
		case types.ItemStatusFailed:
			p.Overall.Failed++
		case types.ItemStatusSubmitting:
			p.Overall.Executing++
		case types.ItemStatusAssigned:
			p.Overall.Assigned++
		case types.ItemStatusPending:
			p.Overall.Pending++
		}
		if it.AssignedBroker == "" {
			continue
		}
		idx, ok := byBroker[it.AssignedBroker]
		if !ok {
			idx = len(p.ByBroker)
			byBroker[it.AssignedBroker] = idx
			p.ByBroker = append(p.ByBroker, BrokerProgress{BrokerID: it.AssignedBroker})
		}
		bp := &p.ByBroker[idx]
		bp.Total++
		switch it.Status {
		case types.ItemStatusExecuted:
			bp.Executed++
		case types.ItemStatusFailed:
			bp.Failed++
		case types.ItemStatusSubmitting:
			bp.Executing++
		}
	}
	return p
}
