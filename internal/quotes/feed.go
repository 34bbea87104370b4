package quotes

import (
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type Quote struct {
	Symbol    string          `json:"symbol"`
	Last      decimal.Decimal `json:"last"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Timestamp int64           `json:"ts"`
}

// Feed is the quote collaborator: best-effort last prices for display only.
// The execution engine never reads it.
type Feed interface {
	Get(symbol string) (Quote, bool)
}

// SimFeed produces a bounded random walk per symbol.
type SimFeed struct {
	mu     sync.Mutex
	last   map[string]float64
	spread float64
	rng    *rand.Rand
}

func NewSimFeed(symbols map[string]float64, spread float64) *SimFeed {
	last := make(map[string]float64, len(symbols))
	for s, px := range symbols {
		last[s] = px
	}
	if spread <= 0 {
		spread = 0.05
	}
	return &SimFeed{
		last:   last,
		spread: spread,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (f *SimFeed) Get(symbol string) (Quote, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	px, ok := f.last[symbol]
	if !ok {
		return Quote{}, false
	}
	px += (f.rng.Float64() - 0.5) * px * 0.002
	if px < 1 {
		px = 1
	}
	f.last[symbol] = px
	last := decimal.NewFromFloat(px).Round(2)
	half := decimal.NewFromFloat(f.spread / 2)
	return Quote{
		Symbol:    symbol,
		Last:      last,
		Bid:       last.Sub(half),
		Ask:       last.Add(half),
		Timestamp: time.Now().UTC().Unix(),
	}, true
}

func (f *SimFeed) Symbols() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.last))
	for s := range f.last {
		out = append(out, s)
	}
	return out
}

// StartPublisher polls the feed on a ticker and fans quotes out on the bus.
// Stops when done is closed.
func StartPublisher(bus *Bus, feed Feed, symbols []string, interval time.Duration, done <-chan struct{}) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				for _, s := range symbols {
					if q, ok := feed.Get(s); ok {
						bus.Publish(Event{Type: "quote", Data: q})
					}
				}
			}
		}
	}()
}
