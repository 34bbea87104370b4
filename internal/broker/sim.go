package broker

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"mb-basketd/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SimOptions configures a simulated connection.
type SimOptions struct {
	Latency  time.Duration
	FailRate float64
	FailKind types.ErrorKind
}

// SimAdapter is a stand-in brokerage connection used by cmd/api and tests. It
// sleeps for the configured latency, fails a configurable fraction of
// submissions, and otherwise fabricates an order id and a submit price.
type SimAdapter struct {
	name string
	opts SimOptions

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimAdapter(name string, opts SimOptions) *SimAdapter {
	if opts.FailKind == "" {
		opts.FailKind = types.ErrorKindTransient
	}
	return &SimAdapter{
		name: name,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (a *SimAdapter) Submit(ctx context.Context, req OrderRequest) (OrderResponse, error) {
	if a.opts.Latency > 0 {
		t := time.NewTimer(a.opts.Latency)
		select {
		case <-ctx.Done():
			t.Stop()
			return OrderResponse{}, Transient("submit aborted: " + ctx.Err().Error())
		case <-t.C:
		}
	}

	a.mu.Lock()
	roll := a.rng.Float64()
	jitter := a.rng.Float64()
	a.mu.Unlock()

	if a.opts.FailRate > 0 && roll < a.opts.FailRate {
		if a.opts.FailKind == types.ErrorKindPermanent {
			return OrderResponse{}, Permanent(a.name + " rejected order: insufficient margin")
		}
		return OrderResponse{}, Transient(a.name + " timed out")
	}

	price := decimal.Zero
	if req.Price != "" {
		if p, err := decimal.NewFromString(req.Price); err == nil {
			price = p
		}
	}
	if price.IsZero() {
		// Market order: fabricate a fill near a notional reference price.
		price = decimal.NewFromFloat(100 + jitter*10).Round(2)
	}
	return OrderResponse{
		BrokerOrderID: a.name + "-" + uuid.NewString(),
		Price:         price,
	}, nil
}
