package baskets

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"mb-basketd/internal/broker"
	"mb-basketd/internal/model"
	"mb-basketd/internal/types"

	"github.com/shopspring/decimal"
)

// scriptedRegistry drives submission outcomes per item and records every
// submit call.
type scriptedRegistry struct {
	mu      sync.Mutex
	conns   []broker.Connection
	submits map[string]int
	outcome func(brokerID string, req broker.OrderRequest, attempt int) (broker.OrderResponse, error)
}

func newScriptedRegistry(n int, outcome func(brokerID string, req broker.OrderRequest, attempt int) (broker.OrderResponse, error)) *scriptedRegistry {
	conns := make([]broker.Connection, n)
	for i := range conns {
		conns[i] = broker.Connection{ID: fmt.Sprintf("broker-%d", i)}
	}
	return &scriptedRegistry{conns: conns, submits: make(map[string]int), outcome: outcome}
}

func (r *scriptedRegistry) ListActive(ctx context.Context) []broker.Connection {
	return append([]broker.Connection(nil), r.conns...)
}

func (r *scriptedRegistry) Submit(ctx context.Context, brokerID string, req broker.OrderRequest) (broker.OrderResponse, error) {
	r.mu.Lock()
	r.submits[req.ClientOrderID]++
	attempt := r.submits[req.ClientOrderID]
	r.mu.Unlock()
	return r.outcome(brokerID, req, attempt)
}

func (r *scriptedRegistry) totalSubmits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.submits {
		total += n
	}
	return total
}

func alwaysSucceed(brokerID string, req broker.OrderRequest, attempt int) (broker.OrderResponse, error) {
	return broker.OrderResponse{BrokerOrderID: brokerID + "-ord", Price: decimal.NewFromInt(100)}, nil
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, MaxAttempts: 3}
}

func waitTerminal(t *testing.T, s *Store, id string) model.Basket {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		b, _, err := s.Get(id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if b.Status.Terminal() {
			return b
		}
		time.Sleep(2 * time.Millisecond)
	}
	b, _, _ := s.Get(id)
	t.Fatalf("basket %s never reached a terminal state, stuck at %s", id, b.Status)
	return b
}

func TestCoordinatorAllSucceedCompletes(t *testing.T) {
	s := NewStore(nil, nil)
	reg := newScriptedRegistry(3, alwaysSucceed)
	c := NewCoordinator(s, reg, fastPolicy(), 2, nil)
	b, _ := newTestBasket(t, s, 4)

	_, started, err := c.Execute(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !started {
		t.Fatal("execution did not start")
	}

	final := waitTerminal(t, s, b.ID)
	if final.Status != types.BasketStatusCompleted {
		t.Errorf("final status = %s, want completed", final.Status)
	}

	p, _ := s.Progress(b.ID)
	if p.Overall.Executed != 4 || p.Overall.Failed != 0 {
		t.Errorf("progress: %+v", p.Overall)
	}
	// round-robin, 4 items over 3 brokers -> partitions {2,1,1}
	sizes := map[int]int{}
	for _, bp := range p.ByBroker {
		sizes[bp.Total]++
	}
	if sizes[2] != 1 || sizes[1] != 2 {
		t.Errorf("partition sizes: %+v", p.ByBroker)
	}

	_, items, _ := s.Get(b.ID)
	for _, it := range items {
		if it.Result == nil || it.Result.BrokerOrderID == "" {
			t.Errorf("executed item missing result: %+v", it)
		}
		if it.Attempts != 1 {
			t.Errorf("item attempts = %d, want 1", it.Attempts)
		}
	}
}

func TestCoordinatorAllPermanentFails(t *testing.T) {
	s := NewStore(nil, nil)
	reg := newScriptedRegistry(2, func(brokerID string, req broker.OrderRequest, attempt int) (broker.OrderResponse, error) {
		return broker.OrderResponse{}, broker.Permanent("authentication failed")
	})
	c := NewCoordinator(s, reg, fastPolicy(), 2, nil)
	b, _ := newTestBasket(t, s, 4)

	if _, started, err := c.Execute(context.Background(), b.ID); err != nil || !started {
		t.Fatalf("Execute: started=%v err=%v", started, err)
	}

	final := waitTerminal(t, s, b.ID)
	if final.Status != types.BasketStatusFailed {
		t.Errorf("final status = %s, want failed", final.Status)
	}
	_, items, _ := s.Get(b.ID)
	for _, it := range items {
		if it.Error == nil || it.Error.Kind != types.ErrorKindPermanent {
			t.Errorf("item error = %+v, want permanent kind", it.Error)
		}
		if it.Attempts != 1 {
			t.Errorf("permanent failure retried: attempts = %d", it.Attempts)
		}
	}
}

func TestCoordinatorEvenIndexFailuresPartial(t *testing.T) {
	var mu sync.Mutex
	seen := 0
	s := NewStore(nil, nil)
	reg := newScriptedRegistry(1, func(brokerID string, req broker.OrderRequest, attempt int) (broker.OrderResponse, error) {
		mu.Lock()
		idx := seen
		seen++
		mu.Unlock()
		if idx%2 == 0 {
			return broker.OrderResponse{}, broker.Permanent("insufficient margin")
		}
		return broker.OrderResponse{BrokerOrderID: "ord", Price: decimal.NewFromInt(50)}, nil
	})
	c := NewCoordinator(s, reg, fastPolicy(), 1, nil)
	b, _ := newTestBasket(t, s, 10)

	if _, started, err := c.Execute(context.Background(), b.ID); err != nil || !started {
		t.Fatalf("Execute: started=%v err=%v", started, err)
	}

	final := waitTerminal(t, s, b.ID)
	if final.Status != types.BasketStatusPartial {
		t.Errorf("final status = %s, want partial", final.Status)
	}
	p, _ := s.Progress(b.ID)
	if p.Overall.Executed != 5 || p.Overall.Failed != 5 {
		t.Errorf("progress: %+v, want 5 executed / 5 failed", p.Overall)
	}
}

func TestCoordinatorTransientRetriesThenSucceeds(t *testing.T) {
	s := NewStore(nil, nil)
	reg := newScriptedRegistry(1, func(brokerID string, req broker.OrderRequest, attempt int) (broker.OrderResponse, error) {
		if attempt < 3 {
			return broker.OrderResponse{}, broker.Transient("gateway timeout")
		}
		return broker.OrderResponse{BrokerOrderID: "ord", Price: decimal.NewFromInt(75)}, nil
	})
	c := NewCoordinator(s, reg, fastPolicy(), 1, nil)
	b, _ := newTestBasket(t, s, 1)

	if _, started, err := c.Execute(context.Background(), b.ID); err != nil || !started {
		t.Fatalf("Execute: started=%v err=%v", started, err)
	}

	final := waitTerminal(t, s, b.ID)
	if final.Status != types.BasketStatusCompleted {
		t.Errorf("final status = %s, want completed", final.Status)
	}
	_, items, _ := s.Get(b.ID)
	if items[0].Attempts != 3 {
		t.Errorf("attempts = %d, want 3", items[0].Attempts)
	}
}

func TestCoordinatorTransientExhaustsRetries(t *testing.T) {
	s := NewStore(nil, nil)
	reg := newScriptedRegistry(1, func(brokerID string, req broker.OrderRequest, attempt int) (broker.OrderResponse, error) {
		return broker.OrderResponse{}, broker.Transient("rate limited")
	})
	c := NewCoordinator(s, reg, fastPolicy(), 1, nil)
	b, _ := newTestBasket(t, s, 1)

	if _, started, err := c.Execute(context.Background(), b.ID); err != nil || !started {
		t.Fatalf("Execute: started=%v err=%v", started, err)
	}

	final := waitTerminal(t, s, b.ID)
	if final.Status != types.BasketStatusFailed {
		t.Errorf("final status = %s, want failed", final.Status)
	}
	_, items, _ := s.Get(b.ID)
	if items[0].Attempts != 3 {
		t.Errorf("attempts = %d, want exactly maxAttempts", items[0].Attempts)
	}
	if items[0].Error == nil || items[0].Error.Kind != types.ErrorKindTransient {
		t.Errorf("item error = %+v, want transient kind", items[0].Error)
	}
}

func TestCoordinatorNoActiveBrokersFailsImmediately(t *testing.T) {
	s := NewStore(nil, nil)
	reg := newScriptedRegistry(0, alwaysSucceed)
	c := NewCoordinator(s, reg, fastPolicy(), 1, nil)
	b, _ := newTestBasket(t, s, 3)

	got, started, err := c.Execute(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if started {
		t.Error("execution should not start without brokers")
	}
	// No pending/executing window: the returned basket is already failed.
	if got.Status != types.BasketStatusFailed {
		t.Errorf("status = %s, want failed", got.Status)
	}
	_, items, _ := s.Get(b.ID)
	for _, it := range items {
		if it.Status != types.ItemStatusFailed || it.Error == nil || it.Error.Kind != types.ErrorKindPermanent {
			t.Errorf("item after planning failure: %+v", it)
		}
	}
	if reg.totalSubmits() != 0 {
		t.Errorf("submitted %d orders with no brokers", reg.totalSubmits())
	}
}

func TestCoordinatorExecuteTwiceDispatchesOnce(t *testing.T) {
	s := NewStore(nil, nil)
	reg := newScriptedRegistry(2, alwaysSucceed)
	c := NewCoordinator(s, reg, fastPolicy(), 2, nil)
	b, _ := newTestBasket(t, s, 6)

	if _, started, err := c.Execute(context.Background(), b.ID); err != nil || !started {
		t.Fatalf("first Execute: started=%v err=%v", started, err)
	}
	cur, started, err := c.Execute(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if started {
		t.Error("second execute must not start dispatch again")
	}
	if cur.Status == types.BasketStatusPending {
		t.Errorf("second execute reported %s", cur.Status)
	}

	waitTerminal(t, s, b.ID)
	if got := reg.totalSubmits(); got != 6 {
		t.Errorf("total submits = %d, want 6 (one per item)", got)
	}
}

func TestCoordinatorCancelledBasketNeverDispatches(t *testing.T) {
	s := NewStore(nil, nil)
	reg := newScriptedRegistry(2, alwaysSucceed)
	c := NewCoordinator(s, reg, fastPolicy(), 2, nil)
	b, _ := newTestBasket(t, s, 3)

	if _, _, err := s.Cancel(context.Background(), b.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	cur, started, err := c.Execute(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if started || cur.Status != types.BasketStatusCancelled {
		t.Errorf("execute after cancel: started=%v status=%s", started, cur.Status)
	}
	if reg.totalSubmits() != 0 {
		t.Errorf("cancelled basket submitted %d orders", reg.totalSubmits())
	}
}

func TestCoordinatorUnknownBasket(t *testing.T) {
	s := NewStore(nil, nil)
	c := NewCoordinator(s, newScriptedRegistry(1, alwaysSucceed), fastPolicy(), 1, nil)
	if _, _, err := c.Execute(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
