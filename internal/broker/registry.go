package broker

import (
	"context"
	"sync"
)

// StaticRegistry holds a fixed set of connections registered at startup. The
// load score reported by ListActive tracks in-flight submissions per
// connection.
type StaticRegistry struct {
	mu       sync.RWMutex
	order    []string
	conns    map[string]Connection
	adapters map[string]Adapter
	inflight map[string]int
}

func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		conns:    make(map[string]Connection),
		adapters: make(map[string]Adapter),
		inflight: make(map[string]int),
	}
}

func (r *StaticRegistry) Register(conn Connection, a Adapter) {
	r.mu.Lock()
	if _, ok := r.conns[conn.ID]; !ok {
		r.order = append(r.order, conn.ID)
	}
	r.conns[conn.ID] = conn
	r.adapters[conn.ID] = a
	r.mu.Unlock()
}

// ListActive returns a stable-order snapshot with current load scores.
func (r *StaticRegistry) ListActive(ctx context.Context) []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Connection, 0, len(r.order))
	for _, id := range r.order {
		c := r.conns[id]
		c.LoadScore += r.inflight[id]
		out = append(out, c)
	}
	return out
}

func (r *StaticRegistry) Submit(ctx context.Context, brokerID string, req OrderRequest) (OrderResponse, error) {
	r.mu.Lock()
	a, ok := r.adapters[brokerID]
	if !ok {
		r.mu.Unlock()
		return OrderResponse{}, Permanent("broker " + brokerID + " is not registered")
	}
	r.inflight[brokerID]++
	r.mu.Unlock()

	resp, err := a.Submit(ctx, req)

	r.mu.Lock()
	r.inflight[brokerID]--
	r.mu.Unlock()
	return resp, err
}
