package baskets

import (
	"context"
	"errors"
	"sync"
	"time"

	"mb-basketd/internal/model"
	"mb-basketd/internal/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound   = errors.New("basket not found")
	ErrNotPending = errors.New("basket is not pending")
)

// Journal receives a copy of every record mutation for durable storage. The
// in-memory arena stays the source of truth; journal failures are logged and
// never block a state transition.
type Journal interface {
	SaveBasket(ctx context.Context, b model.Basket) error
	SaveItems(ctx context.Context, items []model.BasketItem) error
}

type basketState struct {
	mu       sync.Mutex
	basket   model.Basket
	items    []model.BasketItem
	index    map[string]int
	terminal int
}

// Store owns every Basket/BasketItem mutation. Baskets are kept in an arena
// keyed by opaque id; all writes to one basket are serialized by that
// basket's mutex, so independent baskets never contend.
type Store struct {
	mu      sync.RWMutex
	baskets map[string]*basketState
	order   []string
	journal Journal
	logger  *zap.Logger
}

func NewStore(journal Journal, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		baskets: make(map[string]*basketState),
		journal: journal,
		logger:  logger,
	}
}

func (s *Store) persist(ctx context.Context, b model.Basket, items ...model.BasketItem) {
	if s.journal == nil {
		return
	}
	if err := s.journal.SaveBasket(ctx, b); err != nil {
		s.logger.Warn("journal basket write failed", zap.String("basket_id", b.ID), zap.Error(err))
	}
	if len(items) == 0 {
		return
	}
	if err := s.journal.SaveItems(ctx, items); err != nil {
		s.logger.Warn("journal item write failed", zap.String("basket_id", b.ID), zap.Error(err))
	}
}

// Create registers a new basket with its items, assigning ids and timestamps.
func (s *Store) Create(ctx context.Context, b model.Basket, items []model.BasketItem) (model.Basket, []model.BasketItem) {
	now := time.Now().UTC()
	b.ID = uuid.NewString()
	b.Status = types.BasketStatusPending
	b.ItemsCount = len(items)
	b.CreatedAt = now
	b.UpdatedAt = now

	st := &basketState{basket: b, items: make([]model.BasketItem, len(items)), index: make(map[string]int, len(items))}
	for i := range items {
		it := items[i]
		it.ID = uuid.NewString()
		it.BasketID = b.ID
		it.Status = types.ItemStatusPending
		it.CreatedAt = now
		it.UpdatedAt = now
		st.items[i] = it
		st.index[it.ID] = i
	}

	s.mu.Lock()
	s.baskets[b.ID] = st
	s.order = append(s.order, b.ID)
	s.mu.Unlock()

	s.persist(ctx, b, st.items...)
	return b, append([]model.BasketItem(nil), st.items...)
}

func (s *Store) state(id string) (*basketState, bool) {
	s.mu.RLock()
	st, ok := s.baskets[id]
	s.mu.RUnlock()
	return st, ok
}

// Get returns copies of the basket and its items in creation order.
func (s *Store) Get(id string) (model.Basket, []model.BasketItem, error) {
	st, ok := s.state(id)
	if !ok {
		return model.Basket{}, nil, ErrNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.basket, append([]model.BasketItem(nil), st.items...), nil
}

// List returns basket summaries in creation order.
func (s *Store) List() []model.Basket {
	s.mu.RLock()
	ids := append([]string(nil), s.order...)
	s.mu.RUnlock()
	out := make([]model.Basket, 0, len(ids))
	for _, id := range ids {
		st, ok := s.state(id)
		if !ok {
			continue
		}
		st.mu.Lock()
		out = append(out, st.basket)
		st.mu.Unlock()
	}
	return out
}

// CommitPlan writes the planner's proposal: every listed item moves
// Pending -> Assigned with its broker, and the basket Pending -> Executing,
// in one critical section.
func (s *Store) CommitPlan(ctx context.Context, id string, assignment Assignment) error {
	st, ok := s.state(id)
	if !ok {
		return ErrNotFound
	}
	st.mu.Lock()
	if st.basket.Status != types.BasketStatusPending {
		st.mu.Unlock()
		return ErrNotPending
	}
	now := time.Now().UTC()
	for brokerID, itemIDs := range assignment {
		for _, itemID := range itemIDs {
			i, ok := st.index[itemID]
			if !ok {
				continue
			}
			st.items[i].AssignedBroker = brokerID
			st.items[i].Status = types.ItemStatusAssigned
			st.items[i].UpdatedAt = now
		}
	}
	st.basket.Status = types.BasketStatusExecuting
	st.basket.UpdatedAt = now
	b := st.basket
	items := append([]model.BasketItem(nil), st.items...)
	st.mu.Unlock()

	s.persist(ctx, b, items...)
	return nil
}

// FailPlanning terminates a pending basket before any dispatch, marking every
// item failed with the given error. Used when no active brokers exist at plan
// time: the basket goes straight to failed with no executing window.
func (s *Store) FailPlanning(ctx context.Context, id string, itemErr model.ItemError) (model.Basket, error) {
	st, ok := s.state(id)
	if !ok {
		return model.Basket{}, ErrNotFound
	}
	st.mu.Lock()
	if st.basket.Status != types.BasketStatusPending {
		b := st.basket
		st.mu.Unlock()
		return b, ErrNotPending
	}
	now := time.Now().UTC()
	e := itemErr
	for i := range st.items {
		st.items[i].Status = types.ItemStatusFailed
		st.items[i].Error = &e
		st.items[i].UpdatedAt = now
		st.terminal++
	}
	st.basket.Status = types.BasketStatusFailed
	st.basket.UpdatedAt = now
	st.basket.CompletedAt = &now
	b := st.basket
	items := append([]model.BasketItem(nil), st.items...)
	st.mu.Unlock()

	s.persist(ctx, b, items...)
	return b, nil
}

// BeginSubmit moves an item Assigned -> Submitting and returns a copy for the
// dispatching worker. Returns false when the item is no longer assignable,
// which is how cancelled items are skipped.
func (s *Store) BeginSubmit(ctx context.Context, basketID, itemID string) (model.BasketItem, bool) {
	st, ok := s.state(basketID)
	if !ok {
		return model.BasketItem{}, false
	}
	st.mu.Lock()
	i, ok := st.index[itemID]
	if !ok || st.items[i].Status != types.ItemStatusAssigned {
		st.mu.Unlock()
		return model.BasketItem{}, false
	}
	st.items[i].Status = types.ItemStatusSubmitting
	st.items[i].UpdatedAt = time.Now().UTC()
	it := st.items[i]
	b := st.basket
	st.mu.Unlock()

	s.persist(ctx, b, it)
	return it, true
}

// IncrementAttempts bumps the submission attempt counter and returns it.
func (s *Store) IncrementAttempts(basketID, itemID string) int {
	st, ok := s.state(basketID)
	if !ok {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	i, ok := st.index[itemID]
	if !ok {
		return 0
	}
	st.items[i].Attempts++
	return st.items[i].Attempts
}

// Finish records an item's terminal outcome. When the last item of an
// executing basket lands, the final basket status is computed in the same
// critical section: completed when nothing failed, failed when nothing
// executed, partial otherwise. The returned flag reports whether this call
// made the basket terminal.
func (s *Store) Finish(ctx context.Context, basketID, itemID string, result *model.ItemResult, itemErr *model.ItemError) (model.Basket, bool, error) {
	st, ok := s.state(basketID)
	if !ok {
		return model.Basket{}, false, ErrNotFound
	}
	st.mu.Lock()
	i, ok := st.index[itemID]
	if !ok {
		st.mu.Unlock()
		return model.Basket{}, false, ErrNotFound
	}
	now := time.Now().UTC()
	if itemErr != nil {
		e := *itemErr
		st.items[i].Status = types.ItemStatusFailed
		st.items[i].Error = &e
	} else {
		r := *result
		st.items[i].Status = types.ItemStatusExecuted
		st.items[i].Result = &r
	}
	st.items[i].UpdatedAt = now
	st.terminal++

	finished := false
	if st.terminal == len(st.items) && st.basket.Status == types.BasketStatusExecuting {
		executed, failed := 0, 0
		for j := range st.items {
			switch st.items[j].Status {
			case types.ItemStatusExecuted:
				executed++
			case types.ItemStatusFailed:
				failed++
			}
		}
		switch {
		case failed == 0:
			st.basket.Status = types.BasketStatusCompleted
		case executed == 0:
			st.basket.Status = types.BasketStatusFailed
		default:
			st.basket.Status = types.BasketStatusPartial
		}
		st.basket.CompletedAt = &now
		finished = true
	}
	st.basket.UpdatedAt = now
	b := st.basket
	it := st.items[i]
	st.mu.Unlock()

	s.persist(ctx, b, it)
	return b, finished, nil
}

// Cancel transitions a basket out of pending/executing. Items not yet handed
// to a broker are cancelled; items already submitting are left to finish and
// their outcome is still recorded by Finish.
func (s *Store) Cancel(ctx context.Context, id string) (model.Basket, int, error) {
	st, ok := s.state(id)
	if !ok {
		return model.Basket{}, 0, ErrNotFound
	}
	st.mu.Lock()
	if st.basket.Status.Terminal() {
		b := st.basket
		st.mu.Unlock()
		return b, 0, nil
	}
	now := time.Now().UTC()
	cancelled := 0
	for i := range st.items {
		switch st.items[i].Status {
		case types.ItemStatusPending, types.ItemStatusAssigned:
			st.items[i].Status = types.ItemStatusCancelled
			st.items[i].UpdatedAt = now
			st.terminal++
			cancelled++
		}
	}
	st.basket.Status = types.BasketStatusCancelled
	st.basket.UpdatedAt = now
	st.basket.CompletedAt = &now
	b := st.basket
	items := append([]model.BasketItem(nil), st.items...)
	st.mu.Unlock()

	s.persist(ctx, b, items...)
	return b, cancelled, nil
}

// Progress computes the pull-based snapshot from current item states.
func (s *Store) Progress(id string) (Progress, error) {
	st, ok := s.state(id)
	if !ok {
		return Progress{}, ErrNotFound
	}
	st.mu.Lock()
	items := append([]model.BasketItem(nil), st.items...)
	st.mu.Unlock()
	return computeProgress(items), nil
}
