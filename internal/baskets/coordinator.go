package baskets

import (
	"context"
	"sync"
	"time"

	"mb-basketd/internal/broker"
	"mb-basketd/internal/model"
	"mb-basketd/internal/types"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// RetryPolicy bounds the transient-failure retry loop. Delays follow
// BaseDelay * 2^(attempt-1) capped at MaxDelay.
type RetryPolicy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{BaseDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second, MaxAttempts: 3}
}

// Coordinator drives concurrent submission of a basket's partitions: one
// worker per assigned broker, items submitted in assignment order, a
// per-broker in-flight ceiling shared across baskets.
type Coordinator struct {
	store       *Store
	registry    broker.Registry
	policy      RetryPolicy
	maxInflight int64
	logger      *zap.Logger

	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

func NewCoordinator(store *Store, registry broker.Registry, policy RetryPolicy, maxInflight int, logger *zap.Logger) *Coordinator {
	if policy.MaxAttempts < 1 {
		policy = DefaultRetryPolicy()
	}
	if maxInflight < 1 {
		maxInflight = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:       store,
		registry:    registry,
		policy:      policy,
		maxInflight: int64(maxInflight),
		logger:      logger,
		sems:        make(map[string]*semaphore.Weighted),
	}
}

// sem returns the submission semaphore for a broker. The ceiling applies per
// connection regardless of how many baskets are executing.
func (c *Coordinator) sem(brokerID string) *semaphore.Weighted {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sems[brokerID]
	if !ok {
		s = semaphore.NewWeighted(c.maxInflight)
		c.sems[brokerID] = s
	}
	return s
}

// Execute plans and starts dispatch for a pending basket, returning as soon
// as workers are launched. The started flag is false when the basket was not
// pending (the current record is returned for the caller to report) or when
// planning failed outright for lack of active brokers.
func (c *Coordinator) Execute(ctx context.Context, basketID string) (model.Basket, bool, error) {
	b, items, err := c.store.Get(basketID)
	if err != nil {
		return model.Basket{}, false, err
	}
	if b.Status != types.BasketStatusPending {
		return b, false, nil
	}

	active := c.registry.ListActive(ctx)
	if len(active) == 0 {
		failed, err := c.store.FailPlanning(ctx, basketID, model.ItemError{
			Kind:    types.ErrorKindPermanent,
			Message: "no active brokers available",
		})
		if err != nil {
			// Lost the race with a concurrent execute/cancel; report current.
			cur, _, getErr := c.store.Get(basketID)
			return cur, false, getErr
		}
		c.logger.Warn("basket failed at planning: no active brokers", zap.String("basket_id", basketID))
		return failed, false, nil
	}

	assignment := Plan(items, active, b.Algorithm, b.MaxBrokers)
	if err := c.store.CommitPlan(ctx, basketID, assignment); err != nil {
		cur, _, getErr := c.store.Get(basketID)
		if getErr != nil {
			return model.Basket{}, false, getErr
		}
		return cur, false, nil
	}

	c.logger.Info("basket execution started",
		zap.String("basket_id", basketID),
		zap.Int("items", len(items)),
		zap.Int("brokers", len(assignment)),
		zap.String("algorithm", string(b.Algorithm)),
	)
	go c.run(basketID, assignment)

	b, _, err = c.store.Get(basketID)
	return b, true, err
}

// run fans out one worker per assigned broker and logs the final status once
// every partition has drained. Detached from the request context: execute is
// accepted, not awaited.
func (c *Coordinator) run(basketID string, assignment Assignment) {
	ctx := context.Background()
	g, ctx := errgroup.WithContext(ctx)
	for brokerID, itemIDs := range assignment {
		brokerID, itemIDs := brokerID, itemIDs
		g.Go(func() error {
			c.worker(ctx, basketID, brokerID, itemIDs)
			return nil
		})
	}
	_ = g.Wait()

	b, _, err := c.store.Get(basketID)
	if err != nil {
		return
	}
	c.logger.Info("basket execution finished",
		zap.String("basket_id", basketID),
		zap.String("status", string(b.Status)),
	)
}

// worker submits one broker's partition in assignment order. Items that were
// cancelled before dispatch fail BeginSubmit and are skipped.
func (c *Coordinator) worker(ctx context.Context, basketID, brokerID string, itemIDs []string) {
	for _, itemID := range itemIDs {
		item, ok := c.store.BeginSubmit(ctx, basketID, itemID)
		if !ok {
			continue
		}
		result, itemErr := c.submit(ctx, basketID, brokerID, item)
		if _, _, err := c.store.Finish(ctx, basketID, itemID, result, itemErr); err != nil {
			c.logger.Error("recording item outcome failed",
				zap.String("basket_id", basketID),
				zap.String("item_id", itemID),
				zap.Error(err),
			)
		}
	}
}

// submit runs the bounded retry loop for one item. Transient failures back
// off exponentially until the attempt ceiling; permanent failures stop
// immediately. The broker semaphore is held only around the network call.
func (c *Coordinator) submit(ctx context.Context, basketID, brokerID string, item model.BasketItem) (*model.ItemResult, *model.ItemError) {
	req := orderRequest(item)
	for {
		attempt := c.store.IncrementAttempts(basketID, item.ID)

		if err := c.sem(brokerID).Acquire(ctx, 1); err != nil {
			return nil, &model.ItemError{Kind: types.ErrorKindTransient, Message: "dispatch aborted: " + err.Error()}
		}
		resp, err := c.registry.Submit(ctx, brokerID, req)
		c.sem(brokerID).Release(1)

		if err == nil {
			c.logger.Info("item executed",
				zap.String("basket_id", basketID),
				zap.String("item_id", item.ID),
				zap.String("broker_id", brokerID),
				zap.String("broker_order_id", resp.BrokerOrderID),
				zap.Int("attempt", attempt),
			)
			return &model.ItemResult{BrokerOrderID: resp.BrokerOrderID, Price: resp.Price}, nil
		}

		kind := broker.KindOf(err)
		if kind == types.ErrorKindPermanent {
			c.logger.Warn("item failed permanently",
				zap.String("basket_id", basketID),
				zap.String("item_id", item.ID),
				zap.String("broker_id", brokerID),
				zap.Error(err),
			)
			return nil, &model.ItemError{Kind: types.ErrorKindPermanent, Message: err.Error()}
		}
		if attempt >= c.policy.MaxAttempts {
			c.logger.Warn("item failed: retries exhausted",
				zap.String("basket_id", basketID),
				zap.String("item_id", item.ID),
				zap.String("broker_id", brokerID),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return nil, &model.ItemError{Kind: types.ErrorKindTransient, Message: "retries exhausted: " + err.Error()}
		}

		wait := backoffDelay(attempt, c.policy.BaseDelay, c.policy.MaxDelay)
		c.logger.Warn("item submission failed, retrying",
			zap.String("basket_id", basketID),
			zap.String("item_id", item.ID),
			zap.String("broker_id", brokerID),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, &model.ItemError{Kind: types.ErrorKindTransient, Message: "dispatch aborted: " + ctx.Err().Error()}
		case <-time.After(wait):
		}
	}
}

func orderRequest(item model.BasketItem) broker.OrderRequest {
	req := broker.OrderRequest{
		ClientOrderID: item.ID,
		Token:         item.Token,
		Symbol:        item.Symbol,
		Side:          string(item.Transaction),
		Type:          string(item.Kind),
		Qty:           item.Qty,
		Product:       string(item.Product),
	}
	if item.LimitPrice != nil {
		req.Price = item.LimitPrice.String()
	}
	if item.TriggerPrice != nil {
		req.TriggerPrice = item.TriggerPrice.String()
	}
	return req
}
