package baskets

import (
	"context"
	"errors"

	"mb-basketd/internal/model"
	"mb-basketd/internal/symbols"
	"mb-basketd/internal/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service struct {
	store  *Store
	coord  *Coordinator
	dir    symbols.Directory
	logger *zap.Logger
}

func NewService(store *Store, coord *Coordinator, dir symbols.Directory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, coord: coord, dir: dir, logger: logger}
}

type CreateItemRequest struct {
	Symbol       string
	Expiry       string
	Strike       decimal.Decimal
	OptionType   types.OptionType
	Transaction  types.TransactionType
	Qty          int
	Kind         types.OrderKind
	LimitPrice   *decimal.Decimal
	TriggerPrice *decimal.Decimal
	Product      types.ProductType
}

type CreateBasketRequest struct {
	Name       string
	ItemType   string
	Algorithm  string
	MaxBrokers int
	Items      []CreateItemRequest
}

func (s *Service) Create(ctx context.Context, req CreateBasketRequest) (model.Basket, error) {
	if req.Name == "" {
		return model.Basket{}, errors.New("name is required")
	}
	if len(req.Items) == 0 {
		return model.Basket{}, errors.New("items are required")
	}
	if req.MaxBrokers < 1 {
		return model.Basket{}, errors.New("maxBrokers must be a positive integer")
	}
	algo := normalizeAlgorithm(req.Algorithm)
	if req.Algorithm != "" && string(algo) != req.Algorithm {
		s.logger.Warn("unknown distribution algorithm, falling back to random",
			zap.String("requested", req.Algorithm))
	}

	items := make([]model.BasketItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Qty == 0 {
			return model.Basket{}, errors.New("quantity must be non-zero")
		}
		if it.Transaction != types.TransactionTypeBuy && it.Transaction != types.TransactionTypeSell {
			return model.Basket{}, errors.New("invalid transactionType")
		}
		if it.Kind != types.OrderKindLimit && it.Kind != types.OrderKindMarket {
			return model.Basket{}, errors.New("invalid orderKind")
		}
		if it.Kind == types.OrderKindLimit && it.LimitPrice == nil {
			return model.Basket{}, errors.New("limitPrice required for limit order")
		}
		if it.Kind == types.OrderKindMarket && it.LimitPrice != nil {
			return model.Basket{}, errors.New("limitPrice not allowed for market order")
		}
		inst, err := s.dir.Resolve(it.Symbol, it.Expiry, it.Strike, it.OptionType)
		if err != nil {
			return model.Basket{}, errors.New("unknown symbol " + it.Symbol)
		}
		product := it.Product
		if product == "" {
			product = types.ProductTypeNormal
		}
		items = append(items, model.BasketItem{
			Symbol:       inst.Symbol,
			Expiry:       it.Expiry,
			Strike:       it.Strike,
			OptionType:   it.OptionType,
			Transaction:  it.Transaction,
			Qty:          it.Qty,
			LotSize:      inst.LotSize,
			Token:        inst.Token,
			Kind:         it.Kind,
			LimitPrice:   it.LimitPrice,
			TriggerPrice: it.TriggerPrice,
			Product:      product,
		})
	}

	b := model.Basket{
		Name:       req.Name,
		ItemType:   req.ItemType,
		Algorithm:  algo,
		MaxBrokers: req.MaxBrokers,
	}
	b, _ = s.store.Create(ctx, b, items)
	return b, nil
}

func normalizeAlgorithm(raw string) types.Algorithm {
	switch types.Algorithm(raw) {
	case types.AlgorithmRoundRobin, types.AlgorithmLoadBalance, types.AlgorithmPriority, types.AlgorithmRandom:
		return types.Algorithm(raw)
	}
	return types.AlgorithmRandom
}

func (s *Service) List(ctx context.Context) []model.Basket {
	return s.store.List()
}

func (s *Service) Get(ctx context.Context, id string) (model.Basket, []model.BasketItem, error) {
	return s.store.Get(id)
}

// Execute accepts the request and returns once dispatch has started; callers
// poll Progress for the outcome.
func (s *Service) Execute(ctx context.Context, id string) (model.Basket, bool, error) {
	return s.coord.Execute(ctx, id)
}

func (s *Service) Progress(ctx context.Context, id string) (Progress, error) {
	return s.store.Progress(id)
}

func (s *Service) Cancel(ctx context.Context, id string) (model.Basket, int, error) {
	return s.store.Cancel(ctx, id)
}
