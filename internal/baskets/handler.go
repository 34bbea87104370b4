package baskets

import (
	"errors"
	"net/http"
	"strings"

	"mb-basketd/internal/httputil"
	"mb-basketd/internal/model"
	"mb-basketd/internal/types"

	"github.com/shopspring/decimal"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type createItemRequest struct {
	Symbol          string `json:"symbol"`
	Expiry          string `json:"expiry"`
	Strike          string `json:"strike"`
	OptionType      string `json:"optionType"`
	TransactionType string `json:"transactionType"`
	Quantity        int    `json:"quantity"`
	OrderKind       string `json:"orderKind"`
	LimitPrice      string `json:"limitPrice"`
	TriggerPrice    string `json:"triggerPrice"`
	ProductType     string `json:"productType"`
}

type createBasketRequest struct {
	Name                  string              `json:"name"`
	Type                  string              `json:"type"`
	DistributionAlgorithm string              `json:"distributionAlgorithm"`
	MaxBrokers            int                 `json:"maxBrokers"`
	Items                 []createItemRequest `json:"items"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBasketRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	items := make([]CreateItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		var strike decimal.Decimal
		if it.Strike != "" {
			s, err := decimal.NewFromString(it.Strike)
			if err != nil {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid strike"})
				return
			}
			strike = s
		}
		var limitPrice *decimal.Decimal
		if it.LimitPrice != "" {
			p, err := decimal.NewFromString(it.LimitPrice)
			if err != nil {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid limitPrice"})
				return
			}
			limitPrice = &p
		}
		var triggerPrice *decimal.Decimal
		if it.TriggerPrice != "" {
			p, err := decimal.NewFromString(it.TriggerPrice)
			if err != nil {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid triggerPrice"})
				return
			}
			triggerPrice = &p
		}
		items = append(items, CreateItemRequest{
			Symbol:       strings.ToUpper(strings.TrimSpace(it.Symbol)),
			Expiry:       it.Expiry,
			Strike:       strike,
			OptionType:   types.OptionType(it.OptionType),
			Transaction:  types.TransactionType(strings.ToLower(it.TransactionType)),
			Qty:          it.Quantity,
			Kind:         types.OrderKind(strings.ToLower(it.OrderKind)),
			LimitPrice:   limitPrice,
			TriggerPrice: triggerPrice,
			Product:      types.ProductType(strings.ToLower(it.ProductType)),
		})
	}
	b, err := h.svc.Create(r.Context(), CreateBasketRequest{
		Name:       strings.TrimSpace(req.Name),
		ItemType:   req.Type,
		Algorithm:  req.DistributionAlgorithm,
		MaxBrokers: req.MaxBrokers,
		Items:      items,
	})
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":         b.ID,
		"status":     b.Status,
		"itemsCount": b.ItemsCount,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.svc.List(r.Context()))
}

type basketDetailResponse struct {
	model.Basket
	Items []model.BasketItem `json:"items"`
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, id string) {
	b, items, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeNotFound(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, basketDetailResponse{Basket: b, Items: items})
}

func (h *Handler) Execute(w http.ResponseWriter, r *http.Request, id string) {
	b, started, err := h.svc.Execute(r.Context(), id)
	if err != nil {
		writeNotFound(w, err)
		return
	}
	if !started {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"message": "basket is " + string(b.Status),
			"status":  b.Status,
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"message": "started"})
}

func (h *Handler) Progress(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.svc.Progress(r.Context(), id)
	if err != nil {
		writeNotFound(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request, id string) {
	b, cancelled, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		writeNotFound(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"id":             b.ID,
		"status":         b.Status,
		"itemsCancelled": cancelled,
	})
}

func writeNotFound(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "basket not found"})
		return
	}
	httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
}
