package model

import (
	"time"

	"mb-basketd/internal/types"

	"github.com/shopspring/decimal"
)

type Basket struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	ItemType    string             `json:"type"`
	Algorithm   types.Algorithm    `json:"distributionAlgorithm"`
	MaxBrokers  int                `json:"maxBrokers"`
	Status      types.BasketStatus `json:"status"`
	ItemsCount  int                `json:"itemsCount"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	CompletedAt *time.Time         `json:"completedAt,omitempty"`
}

type ItemResult struct {
	BrokerOrderID string          `json:"brokerOrderId"`
	Price         decimal.Decimal `json:"price"`
}

type ItemError struct {
	Kind    types.ErrorKind `json:"kind"`
	Message string          `json:"message"`
}

type BasketItem struct {
	ID             string                `json:"id"`
	BasketID       string                `json:"basketId"`
	Symbol         string                `json:"symbol"`
	Expiry         string                `json:"expiry"`
	Strike         decimal.Decimal       `json:"strike"`
	OptionType     types.OptionType      `json:"optionType"`
	Transaction    types.TransactionType `json:"transactionType"`
	Qty            int                   `json:"quantity"`
	LotSize        int                   `json:"lotSize"`
	Token          int64                 `json:"token"`
	Kind           types.OrderKind       `json:"orderKind"`
	LimitPrice     *decimal.Decimal      `json:"limitPrice,omitempty"`
	TriggerPrice   *decimal.Decimal      `json:"triggerPrice,omitempty"`
	Product        types.ProductType     `json:"productType"`
	AssignedBroker string                `json:"assignedBrokerId,omitempty"`
	Status         types.ItemStatus      `json:"itemStatus"`
	Result         *ItemResult           `json:"result,omitempty"`
	Error          *ItemError            `json:"error,omitempty"`
	Attempts       int                   `json:"attempts"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}
