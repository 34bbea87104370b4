package types

type BasketStatus string

type ItemStatus string

type Algorithm string

type OptionType string

type TransactionType string

type OrderKind string

type ProductType string

type ErrorKind string

const (
	BasketStatusPending   BasketStatus = "pending"
	BasketStatusExecuting BasketStatus = "executing"
	BasketStatusCompleted BasketStatus = "completed"
	BasketStatusPartial   BasketStatus = "partial"
	BasketStatusFailed    BasketStatus = "failed"
	BasketStatusCancelled BasketStatus = "cancelled"
)

const (
	ItemStatusPending    ItemStatus = "pending"
	ItemStatusAssigned   ItemStatus = "assigned"
	ItemStatusSubmitting ItemStatus = "submitting"
	ItemStatusExecuted   ItemStatus = "executed"
	ItemStatusFailed     ItemStatus = "failed"
	ItemStatusCancelled  ItemStatus = "cancelled"
)

const (
	AlgorithmRoundRobin  Algorithm = "round-robin"
	AlgorithmLoadBalance Algorithm = "load-balance"
	AlgorithmPriority    Algorithm = "priority"
	AlgorithmRandom      Algorithm = "random"
)

const (
	OptionTypeCall   OptionType = "CE"
	OptionTypePut    OptionType = "PE"
	OptionTypeFuture OptionType = "FUT"
)

const (
	TransactionTypeBuy  TransactionType = "buy"
	TransactionTypeSell TransactionType = "sell"
)

const (
	OrderKindMarket OrderKind = "market"
	OrderKindLimit  OrderKind = "limit"
)

const (
	ProductTypeIntraday ProductType = "intraday"
	ProductTypeNormal   ProductType = "normal"
)

const (
	ErrorKindTransient ErrorKind = "transient"
	ErrorKindPermanent ErrorKind = "permanent"
)

// Terminal reports whether the basket status is absorbing.
func (s BasketStatus) Terminal() bool {
	switch s {
	case BasketStatusCompleted, BasketStatusPartial, BasketStatusFailed, BasketStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the item status is absorbing.
func (s ItemStatus) Terminal() bool {
	switch s {
	case ItemStatusExecuted, ItemStatusFailed, ItemStatusCancelled:
		return true
	}
	return false
}
