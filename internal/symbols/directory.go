package symbols

import (
	"errors"
	"hash/fnv"
	"strings"
	"sync"

	"mb-basketd/internal/types"

	"github.com/shopspring/decimal"
)

var ErrUnknownSymbol = errors.New("unknown symbol")

// Instrument is a tradable contract resolved from a human-readable
// symbol/expiry/strike triple.
type Instrument struct {
	Token   int64
	Symbol  string
	LotSize int
}

type Directory interface {
	Resolve(symbol, expiry string, strike decimal.Decimal, optType types.OptionType) (Instrument, error)
}

type underlying struct {
	lotSize int
}

// StaticDirectory resolves instruments from a fixed underlying table. Tokens
// are derived deterministically so repeated lookups agree without a real
// exchange contract master.
type StaticDirectory struct {
	mu          sync.RWMutex
	underlyings map[string]underlying
}

func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{underlyings: map[string]underlying{
		"NIFTY":     {lotSize: 75},
		"BANKNIFTY": {lotSize: 35},
		"FINNIFTY":  {lotSize: 65},
		"SENSEX":    {lotSize: 20},
	}}
}

func (d *StaticDirectory) Add(symbol string, lotSize int) {
	d.mu.Lock()
	d.underlyings[strings.ToUpper(symbol)] = underlying{lotSize: lotSize}
	d.mu.Unlock()
}

func (d *StaticDirectory) Resolve(symbol, expiry string, strike decimal.Decimal, optType types.OptionType) (Instrument, error) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	d.mu.RLock()
	u, ok := d.underlyings[key]
	d.mu.RUnlock()
	if !ok {
		return Instrument{}, ErrUnknownSymbol
	}
	h := fnv.New64a()
	h.Write([]byte(key + "|" + expiry + "|" + strike.String() + "|" + string(optType)))
	return Instrument{
		Token:   int64(h.Sum64() & 0x7fffffff),
		Symbol:  key,
		LotSize: u.lotSize,
	}, nil
}
