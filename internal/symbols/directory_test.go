package symbols

import (
	"testing"

	"mb-basketd/internal/types"

	"github.com/shopspring/decimal"
)

func TestResolveKnownSymbol(t *testing.T) {
	d := NewStaticDirectory()
	strike := decimal.NewFromInt(24800)

	inst, err := d.Resolve("nifty", "2026-09-25", strike, types.OptionTypeCall)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if inst.Symbol != "NIFTY" {
		t.Errorf("symbol = %s, want NIFTY", inst.Symbol)
	}
	if inst.LotSize != 75 {
		t.Errorf("lot size = %d, want 75", inst.LotSize)
	}
	if inst.Token <= 0 {
		t.Errorf("token = %d, want positive", inst.Token)
	}

	again, err := d.Resolve("NIFTY", "2026-09-25", strike, types.OptionTypeCall)
	if err != nil || again.Token != inst.Token {
		t.Errorf("token not deterministic: %d vs %d", inst.Token, again.Token)
	}

	put, _ := d.Resolve("NIFTY", "2026-09-25", strike, types.OptionTypePut)
	if put.Token == inst.Token {
		t.Error("call and put resolved to the same token")
	}
}

func TestResolveUnknownSymbol(t *testing.T) {
	d := NewStaticDirectory()
	if _, err := d.Resolve("NOPE", "2026-09-25", decimal.Zero, types.OptionTypeCall); err != ErrUnknownSymbol {
		t.Errorf("err = %v, want ErrUnknownSymbol", err)
	}
}

func TestAddUnderlying(t *testing.T) {
	d := NewStaticDirectory()
	d.Add("crudeoil", 100)
	inst, err := d.Resolve("CRUDEOIL", "2026-10-19", decimal.NewFromInt(7000), types.OptionTypeFuture)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if inst.LotSize != 100 {
		t.Errorf("lot size = %d, want 100", inst.LotSize)
	}
}
