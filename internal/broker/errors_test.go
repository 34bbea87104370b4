package broker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"mb-basketd/internal/types"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want types.ErrorKind
	}{
		{"transient", Transient("timeout"), types.ErrorKindTransient},
		{"permanent", Permanent("auth failed"), types.ErrorKindPermanent},
		{"wrapped permanent", fmt.Errorf("submit: %w", Permanent("margin")), types.ErrorKindPermanent},
		{"context cancelled", context.Canceled, types.ErrorKindTransient},
		{"plain error", errors.New("connection reset"), types.ErrorKindTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil error must not be retryable")
	}
	if IsRetryable(Permanent("rejected")) {
		t.Error("permanent error must not be retryable")
	}
	if !IsRetryable(Transient("rate limited")) {
		t.Error("transient error must be retryable")
	}
}

func TestStaticRegistryUnknownBroker(t *testing.T) {
	r := NewStaticRegistry()
	_, err := r.Submit(context.Background(), "ghost", OrderRequest{})
	if KindOf(err) != types.ErrorKindPermanent {
		t.Errorf("unknown broker error = %v, want permanent", err)
	}
}

func TestStaticRegistrySnapshotOrder(t *testing.T) {
	r := NewStaticRegistry()
	r.Register(Connection{ID: "a", Priority: 2}, NewSimAdapter("a", SimOptions{}))
	r.Register(Connection{ID: "b", Priority: 1}, NewSimAdapter("b", SimOptions{}))

	conns := r.ListActive(context.Background())
	if len(conns) != 2 || conns[0].ID != "a" || conns[1].ID != "b" {
		t.Errorf("snapshot order unstable: %+v", conns)
	}
}

func TestSimAdapterSubmit(t *testing.T) {
	a := NewSimAdapter("sim", SimOptions{})
	resp, err := a.Submit(context.Background(), OrderRequest{ClientOrderID: "c1", Price: "105.50"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resp.BrokerOrderID == "" {
		t.Error("missing broker order id")
	}
	if resp.Price.String() != "105.5" {
		t.Errorf("price = %s, want limit price echoed", resp.Price)
	}
}

func TestSimAdapterPermanentFailure(t *testing.T) {
	a := NewSimAdapter("sim", SimOptions{FailRate: 1, FailKind: types.ErrorKindPermanent})
	_, err := a.Submit(context.Background(), OrderRequest{})
	if KindOf(err) != types.ErrorKindPermanent {
		t.Errorf("error = %v, want permanent", err)
	}
}
