package baskets

import (
	"testing"
	"time"
)

func TestBackoffDelay(t *testing.T) {
	base := 100 * time.Millisecond
	max := time.Second
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{40, time.Second},
	}
	for _, tc := range cases {
		if got := backoffDelay(tc.attempt, base, max); got != tc.want {
			t.Errorf("backoffDelay(%d) = %s, want %s", tc.attempt, got, tc.want)
		}
	}
}
