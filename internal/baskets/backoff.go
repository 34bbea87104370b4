package baskets

import "time"

// backoffDelay returns the wait before retry number attempt (1-based):
// base * 2^(attempt-1), capped at max.
func backoffDelay(attempt int, base, max time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// 2^30 seconds already dwarfs any sane cap; guard the shift.
	if attempt > 30 {
		return max
	}
	d := base * time.Duration(1<<(attempt-1))
	if d > max {
		return max
	}
	return d
}
