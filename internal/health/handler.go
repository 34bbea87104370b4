package health

import (
	"context"
	"net/http"
	"time"

	"mb-basketd/internal/httputil"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	pool      *pgxpool.Pool
	startedAt time.Time
}

func NewHandler(pool *pgxpool.Pool, startedAt time.Time) *Handler {
	start := startedAt.UTC()
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return &Handler{pool: pool, startedAt: start}
}

type liveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
}

type readyResponse struct {
	Status    string        `json:"status"`
	Journal   journalStatus `json:"journal"`
	UptimeSec int64         `json:"uptime_sec"`
}

type journalStatus struct {
	Configured bool   `json:"configured"`
	Reachable  bool   `json:"reachable"`
	PingMs     int64  `json:"ping_ms"`
	Error      string `json:"error,omitempty"`
}

func (h *Handler) uptime() time.Duration {
	up := time.Since(h.startedAt)
	if up < 0 {
		return 0
	}
	return up
}

// Live is a lightweight liveness endpoint and does not touch the journal.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, liveResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		UptimeSec: int64(h.uptime().Seconds()),
	})
}

// Ready pings the journal when one is configured. A missing journal is not a
// readiness failure: the engine runs memory-only without DB_DSN.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	js := journalStatus{Configured: h.pool != nil}
	status := "ok"
	code := http.StatusOK
	if h.pool != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		start := time.Now()
		err := h.pool.Ping(ctx)
		cancel()
		js.PingMs = time.Since(start).Milliseconds()
		if err != nil {
			js.Error = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			js.Reachable = true
		}
	}
	httputil.WriteJSON(w, code, readyResponse{
		Status:    status,
		Journal:   js,
		UptimeSec: int64(h.uptime().Seconds()),
	})
}
