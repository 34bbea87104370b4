package broker

import (
	"net/http"

	"mb-basketd/internal/httputil"
)

type Handler struct {
	registry Registry
}

func NewHandler(registry Registry) *Handler {
	return &Handler{registry: registry}
}

// List returns the current registry snapshot for the operator panel.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	conns := h.registry.ListActive(r.Context())
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"brokers": conns,
		"count":   len(conns),
	})
}
