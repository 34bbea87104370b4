package quotes

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// WS streams bus quotes to a websocket client, optionally filtered by the
// symbol query parameter.
type WS struct {
	bus      *Bus
	upgrader websocket.Upgrader
}

func NewWS(bus *Bus, origin string) *WS {
	return &WS{
		bus: bus,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool {
			return allowOrigin(r, origin)
		}},
	}
}

func (h *WS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))

	ch := h.bus.Subscribe()
	defer h.bus.Unsubscribe(ch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if symbol != "" {
				if q, ok := evt.Data.(Quote); ok && q.Symbol != symbol {
					continue
				}
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		}
	}
}

func allowOrigin(r *http.Request, origin string) bool {
	if origin == "*" {
		return true
	}
	return strings.EqualFold(r.Header.Get("Origin"), origin)
}
