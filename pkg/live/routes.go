package live

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router serving the WebSocket endpoint at /ws and the
// current document HTML at /.
func (h *Hub) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/ws", h.ServeWS)
	r.Get("/", h.serveHTML)
	return r
}

func (h *Hub) serveHTML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(h.HTML()))
}
