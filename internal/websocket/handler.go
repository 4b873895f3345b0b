package websocket

import (
	"net/http"
	"net/url"
	"time"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades dashboard connections and runs them as hub clients.
// Connections are accepted from the site's own origin only.
func HandleWebSocket(hub *Hub, baseURL string) http.HandlerFunc {
	var patterns []string
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		patterns = append(patterns, u.Host)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		// Long-lived connections outlive the server's write timeout.
		if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
			hub.logger.Debug("clear write deadline", "error", err)
		}
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: patterns})
		if err != nil {
			hub.logger.Warn("accept websocket", "error", err)
			return
		}

		client := NewClient(hub, conn)
		client.Run(r.Context())
	}
}
