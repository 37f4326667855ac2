package handler

import (
	"net/http"

	"screencast/backend/internal/signalhub"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// checkOrigin allows any origin when allowed is empty.
func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin.
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeWebSocket upgrades the request to a signaling connection.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logrus.WithField("client_ip", c.ClientIP()).WithError(err).Warn("Websocket upgrade failed")
		return
	}

	signalhub.NewWebSocketClient(h.Hub, conn, h.queueSize).Run()
}
