package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
)

// BuildICEServers turns configured URLs into ICE servers. Credentials apply
// to every turn: URL.
func BuildICEServers(urls []string, username, credential string) []webrtc.ICEServer {
	var stun, turn []string
	for _, u := range urls {
		if strings.HasPrefix(u, "turn:") || strings.HasPrefix(u, "turns:") {
			turn = append(turn, u)
		} else {
			stun = append(stun, u)
		}
	}

	servers := make([]webrtc.ICEServer, 0, len(urls))
	for _, u := range stun {
		servers = append(servers, webrtc.ICEServer{URLs: []string{u}})
	}
	if len(turn) > 0 {
		servers = append(servers, webrtc.ICEServer{URLs: turn, Username: username, Credential: credential})
	}
	return servers
}

// GetICEServers handles GET /api/ice-servers.
func (h *Handler) GetICEServers(c *gin.Context) {
	servers := h.ICEServers
	if servers == nil {
		servers = []webrtc.ICEServer{}
	}
	c.JSON(http.StatusOK, gin.H{"iceServers": servers})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
