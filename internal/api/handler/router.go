package handler

import (
	"screencast/backend/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the handler's routes. limiter, when non-nil, guards the
// room lifecycle routes.
func NewRouter(h *Handler, limiter gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	r.GET("/health", h.Health)
	r.GET("/ws", h.ServeWebSocket)

	api := r.Group("/api")
	api.GET("/ice-servers", h.GetICEServers)

	rooms := api.Group("/rooms")
	if limiter != nil {
		rooms.Use(limiter)
	}
	rooms.POST("", h.CreateRoom)
	rooms.POST("/join", h.JoinRoom)
	rooms.GET("/:code/participants", h.ListParticipants)
	rooms.POST("/:code/leave", h.LeaveRoom)

	return r
}
