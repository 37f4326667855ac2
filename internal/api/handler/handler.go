package handler

import (
	"screencast/backend/internal/service"
	"screencast/backend/internal/signalhub"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
)

// Handler holds the dependencies of the HTTP and websocket endpoints.
type Handler struct {
	Hub        *signalhub.ManagerService
	Rooms      *service.RoomService
	ICEServers []webrtc.ICEServer

	queueSize int
	upgrader  websocket.Upgrader
}

type Options struct {
	ICEServers     []webrtc.ICEServer
	AllowedOrigins []string
	SendQueueSize  int
}

func NewHandler(hub *signalhub.ManagerService, rooms *service.RoomService, opts Options) *Handler {
	return &Handler{
		Hub:        hub,
		Rooms:      rooms,
		ICEServers: opts.ICEServers,
		queueSize:  opts.SendQueueSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(opts.AllowedOrigins),
		},
	}
}
