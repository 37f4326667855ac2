package handler

import (
	"errors"
	"io"
	"net/http"

	"screencast/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type createRoomRequest struct {
	DeviceID string `json:"deviceId"`
}

type joinRoomRequest struct {
	Code     string `json:"code"`
	DeviceID string `json:"deviceId"`
}

type leaveRoomRequest struct {
	DeviceID string `json:"deviceId"`
}

// CreateRoom handles POST /api/rooms.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
			return
		}
	}

	room, _, err := h.Rooms.CreateRoom(req.DeviceID)
	if err != nil {
		respondError(c, err, "Failed to create room")
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "code": room.Code})
}

// JoinRoom handles POST /api/rooms/join.
func (h *Handler) JoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Room code and device ID required"})
		return
	}

	room, participant, err := h.Rooms.JoinRoom(req.Code, req.DeviceID)
	if err != nil {
		respondError(c, err, "Failed to join room")
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "participant": participant})
}

// ListParticipants handles GET /api/rooms/:code/participants.
func (h *Handler) ListParticipants(c *gin.Context) {
	participants, err := h.Rooms.ListParticipants(c.Param("code"))
	if err != nil {
		respondError(c, err, "Failed to get participants")
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

// LeaveRoom handles POST /api/rooms/:code/leave.
func (h *Handler) LeaveRoom(c *gin.Context) {
	var req leaveRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Device ID required"})
		return
	}

	if err := h.Rooms.LeaveRoom(c.Param("code"), req.DeviceID); err != nil {
		respondError(c, err, "Failed to leave room")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Room not found or inactive"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Room code and device ID required"})
	default:
		logrus.WithField("path", c.FullPath()).WithError(err).Error(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"message": fallback})
	}
	_ = c.Error(err)
}
