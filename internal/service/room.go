package service

import (
	"errors"
	"fmt"
	"strings"

	"screencast/backend/internal/models"
	"screencast/backend/internal/signalhub"
	"screencast/backend/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// HostLeftMessage is sent to a room's sockets when its host leaves.
const HostLeftMessage = "Host has ended the session"

// Broadcaster delivers a server message to the signaling connections of a
// room. signalhub.ManagerService implements it.
type Broadcaster interface {
	Broadcast(roomCode string, msg any, except signalhub.Client) int
	// CloseRoom sends msg to every connection of the room and then releases
	// their association with it.
	CloseRoom(roomCode string, msg any) int
}

// RoomService implements the room lifecycle: create, join, list and leave.
type RoomService struct {
	store storage.Storage
	hub   Broadcaster
}

func NewRoomService(store storage.Storage, hub Broadcaster) *RoomService {
	if store == nil {
		panic("storage cannot be nil for RoomService")
	}
	return &RoomService{store: store, hub: hub}
}

// CreateRoom creates a room hosted by deviceID. An empty deviceID gets a
// generated one.
func (s *RoomService) CreateRoom(deviceID string) (*models.Room, *models.Participant, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		deviceID = "device_" + uuid.NewString()
	}
	logCtx := logrus.WithField("device_id", deviceID)

	room, host, err := s.store.CreateRoom(deviceID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to create room")
		return nil, nil, fmt.Errorf("create room: %w", err)
	}

	logCtx.WithFields(logrus.Fields{"room_code": room.Code, "participant_id": host.ID}).Info("Room created")
	return room, host, nil
}

// JoinRoom adds deviceID to the room as a viewer. Joining again with the same
// device returns the existing participant.
func (s *RoomService) JoinRoom(code, deviceID string) (*models.Room, *models.Participant, error) {
	code = models.NormalizeCode(code)
	deviceID = strings.TrimSpace(deviceID)
	if code == "" || deviceID == "" {
		return nil, nil, fmt.Errorf("%w: code and deviceId are required", ErrInvalidInput)
	}
	logCtx := logrus.WithFields(logrus.Fields{"room_code": code, "device_id": deviceID})

	room, err := s.activeRoom(code)
	if err != nil {
		logCtx.WithError(err).Warn("Join rejected")
		return nil, nil, err
	}

	p, created, err := s.store.AddParticipant(room.ID, deviceID, models.RoleViewer)
	switch {
	case errors.Is(err, storage.ErrRoomNotFound), errors.Is(err, storage.ErrRoomInactive):
		logCtx.WithError(err).Warn("Room closed while joining")
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	case err != nil:
		logCtx.WithError(err).Error("Failed to add participant")
		return nil, nil, fmt.Errorf("join room: %w", err)
	}

	logCtx.WithFields(logrus.Fields{"participant_id": p.ID, "role": p.Role, "created": created}).Info("Participant joined room")
	return room, p, nil
}

// ListParticipants returns the room's participants in join order.
func (s *RoomService) ListParticipants(code string) ([]models.Participant, error) {
	code = models.NormalizeCode(code)
	room, err := s.store.GetRoomByCode(code)
	if err != nil {
		return nil, mapRoomError(code, err)
	}
	participants, err := s.store.GetParticipantsByRoom(room.ID)
	if err != nil {
		return nil, mapRoomError(code, err)
	}
	return participants, nil
}

// LeaveRoom removes deviceID from the room. If the host leaves, the room is
// closed for everyone. Leaving a room one is not in succeeds.
func (s *RoomService) LeaveRoom(code, deviceID string) error {
	code = models.NormalizeCode(code)
	deviceID = strings.TrimSpace(deviceID)
	if code == "" || deviceID == "" {
		return fmt.Errorf("%w: code and deviceId are required", ErrInvalidInput)
	}
	logCtx := logrus.WithFields(logrus.Fields{"room_code": code, "device_id": deviceID})

	room, err := s.store.GetRoomByCode(code)
	if err != nil {
		return mapRoomError(code, err)
	}

	p, err := s.store.GetParticipantByDeviceAndRoom(deviceID, room.ID)
	if errors.Is(err, storage.ErrParticipantNotFound) {
		logCtx.Debug("Leave for unknown participant ignored")
		return nil
	}
	if err != nil {
		return fmt.Errorf("leave room: %w", err)
	}
	logCtx = logCtx.WithField("participant_id", p.ID)

	if p.IsHost() {
		if err := s.store.UpdateRoomStatus(code, false); err != nil {
			return mapRoomError(code, err)
		}
		n := 0
		if s.hub != nil {
			n = s.hub.CloseRoom(code, models.NewRoomClosed(HostLeftMessage))
		}
		s.remove(logCtx, p.ID)
		logCtx.WithField("notified", n).Info("Host left, room closed")
		return nil
	}

	if !s.remove(logCtx, p.ID) {
		return nil
	}
	n := s.broadcast(code, models.NewParticipantEvent(models.TypeParticipantLeft, p.DeviceID, p.ID))
	logCtx.WithField("notified", n).Info("Viewer left room")
	return nil
}

func (s *RoomService) activeRoom(code string) (*models.Room, error) {
	room, err := s.store.GetRoomByCode(code)
	if err != nil {
		return nil, mapRoomError(code, err)
	}
	if !room.Active {
		return nil, fmt.Errorf("%w: %s is inactive", ErrNotFound, code)
	}
	return room, nil
}

// remove deletes the participant and reports whether this call removed it.
func (s *RoomService) remove(logCtx *logrus.Entry, participantID string) bool {
	err := s.store.RemoveParticipant(participantID)
	switch {
	case err == nil:
		return true
	case errors.Is(err, storage.ErrParticipantNotFound):
		logCtx.Debug("Participant already removed")
	default:
		logCtx.WithError(err).Error("Failed to remove participant")
	}
	return false
}

func (s *RoomService) broadcast(code string, msg any) int {
	if s.hub == nil {
		return 0
	}
	return s.hub.Broadcast(code, msg, nil)
}

func mapRoomError(code string, err error) error {
	if errors.Is(err, storage.ErrRoomNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	return err
}
