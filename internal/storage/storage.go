package storage

import (
	"errors"
	"time"

	"screencast/backend/internal/models"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomInactive        = errors.New("room is inactive")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrHostAssigned        = errors.New("room already has a host")
	ErrCodeSpaceExhausted  = errors.New("could not allocate a unique room code")
)

// Storage is the repository of rooms and their participants.
// Every method is safe for concurrent use. Lookup misses are reported with
// ErrRoomNotFound or ErrParticipantNotFound.
type Storage interface {
	// CreateRoom allocates a unique code and creates the room together with
	// its host participant.
	CreateRoom(hostDeviceID string) (*models.Room, *models.Participant, error)
	GetRoomByCode(code string) (*models.Room, error)
	UpdateRoomStatus(code string, active bool) error
	// DeleteRoom removes the room and every participant it owns.
	DeleteRoom(code string) error

	// AddParticipant returns the existing participant for (deviceID, roomID)
	// if there is one; created reports whether a new record was made.
	AddParticipant(roomID, deviceID string, role models.Role) (p *models.Participant, created bool, err error)
	GetParticipantsByRoom(roomID string) ([]models.Participant, error)
	GetParticipantByDeviceAndRoom(deviceID, roomID string) (*models.Participant, error)
	GetParticipantByID(participantID string) (*models.Participant, error)
	UpdateParticipantConnection(participantID string, connected bool) error
	RemoveParticipant(participantID string) error

	// IdleRooms lists rooms that have had no connected participant since
	// before cutoff.
	IdleRooms(cutoff time.Time) []models.Room
}
