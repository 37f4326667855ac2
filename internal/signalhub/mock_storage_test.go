package signalhub_test

import (
	"time"

	"screencast/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateRoom(hostDeviceID string) (*models.Room, *models.Participant, error) {
	args := m.Called(hostDeviceID)
	room, _ := args.Get(0).(*models.Room)
	host, _ := args.Get(1).(*models.Participant)
	return room, host, args.Error(2)
}

func (m *MockStorage) GetRoomByCode(code string) (*models.Room, error) {
	args := m.Called(code)
	room, _ := args.Get(0).(*models.Room)
	return room, args.Error(1)
}

func (m *MockStorage) UpdateRoomStatus(code string, active bool) error {
	return m.Called(code, active).Error(0)
}

func (m *MockStorage) DeleteRoom(code string) error {
	return m.Called(code).Error(0)
}

func (m *MockStorage) AddParticipant(roomID, deviceID string, role models.Role) (*models.Participant, bool, error) {
	args := m.Called(roomID, deviceID, role)
	p, _ := args.Get(0).(*models.Participant)
	return p, args.Bool(1), args.Error(2)
}

func (m *MockStorage) GetParticipantsByRoom(roomID string) ([]models.Participant, error) {
	args := m.Called(roomID)
	ps, _ := args.Get(0).([]models.Participant)
	return ps, args.Error(1)
}

func (m *MockStorage) GetParticipantByDeviceAndRoom(deviceID, roomID string) (*models.Participant, error) {
	args := m.Called(deviceID, roomID)
	p, _ := args.Get(0).(*models.Participant)
	return p, args.Error(1)
}

func (m *MockStorage) GetParticipantByID(participantID string) (*models.Participant, error) {
	args := m.Called(participantID)
	p, _ := args.Get(0).(*models.Participant)
	return p, args.Error(1)
}

func (m *MockStorage) UpdateParticipantConnection(participantID string, connected bool) error {
	return m.Called(participantID, connected).Error(0)
}

func (m *MockStorage) RemoveParticipant(participantID string) error {
	return m.Called(participantID).Error(0)
}

func (m *MockStorage) IdleRooms(cutoff time.Time) []models.Room {
	rooms, _ := m.Called(cutoff).Get(0).([]models.Room)
	return rooms
}
