package service_test

import (
	"screencast/backend/internal/signalhub"

	"github.com/stretchr/testify/mock"
)

type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) Broadcast(roomCode string, msg any, except signalhub.Client) int {
	return m.Called(roomCode, msg, except).Int(0)
}

func (m *MockBroadcaster) CloseRoom(roomCode string, msg any) int {
	return m.Called(roomCode, msg).Int(0)
}
