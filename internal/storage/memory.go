package storage

import (
	"fmt"
	"sync"
	"time"

	"screencast/backend/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// roomEntry is a room and its members. Its mutex serializes every change to
// this room; operations on different rooms never share it.
type roomEntry struct {
	mu        sync.Mutex
	room      models.Room
	members   []*models.Participant // join order
	deleted   bool
	idleSince time.Time // zero while at least one member is connected
}

// MemoryStore keeps rooms in process memory.
//
// Lock order: an entry's mutex may be held while taking the index mutex, never
// the other way round.
type MemoryStore struct {
	mu           sync.RWMutex // guards the three indexes below
	byCode       map[string]*roomEntry
	byID         map[string]*roomEntry
	participants map[string]*roomEntry // participant id -> owning room

	newCode CodeGenerator
	now     func() time.Time
}

// Option customizes a MemoryStore.
type Option func(*MemoryStore)

// WithCodeGenerator replaces RandomCode.
func WithCodeGenerator(gen CodeGenerator) Option {
	return func(s *MemoryStore) { s.newCode = gen }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byCode:       make(map[string]*roomEntry),
		byID:         make(map[string]*roomEntry),
		participants: make(map[string]*roomEntry),
		newCode:      RandomCode,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Storage = (*MemoryStore)(nil)

func (s *MemoryStore) CreateRoom(hostDeviceID string) (*models.Room, *models.Participant, error) {
	now := s.now()
	entry := &roomEntry{
		room: models.Room{
			ID:           uuid.NewString(),
			HostDeviceID: hostDeviceID,
			CreatedAt:    now,
			Active:       true,
		},
		idleSince: now,
	}
	host := &models.Participant{
		ID:       uuid.NewString(),
		RoomID:   entry.room.ID,
		DeviceID: hostDeviceID,
		Role:     models.RoleHost,
		JoinedAt: now,
	}
	entry.members = []*models.Participant{host}

	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, nil, err
		}
		if _, taken := s.byCode[code]; taken {
			logrus.WithFields(logrus.Fields{"room_code": code, "attempt": attempt}).Debug("Room code collision, regenerating")
			continue
		}
		entry.room.Code = code
		s.byCode[code] = entry
		s.byID[entry.room.ID] = entry
		s.participants[host.ID] = entry

		room, p := entry.room, *host
		return &room, &p, nil
	}
	return nil, nil, fmt.Errorf("%w after %d attempts", ErrCodeSpaceExhausted, maxCodeAttempts)
}

func (s *MemoryStore) entryByCode(code string) (*roomEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byCode[code]
	return e, ok
}

func (s *MemoryStore) entryByID(roomID string) (*roomEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[roomID]
	return e, ok
}

func (s *MemoryStore) entryByParticipant(participantID string) (*roomEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.participants[participantID]
	return e, ok
}

// lockLive locks e and reports whether it is still stored. On false the
// entry is already unlocked.
func lockLive(e *roomEntry) bool {
	e.mu.Lock()
	if e.deleted {
		e.mu.Unlock()
		return false
	}
	return true
}

func (s *MemoryStore) GetRoomByCode(code string) (*models.Room, error) {
	e, ok := s.entryByCode(code)
	if !ok || !lockLive(e) {
		return nil, ErrRoomNotFound
	}
	room := e.room
	e.mu.Unlock()
	return &room, nil
}

func (s *MemoryStore) UpdateRoomStatus(code string, active bool) error {
	e, ok := s.entryByCode(code)
	if !ok || !lockLive(e) {
		return ErrRoomNotFound
	}
	e.room.Active = active
	e.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeleteRoom(code string) error {
	s.mu.Lock()
	e, ok := s.byCode[code]
	if ok {
		delete(s.byCode, code)
		delete(s.byID, e.room.ID)
	}
	s.mu.Unlock()
	if !ok {
		return ErrRoomNotFound
	}

	e.mu.Lock()
	e.deleted = true
	ids := make([]string, 0, len(e.members))
	for _, p := range e.members {
		ids = append(ids, p.ID)
	}
	e.members = nil
	e.mu.Unlock()

	s.mu.Lock()
	for _, id := range ids {
		delete(s.participants, id)
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) AddParticipant(roomID, deviceID string, role models.Role) (*models.Participant, bool, error) {
	e, ok := s.entryByID(roomID)
	if !ok || !lockLive(e) {
		return nil, false, ErrRoomNotFound
	}
	defer e.mu.Unlock()

	for _, p := range e.members {
		if p.DeviceID == deviceID {
			existing := *p
			return &existing, false, nil
		}
	}
	if !e.room.Active {
		return nil, false, ErrRoomInactive
	}
	if role == models.RoleHost {
		return nil, false, ErrHostAssigned
	}

	p := &models.Participant{
		ID:       uuid.NewString(),
		RoomID:   roomID,
		DeviceID: deviceID,
		Role:     role,
		JoinedAt: s.now(),
	}
	e.members = append(e.members, p)

	s.mu.Lock()
	s.participants[p.ID] = e
	s.mu.Unlock()

	created := *p
	return &created, true, nil
}

func (s *MemoryStore) GetParticipantsByRoom(roomID string) ([]models.Participant, error) {
	e, ok := s.entryByID(roomID)
	if !ok || !lockLive(e) {
		return nil, ErrRoomNotFound
	}
	defer e.mu.Unlock()

	out := make([]models.Participant, 0, len(e.members))
	for _, p := range e.members {
		out = append(out, *p)
	}
	return out, nil
}

func (s *MemoryStore) GetParticipantByDeviceAndRoom(deviceID, roomID string) (*models.Participant, error) {
	e, ok := s.entryByID(roomID)
	if !ok || !lockLive(e) {
		return nil, ErrParticipantNotFound
	}
	defer e.mu.Unlock()

	for _, p := range e.members {
		if p.DeviceID == deviceID {
			found := *p
			return &found, nil
		}
	}
	return nil, ErrParticipantNotFound
}

func (s *MemoryStore) GetParticipantByID(participantID string) (*models.Participant, error) {
	e, ok := s.entryByParticipant(participantID)
	if !ok || !lockLive(e) {
		return nil, ErrParticipantNotFound
	}
	defer e.mu.Unlock()

	if i := e.indexOf(participantID); i >= 0 {
		found := *e.members[i]
		return &found, nil
	}
	return nil, ErrParticipantNotFound
}

func (s *MemoryStore) UpdateParticipantConnection(participantID string, connected bool) error {
	e, ok := s.entryByParticipant(participantID)
	if !ok || !lockLive(e) {
		return ErrParticipantNotFound
	}
	defer e.mu.Unlock()

	i := e.indexOf(participantID)
	if i < 0 {
		return ErrParticipantNotFound
	}
	e.members[i].Connected = connected
	e.touch(s.now())
	return nil
}

func (s *MemoryStore) RemoveParticipant(participantID string) error {
	e, ok := s.entryByParticipant(participantID)
	if !ok || !lockLive(e) {
		return ErrParticipantNotFound
	}
	defer e.mu.Unlock()

	i := e.indexOf(participantID)
	if i < 0 {
		return ErrParticipantNotFound
	}
	e.members = append(e.members[:i], e.members[i+1:]...)
	e.touch(s.now())

	s.mu.Lock()
	delete(s.participants, participantID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) IdleRooms(cutoff time.Time) []models.Room {
	s.mu.RLock()
	entries := make([]*roomEntry, 0, len(s.byID))
	for _, e := range s.byID {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	var idle []models.Room
	for _, e := range entries {
		if !lockLive(e) {
			continue
		}
		if !e.idleSince.IsZero() && e.idleSince.Before(cutoff) {
			idle = append(idle, e.room)
		}
		e.mu.Unlock()
	}
	return idle
}

// indexOf must be called with e.mu held.
func (e *roomEntry) indexOf(participantID string) int {
	for i, p := range e.members {
		if p.ID == participantID {
			return i
		}
	}
	return -1
}

// touch recomputes idleSince after a membership or connection change.
// Must be called with e.mu held.
func (e *roomEntry) touch(now time.Time) {
	for _, p := range e.members {
		if p.Connected {
			e.idleSince = time.Time{}
			return
		}
	}
	if e.idleSince.IsZero() {
		e.idleSince = now
	}
}
