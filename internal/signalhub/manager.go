package signalhub

import (
	"encoding/json"
	"errors"
	"sync"

	"screencast/backend/internal/models"
	"screencast/backend/internal/storage"

	"github.com/sirupsen/logrus"
)

// RoomClosedMessage accompanies the room_closed sent to a connection whose
// join raced with the room closing.
const RoomClosedMessage = "Room has been closed"

// binding is the (room, participant) a connection joined as. It is set once
// per connection and never changed.
type binding struct {
	roomCode      string
	deviceID      string
	participantID string // as announced to the room
	storedID      string // store record, empty if the join named no known participant
	role          models.Role
}

func (b *binding) sameAs(j models.JoinRoom) bool {
	return b.roomCode == j.RoomCode && b.deviceID == j.DeviceID
}

// roomConns is the set of connections joined to one room code.
type roomConns struct {
	mu      sync.RWMutex
	clients map[Client]*binding
	retired bool // removed from ManagerService.rooms; joins must fetch a new set
}

// ManagerService tracks signaling connections, binds them to room
// participants and relays messages between connections of the same room.
type ManagerService struct {
	Storage storage.Storage

	mu      sync.RWMutex
	clients map[Client]*binding // nil binding = not joined yet
	rooms   map[string]*roomConns
}

func NewManagerService(s storage.Storage) *ManagerService {
	return &ManagerService{
		Storage: s,
		clients: make(map[Client]*binding),
		rooms:   make(map[string]*roomConns),
	}
}

// Register adds a freshly opened, unassociated connection.
func (m *ManagerService) Register(c Client) {
	m.mu.Lock()
	m.clients[c] = nil
	total := len(m.clients)
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{"remote_addr": c.RemoteAddr(), "connections": total}).Info("Signaling connection opened")
}

// HandleMessage decodes and dispatches one frame from c. It is called from
// c's read loop, so messages from one sender are handled in order.
func (m *ManagerService) HandleMessage(c Client, data []byte) {
	msg, err := Decode(data)
	if err != nil {
		logrus.WithField("remote_addr", c.RemoteAddr()).WithError(err).Warn("Dropping signaling message")
		return
	}

	switch msg := msg.(type) {
	case JoinRequest:
		m.handleJoin(c, msg.JoinRoom)
	case Handshake:
		m.handleHandshake(c, msg)
	case SharingNotice:
		m.handleSharing(c, msg)
	case Ping:
		m.send(c, models.Envelope{Type: models.TypePong})
	}
}

// Unregister releases c's association, marks its participant disconnected
// and tells the rest of the room. The participant record is kept. Nothing is
// announced while another connection still represents the same participant.
func (m *ManagerService) Unregister(c Client) {
	m.mu.Lock()
	b, known := m.clients[c]
	delete(m.clients, c)
	m.mu.Unlock()
	c.Close()

	if !known {
		return
	}
	logCtx := logrus.WithField("remote_addr", c.RemoteAddr())
	if b == nil {
		logCtx.Info("Signaling connection closed before joining")
		return
	}
	logCtx = logCtx.WithFields(logrus.Fields{
		"room_code":      b.roomCode,
		"device_id":      b.deviceID,
		"participant_id": b.participantID,
	})

	if m.detach(c, b) {
		// A newer socket represents the same participant; the room keeps
		// seeing it as connected.
		logCtx.Info("Signaling connection replaced")
		return
	}
	m.markDisconnected(logCtx, b)

	n := m.Broadcast(b.roomCode, models.NewParticipantEvent(models.TypeParticipantDisconnected, b.deviceID, b.participantID), nil)
	logCtx.WithField("notified", n).Info("Signaling connection closed")
}

// Broadcast encodes msg and queues it for every connection joined to
// roomCode except the sender. It returns the number of connections the
// message was queued for.
func (m *ManagerService) Broadcast(roomCode string, msg any, except Client) int {
	data, err := json.Marshal(msg)
	if err != nil {
		logrus.WithField("room_code", roomCode).WithError(err).Error("Failed to encode broadcast")
		return 0
	}
	return m.relay(roomCode, data, except)
}

// Connections returns how many connections are joined to roomCode.
func (m *ManagerService) Connections(roomCode string) int {
	rc := m.room(roomCode, false)
	if rc == nil {
		return 0
	}
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return len(rc.clients)
}

// CloseRoom sends msg to every connection joined to roomCode, then releases
// their association with the room. Released connections stay open and may
// join another room. It returns the number of connections notified.
func (m *ManagerService) CloseRoom(roomCode string, msg any) int {
	n := m.Broadcast(roomCode, msg, nil)

	m.mu.Lock()
	rc := m.rooms[roomCode]
	if rc == nil {
		m.mu.Unlock()
		return n
	}
	delete(m.rooms, roomCode)
	rc.mu.Lock()
	rc.retired = true
	bound := rc.clients
	rc.clients = make(map[Client]*binding)
	rc.mu.Unlock()
	for c, b := range bound {
		if m.clients[c] == b {
			m.clients[c] = nil
		}
	}
	m.mu.Unlock()

	logCtx := logrus.WithField("room_code", roomCode)
	marked := make(map[string]bool, len(bound))
	for _, b := range bound {
		if b.storedID == "" || marked[b.storedID] {
			continue
		}
		marked[b.storedID] = true
		m.markDisconnected(logCtx.WithField("participant_id", b.storedID), b)
	}
	logCtx.WithFields(logrus.Fields{"notified": n, "released": len(bound)}).Info("Room closed on signaling hub")
	return n
}

// CloseAll closes every connection, joined or not.
func (m *ManagerService) CloseAll() {
	m.mu.RLock()
	clients := make([]Client, 0, len(m.clients))
	for c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.RUnlock()

	for _, c := range clients {
		c.Close()
	}
}

func (m *ManagerService) handleJoin(c Client, j models.JoinRoom) {
	logCtx := logrus.WithFields(logrus.Fields{
		"remote_addr": c.RemoteAddr(),
		"room_code":   j.RoomCode,
		"device_id":   j.DeviceID,
	})

	m.mu.RLock()
	current, known := m.clients[c]
	m.mu.RUnlock()
	if !known {
		logCtx.Warn("Join from unregistered connection ignored")
		return
	}
	if current != nil {
		if current.sameAs(j) {
			logCtx.Debug("Repeated join ignored")
			return
		}
		logCtx.WithField("joined_room", current.roomCode).Warn("Connection already joined another room")
		m.send(c, models.NewError("Connection already joined a room"))
		return
	}

	room, err := m.Storage.GetRoomByCode(j.RoomCode)
	if err != nil || !room.Active {
		logCtx.Warn("Join rejected: room not found or inactive")
		m.send(c, models.NewError("Room not found or inactive"))
		return
	}

	b := &binding{
		roomCode:      j.RoomCode,
		deviceID:      j.DeviceID,
		participantID: j.ParticipantID,
		role:          j.Role,
	}
	if p := m.resolveParticipant(room.ID, j); p != nil {
		b.storedID = p.ID
		b.participantID = p.ID
		if p.Role != j.Role {
			logCtx.WithFields(logrus.Fields{"claimed": j.Role, "stored": p.Role}).Warn("Join role differs from stored role, using stored role")
		}
		b.role = p.Role
	}

	m.mu.Lock()
	if cur, ok := m.clients[c]; !ok || cur != nil {
		// Closed or joined concurrently.
		m.mu.Unlock()
		return
	}
	m.clients[c] = b
	m.mu.Unlock()

	for {
		rc := m.room(b.roomCode, true)
		rc.mu.Lock()
		if !rc.retired {
			rc.clients[c] = b
			rc.mu.Unlock()
			break
		}
		rc.mu.Unlock()
	}

	if b.storedID != "" {
		if err := m.Storage.UpdateParticipantConnection(b.storedID, true); err != nil {
			logCtx.WithError(err).Warn("Failed to mark participant connected")
		}
	}

	logCtx = logCtx.WithFields(logrus.Fields{"participant_id": b.participantID, "role": b.role})

	// The room may have closed after the first check, in which case its
	// room_closed broadcast did not include this connection.
	if cur, err := m.Storage.GetRoomByCode(b.roomCode); err != nil || !cur.Active || cur.ID != room.ID {
		logCtx.Warn("Room closed while joining, releasing connection")
		m.send(c, models.NewRoomClosed(RoomClosedMessage))
		m.release(logCtx, c, b)
		return
	}
	logCtx.Info("Connection joined room")

	if b.role == models.RoleViewer {
		n := m.Broadcast(b.roomCode, models.NewParticipantEvent(models.TypeParticipantJoined, b.deviceID, b.participantID), c)
		logCtx.WithField("notified", n).Debug("Announced viewer")
	}
}

// resolveParticipant finds the stored participant a join refers to, first by
// participant id and then by device.
func (m *ManagerService) resolveParticipant(roomID string, j models.JoinRoom) *models.Participant {
	if j.ParticipantID != "" {
		if p, err := m.Storage.GetParticipantByID(j.ParticipantID); err == nil && p.RoomID == roomID {
			return p
		}
	}
	if p, err := m.Storage.GetParticipantByDeviceAndRoom(j.DeviceID, roomID); err == nil {
		return p
	}
	return nil
}

func (m *ManagerService) handleHandshake(c Client, h Handshake) {
	b := m.bindingOf(c)
	if b == nil {
		logrus.WithFields(logrus.Fields{"remote_addr": c.RemoteAddr(), "type": h.kind()}).Warn("Dropping handshake from connection that has not joined a room")
		return
	}
	n := m.relay(b.roomCode, h.Raw, c)
	logrus.WithFields(logrus.Fields{
		"room_code": b.roomCode,
		"device_id": b.deviceID,
		"type":      h.kind(),
		"notified":  n,
	}).Debug("Relayed handshake")
}

func (m *ManagerService) handleSharing(c Client, s SharingNotice) {
	b := m.bindingOf(c)
	logCtx := logrus.WithFields(logrus.Fields{"remote_addr": c.RemoteAddr(), "type": s.kind()})
	if b == nil {
		logCtx.Warn("Dropping sharing notice from connection that has not joined a room")
		return
	}
	if b.role != models.RoleHost {
		logCtx.WithField("device_id", b.deviceID).Warn("Dropping sharing notice from non-host")
		return
	}

	t := models.TypeHostStoppedSharing
	if s.Started {
		t = models.TypeHostStartedSharing
	}
	m.Broadcast(b.roomCode, models.SharingEvent{Type: t, DeviceID: b.deviceID}, c)
	logCtx.WithField("room_code", b.roomCode).Info("Host sharing state changed")
}

func (m *ManagerService) bindingOf(c Client) *binding {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clients[c]
}

// room returns the connection set for code, creating it when create is set.
func (m *ManagerService) room(code string, create bool) *roomConns {
	m.mu.RLock()
	rc := m.rooms[code]
	m.mu.RUnlock()
	if rc != nil || !create {
		return rc
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if rc = m.rooms[code]; rc == nil {
		rc = &roomConns{clients: make(map[Client]*binding)}
		m.rooms[code] = rc
	}
	return rc
}

// detach removes c from its room and reports whether another connection is
// still bound to the same stored participant.
func (m *ManagerService) detach(c Client, b *binding) bool {
	rc := m.room(b.roomCode, false)
	if rc == nil {
		return false
	}

	rc.mu.Lock()
	delete(rc.clients, c)
	stillConnected := false
	if b.storedID != "" {
		for _, other := range rc.clients {
			if other.storedID == b.storedID {
				stillConnected = true
				break
			}
		}
	}
	empty := len(rc.clients) == 0
	rc.mu.Unlock()

	if empty {
		m.mu.Lock()
		rc.mu.Lock()
		// A join may have raced in since the set was seen empty.
		if len(rc.clients) == 0 && m.rooms[b.roomCode] == rc {
			delete(m.rooms, b.roomCode)
			rc.retired = true
		}
		rc.mu.Unlock()
		m.mu.Unlock()
	}
	return stillConnected
}

// release undoes a join of c made with b.
func (m *ManagerService) release(logCtx *logrus.Entry, c Client, b *binding) {
	m.mu.Lock()
	if m.clients[c] == b {
		m.clients[c] = nil
	}
	m.mu.Unlock()

	if !m.detach(c, b) {
		m.markDisconnected(logCtx, b)
	}
}

func (m *ManagerService) markDisconnected(logCtx *logrus.Entry, b *binding) {
	if b.storedID == "" {
		return
	}
	err := m.Storage.UpdateParticipantConnection(b.storedID, false)
	if err != nil && !errors.Is(err, storage.ErrParticipantNotFound) {
		logCtx.WithError(err).Error("Failed to mark participant disconnected")
	}
}

// relay queues data for every connection of the room except the sender.
// A closed or slow receiver never holds up the others.
func (m *ManagerService) relay(roomCode string, data []byte, except Client) int {
	rc := m.room(roomCode, false)
	if rc == nil {
		return 0
	}

	rc.mu.RLock()
	targets := make([]Client, 0, len(rc.clients))
	for c := range rc.clients {
		if c != except {
			targets = append(targets, c)
		}
	}
	rc.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.Enqueue(data) {
			delivered++
		}
	}
	return delivered
}

func (m *ManagerService) send(c Client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		logrus.WithField("remote_addr", c.RemoteAddr()).WithError(err).Error("Failed to encode message")
		return
	}
	c.Enqueue(data)
}
