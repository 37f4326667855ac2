package models

// SignalType is the discriminator carried in the "type" field of every
// signaling message.
type SignalType string

// Client to server.
const (
	TypeJoinRoom     SignalType = "join_room"
	TypeOffer        SignalType = "webrtc_offer"
	TypeAnswer       SignalType = "webrtc_answer"
	TypeICECandidate SignalType = "webrtc_ice_candidate"
	TypeShareStarted SignalType = "screen_share_started"
	TypeShareStopped SignalType = "screen_share_stopped"
	TypePing         SignalType = "ping"
)

// Server to client.
const (
	TypePong                    SignalType = "pong"
	TypeParticipantJoined       SignalType = "participant_joined"
	TypeParticipantLeft         SignalType = "participant_left"
	TypeParticipantDisconnected SignalType = "participant_disconnected"
	TypeHostStartedSharing      SignalType = "host_started_sharing"
	TypeHostStoppedSharing      SignalType = "host_stopped_sharing"
	TypeRoomClosed              SignalType = "room_closed"
	TypeError                   SignalType = "error"
)

// IsHandshake reports whether t is one of the peer negotiation messages that
// are relayed verbatim.
func (t SignalType) IsHandshake() bool {
	return t == TypeOffer || t == TypeAnswer || t == TypeICECandidate
}

// Envelope holds the fields shared by all signaling messages.
type Envelope struct {
	Type SignalType `json:"type"`
}

// JoinRoom associates a signaling connection with a room participant.
type JoinRoom struct {
	Type          SignalType `json:"type"`
	RoomCode      string     `json:"roomCode"`
	DeviceID      string     `json:"deviceId"`
	ParticipantID string     `json:"participantId"`
	Role          Role       `json:"role"`
}

// ParticipantEvent announces a membership change to the rest of a room.
type ParticipantEvent struct {
	Type          SignalType `json:"type"`
	DeviceID      string     `json:"deviceId"`
	ParticipantID string     `json:"participantId"`
}

// SharingEvent tells viewers that the host started or stopped sharing.
type SharingEvent struct {
	Type     SignalType `json:"type"`
	DeviceID string     `json:"deviceId"`
}

// Notice carries a human-readable message (room_closed, error).
type Notice struct {
	Type    SignalType `json:"type"`
	Message string     `json:"message"`
}

func NewParticipantEvent(t SignalType, deviceID, participantID string) ParticipantEvent {
	return ParticipantEvent{Type: t, DeviceID: deviceID, ParticipantID: participantID}
}

func NewRoomClosed(message string) Notice {
	return Notice{Type: TypeRoomClosed, Message: message}
}

func NewError(message string) Notice {
	return Notice{Type: TypeError, Message: message}
}
