package models

import "time"

// Role is the part a participant plays in a room.
type Role string

const (
	RoleHost   Role = "host"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleHost || r == RoleViewer
}

// Participant is a device's membership in a room.
type Participant struct {
	// ID is the opaque participant identifier (UUID).
	ID string `json:"id"`
	// RoomID references the owning Room.
	RoomID string `json:"roomId"`
	// DeviceID is supplied by the client and is unique within the room.
	DeviceID string `json:"deviceId"`
	// Role is fixed when the participant is created.
	Role Role `json:"role"`
	// Connected is true while a signaling socket is joined for this participant.
	Connected bool `json:"isConnected"`
	// JoinedAt is the time the participant was created.
	JoinedAt time.Time `json:"joinedAt"`
}

// IsHost reports whether the participant owns its room.
func (p *Participant) IsHost() bool {
	return p.Role == RoleHost
}
