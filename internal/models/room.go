package models

import (
	"strings"
	"time"
)

// Room is a screen sharing session identified by a short code.
// It is owned by exactly one host participant and joined by any number of viewers.
type Room struct {
	// ID is the opaque, server-generated identifier (UUID).
	ID string `json:"id"`
	// Code is the 6-character uppercase alphanumeric code shared with viewers.
	Code string `json:"code"`
	// HostDeviceID is the device that created the room.
	HostDeviceID string `json:"hostId"`
	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"createdAt"`
	// Active is false once the host has left the room.
	Active bool `json:"isActive"`
}

// CodeLength is the length of every room code.
const CodeLength = 6

// CodeAlphabet lists the characters a room code is drawn from.
const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// IsValidCode reports whether code has the shape of a room code.
func IsValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// NormalizeCode trims and upper-cases a user-typed room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
