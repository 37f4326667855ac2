package signalhub

import (
	"encoding/json"
	"errors"
	"fmt"

	"screencast/backend/internal/models"
)

// ErrProtocol marks a malformed or unrecognized signaling message.
var ErrProtocol = errors.New("protocol error")

// Inbound is a decoded client message. The concrete type is one of
// JoinRequest, Handshake, SharingNotice or Ping.
type Inbound interface {
	kind() models.SignalType
}

type JoinRequest struct {
	models.JoinRoom
}

// Handshake is an offer, answer or ICE candidate. Raw is the message exactly
// as received and is relayed without re-encoding.
type Handshake struct {
	Kind models.SignalType
	Raw  []byte
}

type SharingNotice struct {
	Started bool
}

type Ping struct{}

func (JoinRequest) kind() models.SignalType { return models.TypeJoinRoom }
func (h Handshake) kind() models.SignalType { return h.Kind }
func (n SharingNotice) kind() models.SignalType {
	if n.Started {
		return models.TypeShareStarted
	}
	return models.TypeShareStopped
}
func (Ping) kind() models.SignalType { return models.TypePing }

// Decode parses one websocket frame. Errors wrap ErrProtocol.
func Decode(data []byte) (Inbound, error) {
	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	switch t := env.Type; {
	case t == models.TypeJoinRoom:
		var join JoinRequest
		if err := json.Unmarshal(data, &join.JoinRoom); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
		}
		join.RoomCode = models.NormalizeCode(join.RoomCode)
		if err := validateJoin(join.JoinRoom); err != nil {
			return nil, err
		}
		return join, nil
	case t.IsHandshake():
		return Handshake{Kind: t, Raw: data}, nil
	case t == models.TypeShareStarted, t == models.TypeShareStopped:
		return SharingNotice{Started: t == models.TypeShareStarted}, nil
	case t == models.TypePing:
		return Ping{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown message type %q", ErrProtocol, t)
	}
}

func validateJoin(j models.JoinRoom) error {
	switch {
	case !models.IsValidCode(j.RoomCode):
		return fmt.Errorf("%w: invalid room code %q", ErrProtocol, j.RoomCode)
	case j.DeviceID == "":
		return fmt.Errorf("%w: deviceId is required", ErrProtocol)
	case !j.Role.Valid():
		return fmt.Errorf("%w: invalid role %q", ErrProtocol, j.Role)
	}
	return nil
}
