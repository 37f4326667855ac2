package client

import (
	"screencast/backend/internal/models"

	"github.com/pion/webrtc/v4"
)

type offerMessage struct {
	Type     models.SignalType         `json:"type"`
	Offer    webrtc.SessionDescription `json:"offer"`
	RoomCode string                    `json:"roomCode,omitempty"`
}

type answerMessage struct {
	Type   models.SignalType         `json:"type"`
	Answer webrtc.SessionDescription `json:"answer"`
}

type candidateMessage struct {
	Type      models.SignalType       `json:"type"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

func (d *Driver) SendOffer(roomCode string, offer webrtc.SessionDescription) error {
	return d.SendJSON(offerMessage{Type: models.TypeOffer, Offer: offer, RoomCode: roomCode})
}

func (d *Driver) SendAnswer(answer webrtc.SessionDescription) error {
	return d.SendJSON(answerMessage{Type: models.TypeAnswer, Answer: answer})
}

func (d *Driver) SendICECandidate(candidate webrtc.ICECandidateInit) error {
	return d.SendJSON(candidateMessage{Type: models.TypeICECandidate, Candidate: candidate})
}

func (d *Driver) StartSharing() error {
	return d.SendJSON(models.Envelope{Type: models.TypeShareStarted})
}

func (d *Driver) StopSharing() error {
	return d.SendJSON(models.Envelope{Type: models.TypeShareStopped})
}

// Event is a decoded server message. Only the fields of its Type are set.
type Event struct {
	Type          models.SignalType          `json:"type"`
	DeviceID      string                     `json:"deviceId,omitempty"`
	ParticipantID string                     `json:"participantId,omitempty"`
	Message       string                     `json:"message,omitempty"`
	RoomCode      string                     `json:"roomCode,omitempty"`
	Offer         *webrtc.SessionDescription `json:"offer,omitempty"`
	Answer        *webrtc.SessionDescription `json:"answer,omitempty"`
	Candidate     *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
}
