package signalhub_test

import (
	"testing"

	"screencast/backend/internal/models"
	"screencast/backend/internal/signalhub"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	offer := []byte(`{"type":"webrtc_offer","offer":{"type":"offer","sdp":"v=0"},"roomCode":"AB12C3"}`)

	tests := []struct {
		name string
		in   []byte
		want signalhub.Inbound
	}{
		{
			name: "join",
			in:   []byte(`{"type":"join_room","roomCode":"AB12C3","deviceId":"d1","participantId":"p1","role":"viewer"}`),
			want: signalhub.JoinRequest{JoinRoom: models.JoinRoom{
				Type: models.TypeJoinRoom, RoomCode: "AB12C3", DeviceID: "d1", ParticipantID: "p1", Role: models.RoleViewer,
			}},
		},
		{
			name: "join with lowercase code",
			in:   []byte(`{"type":"join_room","roomCode":" ab12c3 ","deviceId":"d1","role":"viewer"}`),
			want: signalhub.JoinRequest{JoinRoom: models.JoinRoom{
				Type: models.TypeJoinRoom, RoomCode: "AB12C3", DeviceID: "d1", Role: models.RoleViewer,
			}},
		},
		{
			name: "offer keeps raw bytes",
			in:   offer,
			want: signalhub.Handshake{Kind: models.TypeOffer, Raw: offer},
		},
		{
			name: "answer",
			in:   []byte(`{"type":"webrtc_answer","answer":{}}`),
			want: signalhub.Handshake{Kind: models.TypeAnswer, Raw: []byte(`{"type":"webrtc_answer","answer":{}}`)},
		},
		{
			name: "candidate",
			in:   []byte(`{"type":"webrtc_ice_candidate","candidate":{}}`),
			want: signalhub.Handshake{Kind: models.TypeICECandidate, Raw: []byte(`{"type":"webrtc_ice_candidate","candidate":{}}`)},
		},
		{name: "share started", in: []byte(`{"type":"screen_share_started"}`), want: signalhub.SharingNotice{Started: true}},
		{name: "share stopped", in: []byte(`{"type":"screen_share_stopped"}`), want: signalhub.SharingNotice{Started: false}},
		{name: "ping", in: []byte(`{"type":"ping"}`), want: signalhub.Ping{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := signalhub.Decode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_ProtocolErrors(t *testing.T) {
	tests := map[string]string{
		"not json":         `hello`,
		"unknown type":     `{"type":"teleport"}`,
		"missing type":     `{"roomCode":"AB12C3"}`,
		"wrong field type": `{"type":"join_room","roomCode":42}`,
		"bad room code":    `{"type":"join_room","roomCode":"ab12","deviceId":"d1","role":"viewer"}`,
		"missing device":   `{"type":"join_room","roomCode":"AB12C3","role":"viewer"}`,
		"bad role":         `{"type":"join_room","roomCode":"AB12C3","deviceId":"d1","role":"admin"}`,
	}

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := signalhub.Decode([]byte(in))
			assert.ErrorIs(t, err, signalhub.ErrProtocol)
			assert.Nil(t, got)
		})
	}
}
