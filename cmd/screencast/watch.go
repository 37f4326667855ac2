package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"screencast/backend/internal/client"
	"screencast/backend/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <code>",
	Short: "Join a room as a viewer and print its signaling events",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return watch(ctx, args[0])
	},
}

func watch(ctx context.Context, code string) error {
	device := flagDevice
	if device == "" {
		device = "cli_" + uuid.NewString()[:8]
	}

	api := client.NewAPI(flagServer)
	room, p, err := api.JoinRoom(ctx, code, device)
	if err != nil {
		return err
	}
	wsURL, err := api.SignalingURL()
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	d := client.NewDriver(wsURL, client.WebSocketTransport{})
	d.OnStateChange = func(s client.State) {
		logrus.WithField("state", s).Info("Signaling state changed")
		if s == client.StateGivenUp {
			select {
			case done <- fmt.Errorf("gave up reconnecting to %s", wsURL):
			default:
			}
		}
	}
	d.OnMessage = func(data []byte) {
		var evt client.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			logrus.WithError(err).Warn("Unreadable signaling message")
			return
		}
		logrus.WithFields(logrus.Fields{
			"type":           evt.Type,
			"device_id":      evt.DeviceID,
			"participant_id": evt.ParticipantID,
			"message":        evt.Message,
		}).Info("Signaling event")
		if evt.Type == models.TypeRoomClosed {
			select {
			case done <- nil:
			default:
			}
		}
	}

	// A failed first dial is retried by the driver.
	if err := d.Connect(ctx); err != nil {
		logrus.WithError(err).Warn("Initial connection failed, retrying")
	}
	defer d.Disconnect()
	if err := d.Join(room.Code, device, p.ID, p.Role); err != nil {
		logrus.WithError(err).Debug("Join deferred until connected")
	}
	logrus.WithFields(logrus.Fields{"room_code": room.Code, "device_id": device, "role": p.Role}).Info("Watching room, Ctrl+C to leave")

	select {
	case err = <-done:
	case <-ctx.Done():
	}

	leaveCtx := context.WithoutCancel(ctx)
	if leaveErr := api.LeaveRoom(leaveCtx, room.Code, device); leaveErr != nil {
		logrus.WithError(leaveErr).Warn("Failed to leave room")
	}
	return err
}

func init() {
	watchCmd.Flags().StringVar(&flagDevice, "device", "", "device id (random if empty)")
}
