package service

import (
	"context"
	"errors"
	"time"

	"screencast/backend/internal/models"
	"screencast/backend/internal/storage"

	"github.com/sirupsen/logrus"
)

// ExpiredMessage is sent to any socket left in a room the janitor removes.
const ExpiredMessage = "Room closed after inactivity"

// Janitor deletes rooms that have had no connected participant for longer
// than TTL.
type Janitor struct {
	Store    storage.Storage
	Hub      Broadcaster
	TTL      time.Duration
	Interval time.Duration

	// Now must read the same clock the store stamps idle times with.
	Now func() time.Time
}

func NewJanitor(store storage.Storage, hub Broadcaster, ttl, interval time.Duration) *Janitor {
	return &Janitor{Store: store, Hub: hub, TTL: ttl, Interval: interval, Now: time.Now}
}

// Run sweeps every Interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	if j.TTL <= 0 || j.Interval <= 0 {
		logrus.Info("Room janitor disabled")
		return
	}
	logrus.WithFields(logrus.Fields{"ttl": j.TTL, "interval": j.Interval}).Info("Room janitor started")

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Room janitor stopped")
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Sweep deletes idle rooms once and returns how many were removed.
func (j *Janitor) Sweep() int {
	now := j.Now
	if now == nil {
		now = time.Now
	}
	cutoff := now().Add(-j.TTL)
	removed := 0
	for _, room := range j.Store.IdleRooms(cutoff) {
		logCtx := logrus.WithFields(logrus.Fields{"room_code": room.Code, "active": room.Active})
		if err := j.Store.DeleteRoom(room.Code); err != nil {
			if !errors.Is(err, storage.ErrRoomNotFound) {
				logCtx.WithError(err).Error("Failed to delete idle room")
			}
			continue
		}
		removed++
		n := 0
		if j.Hub != nil {
			n = j.Hub.CloseRoom(room.Code, models.NewRoomClosed(ExpiredMessage))
		}
		logCtx.WithField("notified", n).Info("Idle room removed")
	}
	return removed
}
