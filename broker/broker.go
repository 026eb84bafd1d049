// Package broker coordinates sync runs across processes and announces
// profile updates to downstream consumers.
package broker

import (
	"context"
	"time"

	"github.com/FlorianRuen/skillsync/logger"
	"github.com/FlorianRuen/skillsync/model"
)

var brokerLog = logger.Component("broker")

const (
	// ProfileUpdatedChannel receives a model.ProfileUpdatedEvent each time a profile is written
	ProfileUpdatedChannel = "skillsync:profile.updated"
	ProfileUpdatedType    = "profile.updated"

	lockKeyPrefix = "skillsync:sync-lock:"
)

// Broker holds per-user sync locks and publishes profile events
type Broker interface {
	// TryLock acquires the sync lock of userID, returning false when another run holds it
	TryLock(ctx context.Context, userID string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, userID string) error
	PublishProfileUpdated(ctx context.Context, event model.ProfileUpdatedEvent) error
	Close() error
}

func lockKey(userID string) string {
	return lockKeyPrefix + userID
}
