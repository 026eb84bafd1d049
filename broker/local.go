package broker

import (
	"context"
	"sync"
	"time"

	"github.com/FlorianRuen/skillsync/model"
	log "github.com/sirupsen/logrus"
)

// LocalBroker keeps locks in memory, for single-process deployments without redis.
// Published events are only logged.
type LocalBroker struct {
	mu    sync.Mutex
	locks map[string]time.Time
	now   func() time.Time
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{locks: make(map[string]time.Time), now: time.Now}
}

func (b *LocalBroker) TryLock(_ context.Context, userID string, ttl time.Duration) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if expiresAt, held := b.locks[userID]; held && now.Before(expiresAt) {
		return false, nil
	}

	b.locks[userID] = now.Add(ttl)
	return true, nil
}

func (b *LocalBroker) Unlock(_ context.Context, userID string) error {
	b.mu.Lock()
	delete(b.locks, userID)
	b.mu.Unlock()
	return nil
}

func (b *LocalBroker) PublishProfileUpdated(_ context.Context, event model.ProfileUpdatedEvent) error {
	brokerLog.WithFields(log.Fields{
		"user_id":          event.UserID,
		"experience_level": event.ExperienceLevel,
		"skill_count":      event.SkillCount,
		"new_skills":       len(event.NewSkills),
	}).Debug("Profile updated")
	return nil
}

func (b *LocalBroker) Close() error {
	return nil
}
