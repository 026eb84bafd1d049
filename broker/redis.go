package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/FlorianRuen/skillsync/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// only the holder of the token may release a lock
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisBroker struct {
	rdb *redis.Client

	mu     sync.Mutex
	tokens map[string]string
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb, tokens: make(map[string]string)}
}

func (b *RedisBroker) TryLock(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()

	ok, err := b.rdb.SetNX(ctx, lockKey(userID), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring sync lock of %s: %w", userID, err)
	}
	if !ok {
		return false, nil
	}

	b.mu.Lock()
	b.tokens[userID] = token
	b.mu.Unlock()
	return true, nil
}

func (b *RedisBroker) Unlock(ctx context.Context, userID string) error {
	b.mu.Lock()
	token, ok := b.tokens[userID]
	delete(b.tokens, userID)
	b.mu.Unlock()

	if !ok {
		return nil
	}

	if err := unlockScript.Run(ctx, b.rdb, []string{lockKey(userID)}, token).Err(); err != nil {
		return fmt.Errorf("releasing sync lock of %s: %w", userID, err)
	}
	return nil
}

func (b *RedisBroker) PublishProfileUpdated(ctx context.Context, event model.ProfileUpdatedEvent) error {
	event.Type = ProfileUpdatedType

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", ProfileUpdatedType, err)
	}

	if err := b.rdb.Publish(ctx, ProfileUpdatedChannel, payload).Err(); err != nil {
		return fmt.Errorf("publishing %s event: %w", ProfileUpdatedType, err)
	}

	brokerLog.WithFields(log.Fields{
		"user_id":     event.UserID,
		"skill_count": event.SkillCount,
		"new_skills":  len(event.NewSkills),
	}).Debug("Profile update published")
	return nil
}

func (b *RedisBroker) Close() error {
	return b.rdb.Close()
}
