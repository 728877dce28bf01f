package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/you/missionlog/domain"
)

const pendingKeyPrefix = "otp:pending:"

// consumeScript deletes the key only while it still holds the expected value
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisPendingStore implements domain.PendingRegistrationStore on Redis.
// Each record is a JSON value whose key expires after the retention window.
type RedisPendingStore struct {
	client    redis.UniversalClient
	retention time.Duration
}

// NewRedisPendingStore creates a redis-backed store
func NewRedisPendingStore(client redis.UniversalClient, retention time.Duration) *RedisPendingStore {
	return &RedisPendingStore{client: client, retention: retention}
}

func pendingKey(email string) string {
	return pendingKeyPrefix + domain.NormalizeEmail(email)
}

// Save implements domain.PendingRegistrationStore
func (s *RedisPendingStore) Save(ctx context.Context, record *domain.PendingRegistration) error {
	payload, err := encodePending(record)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, pendingKey(record.Email), payload, s.retention).Err(); err != nil {
		return fmt.Errorf("failed to store pending registration: %w", err)
	}
	return nil
}

// Find implements domain.PendingRegistrationStore
func (s *RedisPendingStore) Find(ctx context.Context, email string) (*domain.PendingRegistration, error) {
	payload, err := s.client.Get(ctx, pendingKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNoPendingRegistration
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending registration: %w", err)
	}

	var rec domain.PendingRegistration
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return nil, fmt.Errorf("corrupt pending registration: %w", err)
	}
	return &rec, nil
}

// Delete implements domain.PendingRegistrationStore
func (s *RedisPendingStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, pendingKey(email)).Err()
}

// Consume implements domain.PendingRegistrationStore
func (s *RedisPendingStore) Consume(ctx context.Context, record *domain.PendingRegistration) (bool, error) {
	payload, err := encodePending(record)
	if err != nil {
		return false, err
	}
	n, err := consumeScript.Run(ctx, s.client, []string{pendingKey(record.Email)}, payload).Int()
	if err != nil {
		return false, fmt.Errorf("failed to consume pending registration: %w", err)
	}
	return n == 1, nil
}

// encodePending produces the canonical stored form, so Consume can compare bytes
func encodePending(record *domain.PendingRegistration) (string, error) {
	rec := *record
	rec.Email = domain.NormalizeEmail(rec.Email)
	rec.IssuedAt = rec.IssuedAt.UTC()

	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to encode pending registration: %w", err)
	}
	return string(b), nil
}

// Compile-time interface compliance verification
var _ domain.PendingRegistrationStore = (*RedisPendingStore)(nil)
