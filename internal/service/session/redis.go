package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zhouzirui/investor-interview/backend/internal/model/interview"
)

const defaultRedisPrefix = "interview:session"

// RedisStore keeps envelopes as plain string values with an optional expiry.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. An empty prefix uses "interview:session".
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

func (r *RedisStore) key(slot string) string {
	return fmt.Sprintf("%s:%s", r.prefix, slot)
}

// Load returns the envelope stored under slot.
func (r *RedisStore) Load(ctx context.Context, slot string) (interview.Session, error) {
	if err := ValidateSlot(slot); err != nil {
		return interview.Session{}, err
	}
	payload, err := r.client.Get(ctx, r.key(slot)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return interview.Session{}, ErrSessionNotFound
		}
		return interview.Session{}, fmt.Errorf("load slot %s: %w", slot, err)
	}
	return decode(slot, payload)
}

// Save replaces the envelope under slot and refreshes its expiry.
func (r *RedisStore) Save(ctx context.Context, slot string, s interview.Session) error {
	rec, err := encode(slot, s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(slot), rec.payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save slot %s: %w", slot, err)
	}
	return nil
}

// Clear removes the envelope under slot.
func (r *RedisStore) Clear(ctx context.Context, slot string) error {
	if err := ValidateSlot(slot); err != nil {
		return err
	}
	if err := r.client.Del(ctx, r.key(slot)).Err(); err != nil {
		return fmt.Errorf("clear slot %s: %w", slot, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
