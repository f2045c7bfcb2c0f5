package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cliplink/cliplink/internal/model"
)

// redisKeyPrefix namespaces session keys in Redis.
const redisKeyPrefix = "deeplink:session:"

// RedisStore shares sessions across engine instances. Expiry is
// enforced twice: the manager checks lastActivity, and Redis TTLs evict
// the key shortly after.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisStore creates a Redis-backed session store. The timeout is
// used as the key TTL.
func NewRedisStore(client *redis.Client, timeout time.Duration) *RedisStore {
	return &RedisStore{client: client, timeout: timeout}
}

// Get returns the session for the id, if present.
func (s *RedisStore) Get(ctx context.Context, id string) (*model.Session, bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get session: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, false, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, true, nil
}

// Put inserts or replaces the session, refreshing its TTL.
func (s *RedisStore) Put(ctx context.Context, sess *model.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.ID, err)
	}
	// TTL runs slightly past the logical timeout so Stats can still see
	// recently expired sessions before Redis evicts them.
	ttl := s.timeout + time.Minute
	if err := s.client.Set(ctx, redisKeyPrefix+sess.ID, data, ttl).Err(); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// Delete removes the session if present.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Sweep is mostly delegated to Redis TTLs; it additionally removes
// sessions the TTL grace period still holds.
func (s *RedisStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	err := s.scan(ctx, func(sess *model.Session) error {
		if sess.Expired(cutoff) {
			if err := s.Delete(ctx, sess.ID); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// Stats counts sessions, classifying by the cutoff.
func (s *RedisStore) Stats(ctx context.Context, cutoff time.Time) (Stats, error) {
	var stats Stats
	err := s.scan(ctx, func(sess *model.Session) error {
		stats.Total++
		if sess.Expired(cutoff) {
			stats.Expired++
		} else {
			stats.Active++
		}
		return nil
	})
	return stats, err
}

func (s *RedisStore) scan(ctx context.Context, fn func(*model.Session) error) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		id := iter.Val()[len(redisKeyPrefix):]
		sess, ok, err := s.Get(ctx, id)
		if err != nil || !ok {
			continue
		}
		if err := fn(sess); err != nil {
			return err
		}
	}
	return iter.Err()
}
