package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore keeps records in Redis so suspended sessions survive process
// restarts. A non-zero TTL gives deployments the eviction policy the
// in-memory store deliberately lacks.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a Store backed by Redis.
func NewRedisStore(addr, password string, db int, ttl time.Duration) Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisStore{client: rdb, ttl: ttl}
}

func sessionKey(id string) string { return fmt.Sprintf("trendscout:session:%s", id) }

func (s *redisStore) Submit(ctx context.Context, rec Record) error {
	rec.UpdatedAt = time.Now().UTC()
	if rec.Decision == "" {
		rec.Decision = DecisionPending
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshalling session record: %w", err)
	}
	return s.client.Set(ctx, sessionKey(rec.SessionID), data, s.ttl).Err()
}

func (s *redisStore) Get(ctx context.Context, id string) (Record, error) {
	val, err := s.client.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return Record{}, ErrSessionNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("fetching session record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshalling session record: %w", err)
	}
	return rec, nil
}

// Decide uses WATCH so a concurrent Submit on the same key can never be
// silently overwritten by a stale read-modify-write.
func (s *redisStore) Decide(ctx context.Context, id string, decision Decision, refinement string) (Record, error) {
	var out Record
	key := sessionKey(id)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		var rec Record
		if err := json.Unmarshal([]byte(val), &rec); err != nil {
			return fmt.Errorf("unmarshalling session record: %w", err)
		}
		applyDecision(&rec, decision, refinement)
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		out = rec
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

func (s *redisStore) SetIdeas(ctx context.Context, id string, ideas map[string][]string) error {
	key := sessionKey(id)
	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		var rec Record
		if err := json.Unmarshal([]byte(val), &rec); err != nil {
			return fmt.Errorf("unmarshalling session record: %w", err)
		}
		rec.Ideas = ideas
		rec.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)
}
