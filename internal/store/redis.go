package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playperu/cityclicker/internal/round"
)

const redisKeyPrefix = "cityclicker:session:"

// RedisStore keeps sessions as JSON strings that expire after ttl without
// a load or save.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, token string, st round.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, redisKey(token), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	if !ok {
		return fmt.Errorf("creating session: key already exists")
	}
	return nil
}

// Load refreshes the session TTL as well as reading it.
func (s *RedisStore) Load(ctx context.Context, token string) (round.State, error) {
	data, err := s.rdb.GetEx(ctx, redisKey(token), s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return round.State{}, ErrNotFound
	}
	if err != nil {
		return round.State{}, fmt.Errorf("loading session: %w", err)
	}

	var st round.State
	if err := json.Unmarshal(data, &st); err != nil {
		return round.State{}, fmt.Errorf("decoding session: %w", err)
	}
	return st, nil
}

func (s *RedisStore) Save(ctx context.Context, token string, st round.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	// XX: only overwrite a session that has not expired meanwhile.
	ok, err := s.rdb.SetXX(ctx, redisKey(token), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func redisKey(token string) string {
	return redisKeyPrefix + sessionKey(token)
}
