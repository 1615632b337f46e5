package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"idverify/internal/settings/models"
	"idverify/pkg/platform/sentinel"
)

const (
	settingsKey       = "settings:verification"
	maxUpdateAttempts = 10
)

// RedisStore keeps the snapshot as one JSON value so every replica reads the
// same policy. Writes use WATCH/MULTI so a concurrent admin edit is retried
// instead of lost.
type RedisStore struct {
	client   redis.UniversalClient
	key      string
	defaults models.Snapshot
}

// NewRedisStore serves defaults until the first write.
func NewRedisStore(client redis.UniversalClient, keyPrefix string, defaults models.Snapshot) *RedisStore {
	return &RedisStore{client: client, key: keyPrefix + settingsKey, defaults: defaults.Clone()}
}

func (s *RedisStore) Load(ctx context.Context) (models.Snapshot, error) {
	return s.read(ctx, s.client)
}

func (s *RedisStore) Update(ctx context.Context, fn Mutator) (models.Snapshot, error) {
	var result models.Snapshot
	txf := func(tx *redis.Tx) error {
		cur, err := s.read(ctx, tx)
		if err != nil {
			return err
		}
		next, err := fn(cur.Clone())
		if err != nil {
			return err
		}
		next.Revision = cur.Revision + 1
		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode settings: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, payload, 0)
			return nil
		})
		if err == nil {
			result = next
		}
		return err
	}

	for range maxUpdateAttempts {
		err := s.client.Watch(ctx, txf, s.key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return models.Snapshot{}, err
	}
	return models.Snapshot{}, fmt.Errorf("update settings after %d attempts: %w", maxUpdateAttempts, sentinel.ErrConflict)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) read(ctx context.Context, c getter) (models.Snapshot, error) {
	raw, err := c.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return s.defaults.Clone(), nil
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("read settings: %w: %w", sentinel.ErrUnavailable, err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode settings: %w", err)
	}
	return snap, nil
}
