// Package settings persists the shop configuration used when rendering
// receipts. The whole configuration is stored as one document.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/shop-scan-print/internal/domain"
	"github.com/redis/go-redis/v9"
)

const settingsKey = "pos-settings"

type Store interface {
	Load(ctx context.Context) (domain.ShopConfig, error)
	Save(ctx context.Context, cfg domain.ShopConfig) error
}

// RedisStore returns defaults until the first Save.
type RedisStore struct {
	client   *redis.Client
	defaults domain.ShopConfig
}

func NewRedisStore(client *redis.Client, defaults domain.ShopConfig) *RedisStore {
	return &RedisStore{client: client, defaults: defaults}
}

func (s *RedisStore) Load(ctx context.Context) (domain.ShopConfig, error) {
	data, err := s.client.Get(ctx, settingsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return s.defaults, nil
	}
	if err != nil {
		return domain.ShopConfig{}, fmt.Errorf("redis get failed: %w", err)
	}

	cfg := s.defaults
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.ShopConfig{}, fmt.Errorf("unmarshal settings failed: %w", err)
	}
	return cfg, nil
}

func (s *RedisStore) Save(ctx context.Context, cfg domain.ShopConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings failed: %w", err)
	}
	if err := s.client.Set(ctx, settingsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

type MemoryStore struct {
	mu  sync.RWMutex
	cfg domain.ShopConfig
}

func NewMemoryStore(defaults domain.ShopConfig) *MemoryStore {
	return &MemoryStore{cfg: defaults}
}

func (s *MemoryStore) Load(_ context.Context) (domain.ShopConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, nil
}

func (s *MemoryStore) Save(_ context.Context, cfg domain.ShopConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	return nil
}
