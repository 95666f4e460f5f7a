package auth

import (
	"context"
	"fmt"

	"perfect-recipe/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
)

// RedisStore 以 Redis 保存憑證
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 創建 Redis 憑證儲存並測試連線
func NewRedisStore(ctx context.Context, cfg config.CredentialsConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisStore(client, cfg.RedisPrefix), nil
}

func newRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// key 生成 Redis 鍵
func (s *RedisStore) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return fmt.Sprintf("%s:%s", s.prefix, name)
}

func (s *RedisStore) get(ctx context.Context, name string) (string, error) {
	val, err := s.client.Get(ctx, s.key(name)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return val, nil
}

func (s *RedisStore) Access(ctx context.Context) (string, error) {
	return s.get(ctx, KeyAccessToken)
}

func (s *RedisStore) Refresh(ctx context.Context) (string, error) {
	return s.get(ctx, KeyRefreshToken)
}

func (s *RedisStore) SetAccess(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key(KeyAccessToken), token, 0).Err(); err != nil {
		return fmt.Errorf("failed to write access token: %w", err)
	}
	return nil
}

func (s *RedisStore) Save(ctx context.Context, access, refresh string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(KeyAccessToken), access, 0)
		pipe.Set(ctx, s.key(KeyRefreshToken), refresh, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key(KeyAccessToken), s.key(KeyRefreshToken)).Err(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
