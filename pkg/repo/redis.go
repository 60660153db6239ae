package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ksysoev/wikiview/pkg/prov"
	"github.com/redis/go-redis/v9"
)

const tokenKey = "tenant_access_token"

type Config struct {
	RedisAddr string `mapstructure:"redis_addr"`
	Password  string `mapstructure:"redis_password"`
	KeyPrefix string `mapstructure:"key_prefix"`
	DB        int    `mapstructure:"redis_db"`
}

// RedisTokens keeps the access token in Redis so that several instances share one token.
type RedisTokens struct {
	db  *redis.Client
	key string
}

// NewRedisTokens initializes a Redis backed token store configured with the provided Config.
func NewRedisTokens(cfg Config) *RedisTokens {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisTokens{
		db:  rdb,
		key: cfg.KeyPrefix + tokenKey,
	}
}

// Close terminates the connection to the Redis database.
func (r *RedisTokens) Close() error {
	return r.db.Close()
}

// Load returns the stored token. The second result is false when no token is stored.
func (r *RedisTokens) Load(ctx context.Context) (prov.Token, bool, error) {
	data, err := r.db.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return prov.Token{}, false, nil
	}

	if err != nil {
		return prov.Token{}, false, fmt.Errorf("failed to get token: %w", err)
	}

	var tkn prov.Token
	if err := json.Unmarshal(data, &tkn); err != nil {
		return prov.Token{}, false, fmt.Errorf("failed to decode token: %w", err)
	}

	return tkn, true, nil
}

// Save stores tkn until its expiration time. An already expired token removes the stored one.
func (r *RedisTokens) Save(ctx context.Context, tkn prov.Token) error {
	ttl := time.Until(tkn.ExpiresAt)
	if ttl <= 0 {
		return r.Delete(ctx)
	}

	data, err := json.Marshal(tkn)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := r.db.Set(ctx, r.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

// Delete removes the stored token, if any.
func (r *RedisTokens) Delete(ctx context.Context) error {
	if err := r.db.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	return nil
}
