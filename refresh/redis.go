package refresh

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces refresh credential keys.
const DefaultRedisPrefix = "brt"

// RedisStore is a Redis-backed [Store]. Keys are derived from a SHA-256 digest of
// the value so token material never appears in the keyspace, and expire after ttl.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a [RedisStore]. An empty prefix uses DefaultRedisPrefix;
// a non-positive ttl stores keys without expiry.
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{redis: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(value string) string {
	sum := sha256.Sum256([]byte(value))
	return s.prefix + ":" + hex.EncodeToString(sum[:])
}

// Add stores cred with SETNX.
//
//	Performance: 1 Redis command.
func (s *RedisStore) Add(ctx context.Context, cred Credential) error {
	if err := validate(cred); err != nil {
		return err
	}

	ok, err := s.redis.SetNX(ctx, s.key(cred.Value), encodeCredential(cred), s.ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return ErrDuplicateCredential
	}
	return nil
}

// FindByValue implements [Store].
//
//	Performance: 1 Redis GET.
func (s *RedisStore) FindByValue(ctx context.Context, value string) (Credential, error) {
	if value == "" {
		return Credential{}, ErrNotFound
	}

	data, err := s.redis.Get(ctx, s.key(value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Credential{}, ErrNotFound
		}
		return Credential{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return decodeCredential(value, data)
}

// DeleteByValue implements [Store].
//
//	Performance: 1 Redis DEL.
func (s *RedisStore) DeleteByValue(ctx context.Context, value string) error {
	if value == "" {
		return nil
	}
	if err := s.redis.Del(ctx, s.key(value)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
