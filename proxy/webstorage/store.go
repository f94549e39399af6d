/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package webstorage

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"
)

// Store is the string key/value space a web storage proxy writes to.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SessionStore keeps values in process memory for the life of the process, or
// until they expire.
type SessionStore struct {
	cache      *cache.Cache
	expiration time.Duration
}

// NewSessionStore returns a session store. A zero expiration keeps values forever.
func NewSessionStore(expiration time.Duration) *SessionStore {
	if expiration <= 0 {
		expiration = cache.NoExpiration
	}
	return &SessionStore{
		cache:      cache.New(expiration, 10*time.Minute),
		expiration: expiration,
	}
}

func (s *SessionStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return "", false, nil
	}
	str, _ := v.(string)
	return str, true, nil
}

func (s *SessionStore) Set(_ context.Context, key, value string) error {
	s.cache.Set(key, value, s.expiration)
	return nil
}

func (s *SessionStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

// RedisClient is the part of the go-redis client LocalStore uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// LocalStore persists values in Redis so they outlive the process.
type LocalStore struct {
	client     RedisClient
	expiration time.Duration
}

// NewLocalStore wraps a Redis client. A zero expiration keeps values forever.
func NewLocalStore(client RedisClient, expiration time.Duration) *LocalStore {
	return &LocalStore{client: client, expiration: expiration}
}

func (s *LocalStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *LocalStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, s.expiration).Err()
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
