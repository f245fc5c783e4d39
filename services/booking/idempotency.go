// File: services/booking/idempotency.go
package booking

import (
	"context"
	"sync"
	"time"

	"github.com/roza-in/server/utils"

	"github.com/go-redis/redis/v8"
)

// pendingMarker occupies a key while its request executes. Results are JSON
// objects, so the marker can never be mistaken for one.
const pendingMarker = "pending"

// IdempotencyStore remembers request outcomes by caller-supplied key.
// Begin claims a key: (nil, true) means this caller executes, (result,
// false) means a finished outcome should be replayed, and (nil, false)
// means the original request is still running. Failed executions call
// Forget so a retry gets to run for real.
type IdempotencyStore interface {
	Begin(ctx context.Context, key string) ([]byte, bool, error)
	Complete(ctx context.Context, key string, result []byte) error
	Forget(ctx context.Context, key string) error
}

// RedisIdempotencyStore keeps claims and results in Redis so replays are
// recognized across service instances. SetNX arbitrates ownership.
type RedisIdempotencyStore struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisIdempotencyStore uses the shared idempotency DB and TTL.
func NewRedisIdempotencyStore() *RedisIdempotencyStore {
	return &RedisIdempotencyStore{
		Client: utils.GetIdempotencyClient(),
		TTL:    utils.IdempotencyTTL,
	}
}

func (s *RedisIdempotencyStore) key(key string) string {
	return utils.IdempotencyPrefix + key
}

func (s *RedisIdempotencyStore) Begin(ctx context.Context, key string) ([]byte, bool, error) {
	ok, err := s.Client.SetNX(ctx, s.key(key), pendingMarker, s.TTL).Result()
	if err != nil {
		return nil, false, err
	}
	if ok {
		return nil, true, nil
	}

	val, err := s.Client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		// Claimed a moment ago and already expired or forgotten; treat as
		// in flight and let the caller retry.
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if string(val) == pendingMarker {
		return nil, false, nil
	}
	return val, false, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, result []byte) error {
	return s.Client.Set(ctx, s.key(key), result, s.TTL).Err()
}

func (s *RedisIdempotencyStore) Forget(ctx context.Context, key string) error {
	return s.Client.Del(ctx, s.key(key)).Err()
}

// MemoryIdempotencyStore is the in-process equivalent used by tests.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	results map[string][]byte
	pending map[string]bool
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		results: make(map[string][]byte),
		pending: make(map[string]bool),
	}
}

func (s *MemoryIdempotencyStore) Begin(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if res, ok := s.results[key]; ok {
		return res, false, nil
	}
	if s.pending[key] {
		return nil, false, nil
	}
	s.pending[key] = true
	return nil, true, nil
}

func (s *MemoryIdempotencyStore) Complete(_ context.Context, key string, result []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
	s.results[key] = result
	return nil
}

func (s *MemoryIdempotencyStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
	delete(s.results, key)
	return nil
}
