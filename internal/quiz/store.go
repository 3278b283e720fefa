package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrAttemptNotFound is returned when an attempt expired or never existed.
var ErrAttemptNotFound = errors.New("quiz attempt not found")

// Store keeps in-flight attempts between requests.
type Store interface {
	Save(ctx context.Context, attempt *Attempt) error
	Get(ctx context.Context, id string) (*Attempt, error)
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps attempts as JSON values that expire after ttl.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStore constructs a RedisStore. Keys are "<prefix>:attempt:<id>".
func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf("%s:attempt:%s", s.prefix, id)
}

func (s *RedisStore) Save(ctx context.Context, attempt *Attempt) error {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("encode attempt: %w", err)
	}
	return s.client.Set(ctx, s.key(attempt.ID), payload, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Attempt, error) {
	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	var attempt Attempt
	if err := json.Unmarshal(payload, &attempt); err != nil {
		return nil, fmt.Errorf("decode attempt: %w", err)
	}
	return &attempt, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// MemoryStore is a process-local Store. Entries do not expire.
type MemoryStore struct {
	mu       sync.Mutex
	attempts map[string][]byte
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{attempts: make(map[string][]byte)}
}

func (s *MemoryStore) Save(_ context.Context, attempt *Attempt) error {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.ID] = payload
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Attempt, error) {
	s.mu.Lock()
	payload, ok := s.attempts[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrAttemptNotFound
	}
	var attempt Attempt
	if err := json.Unmarshal(payload, &attempt); err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, id)
	return nil
}
