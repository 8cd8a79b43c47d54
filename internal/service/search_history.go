package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// SearchHistoryStore records a user's recent search queries. Implementations
// must deduplicate: repeating a query moves it to the front.
type SearchHistoryStore interface {
	Record(ctx context.Context, userID uint, query string) error
	Recent(ctx context.Context, userID uint) ([]string, error)
	Clear(ctx context.Context, userID uint) error
}

// redisSearchHistory keeps each user's history in a capped Redis list.
type redisSearchHistory struct {
	client *redis.Client
	limit  int
}

// NewRedisSearchHistory returns a SearchHistoryStore backed by Redis.
func NewRedisSearchHistory(client *redis.Client, limit int) SearchHistoryStore {
	if limit <= 0 {
		limit = 10
	}
	return &redisSearchHistory{client: client, limit: limit}
}

func searchHistoryKey(userID uint) string {
	return fmt.Sprintf("search:history:%d", userID)
}

func (s *redisSearchHistory) Record(ctx context.Context, userID uint, query string) error {
	query = strings.TrimSpace(query)
	if userID == 0 || query == "" {
		return nil
	}
	key := searchHistoryKey(userID)
	pipe := s.client.TxPipeline()
	pipe.LRem(ctx, key, 0, query)
	pipe.LPush(ctx, key, query)
	pipe.LTrim(ctx, key, 0, int64(s.limit-1))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisSearchHistory) Recent(ctx context.Context, userID uint) ([]string, error) {
	if userID == 0 {
		return []string{}, nil
	}
	return s.client.LRange(ctx, searchHistoryKey(userID), 0, int64(s.limit-1)).Result()
}

func (s *redisSearchHistory) Clear(ctx context.Context, userID uint) error {
	return s.client.Del(ctx, searchHistoryKey(userID)).Err()
}

// memorySearchHistory is an in-process store used when Redis is unavailable
// and in tests.
type memorySearchHistory struct {
	mu      sync.Mutex
	limit   int
	entries map[uint][]string
}

// NewMemorySearchHistory returns an in-memory SearchHistoryStore.
func NewMemorySearchHistory(limit int) SearchHistoryStore {
	if limit <= 0 {
		limit = 10
	}
	return &memorySearchHistory{limit: limit, entries: make(map[uint][]string)}
}

func (s *memorySearchHistory) Record(_ context.Context, userID uint, query string) error {
	query = strings.TrimSpace(query)
	if userID == 0 || query == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.entries[userID]
	next := make([]string, 0, len(existing)+1)
	next = append(next, query)
	for _, q := range existing {
		if q != query {
			next = append(next, q)
		}
	}
	if len(next) > s.limit {
		next = next[:s.limit]
	}
	s.entries[userID] = next
	return nil
}

func (s *memorySearchHistory) Recent(_ context.Context, userID uint) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.entries[userID]
	out := make([]string, len(history))
	copy(out, history)
	return out, nil
}

func (s *memorySearchHistory) Clear(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
	return nil
}
