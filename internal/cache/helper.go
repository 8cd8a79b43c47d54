package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/middleware"
)

const (
	UserKeyPrefix     = "user:%d"
	PostKeyPrefix     = "post:%d"
	PostListKeyPrefix = "posts:list:%s"
	TagListKey        = "tags:all"
)

const (
	UserTTL    = 5 * time.Minute
	PostTTL    = 30 * time.Minute
	ListTTL    = 1 * time.Minute
	TagListTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

// PostListKey derives a cache key for an anonymous feed page.
func PostListKey(sort string, limit, offset int) string {
	return fmt.Sprintf(PostListKeyPrefix, fmt.Sprintf("%s:%d:%d", sort, limit, offset))
}

// Aside implements the cache-aside pattern: look up key, on miss call load
// and store the JSON-encoded result under key with the given TTL. dest must
// be a pointer; load is expected to populate it.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, load func() error) error {
	if client == nil {
		return load()
	}

	prefix := keyPrefix(key)

	raw, err := client.Get(ctx, key).Result()
	if err == nil {
		if unmarshalErr := json.Unmarshal([]byte(raw), dest); unmarshalErr == nil {
			middleware.CacheHits.WithLabelValues(prefix).Inc()
			return nil
		}
		// A corrupt entry falls through to a fresh load.
		client.Del(ctx, key)
	}
	middleware.CacheMisses.WithLabelValues(prefix).Inc()

	if err := load(); err != nil {
		return err
	}

	if encoded, marshalErr := json.Marshal(dest); marshalErr == nil {
		client.Set(ctx, key, encoded, ttl)
	}
	return nil
}

func keyPrefix(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// Invalidate removes a single cache entry.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

// InvalidatePostsList drops every cached feed page. Pages are few and
// short-lived, so a scan is acceptable here.
func InvalidatePostsList(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, "posts:list:*", 100).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}

func InvalidateTags(ctx context.Context) {
	Invalidate(ctx, TagListKey)
}
