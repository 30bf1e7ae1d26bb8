package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"video-indexer/port"
)

// CachedCategoryReader wraps a CategoryReader with a cache-aside redis
// layer for subtree expansions. Expansions repeat on every filtered
// search request; the TTL bounds how long a hierarchy edit can be served
// stale. Cache failures fall through to the inner reader.
type CachedCategoryReader struct {
	inner  port.CategoryReader
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedCategoryReader(inner port.CategoryReader, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedCategoryReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedCategoryReader{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// CategoryIDByName is not cached; categories can be renamed and the
// lookup is a single indexed row read.
func (r *CachedCategoryReader) CategoryIDByName(ctx context.Context, name string) (int, bool, error) {
	return r.inner.CategoryIDByName(ctx, name)
}

func (r *CachedCategoryReader) SubtreeCategoryNames(ctx context.Context, categoryID int) ([]string, error) {
	key := subtreeKey(categoryID)

	cached, err := r.client.Get(ctx, key).Result()
	if err == nil {
		var names []string
		if jsonErr := json.Unmarshal([]byte(cached), &names); jsonErr == nil {
			return names, nil
		}
		// Unparseable entry: drop it and fall through.
		r.client.Del(ctx, key)
	} else if err != redis.Nil {
		r.logger.Warn("category cache read failed", "key", key, "err", err)
	}

	names, err := r.inner.SubtreeCategoryNames(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if encoded, jsonErr := json.Marshal(names); jsonErr == nil {
		if setErr := r.client.Set(ctx, key, encoded, r.ttl).Err(); setErr != nil {
			r.logger.Warn("category cache write failed", "key", key, "err", setErr)
		}
	}
	return names, nil
}

func subtreeKey(categoryID int) string {
	return fmt.Sprintf("video-indexer:category-subtree:%d", categoryID)
}
