package posts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const publishedFeedKey = "posts:published"

func postKey(postID uuid.UUID) string {
	return fmt.Sprintf("post:%s", postID)
}

func ownerPostsKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("posts:owner:%s", ownerID)
}

// cachedPost keeps the owner next to the post so cache hits can still be
// owner checked; Post itself does not serialize it.
type cachedPost struct {
	Post    Post      `json:"post"`
	OwnerID uuid.UUID `json:"owner_id"`
}

// readCache decodes key into dst. Misses and cache failures both return
// false; failures are logged.
func (s *Service) readCache(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}

	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("Post cache read failed", "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("Dropping undecodable cache entry", "key", key, "error", err)
		s.invalidate(ctx, key)
		return false
	}

	s.logger.Debug("Cache hit", "key", key)
	return true
}

func (s *Service) writeCache(ctx context.Context, key string, v any, ttl time.Duration) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("Failed to encode cache entry", "key", key, "error", err)
		return
	}

	if err := s.cache.Set(ctx, key, data, ttl).Err(); err != nil {
		s.logger.Warn("Post cache write failed", "key", key, "error", err)
	}
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil || len(keys) == 0 {
		return
	}

	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn("Post cache invalidation failed", "keys", keys, "error", err)
	}
}
