package posts

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"inkwell/internal/apperror"
	"inkwell/internal/database"
	"inkwell/internal/events"
)

// Service handles business logic for posts with optional Redis caching.
// A nil cache client disables caching.
type Service struct {
	repo      *Repository
	cache     *redis.Client
	ttl       time.Duration
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo *Repository, cache *redis.Client, ttl time.Duration, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		ttl:       ttl,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, input NewPost) (*Post, error) {
	post, err := s.repo.Create(ctx, ownerID, input)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerPostsKey(ownerID))
	s.logger.Info("Created post", "post_id", post.ID, "user_id", ownerID)

	return post, nil
}

func (s *Service) Get(ctx context.Context, ownerID, postID uuid.UUID) (*Post, error) {
	var cached cachedPost
	if s.readCache(ctx, postKey(postID), &cached) {
		if cached.OwnerID != ownerID {
			return nil, apperror.NotFound("Post")
		}
		cached.Post.UserID = cached.OwnerID
		return &cached.Post, nil
	}

	post, err := s.repo.FindByID(ctx, ownerID, postID)
	if err != nil {
		return nil, err
	}

	s.writeCache(ctx, postKey(postID), cachedPost{Post: *post, OwnerID: post.UserID}, s.ttl)
	return post, nil
}

func (s *Service) Update(ctx context.Context, ownerID, postID uuid.UUID, patch Patch) (*Post, error) {
	post, err := s.repo.Update(ctx, ownerID, postID, patch)
	if err != nil {
		return nil, err
	}

	s.invalidatePost(ctx, ownerID, postID)
	return post, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, postID uuid.UUID) error {
	if err := s.repo.Delete(ctx, ownerID, postID); err != nil {
		return err
	}

	s.invalidatePost(ctx, ownerID, postID)
	s.logger.Info("Deleted post", "post_id", postID, "user_id", ownerID)
	return nil
}

// Publish is idempotent. post.published is emitted only for the call that
// moved the post out of draft.
func (s *Service) Publish(ctx context.Context, ownerID, postID uuid.UUID) (*Post, error) {
	post, changed, err := s.repo.Publish(ctx, ownerID, postID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return post, nil
	}

	s.invalidatePost(ctx, ownerID, postID)
	s.logger.Info("Published post", "post_id", postID, "user_id", ownerID)
	events.Emit(ctx, s.publisher, s.logger, events.New(events.PostPublished, postID, map[string]any{
		"user_id": ownerID.String(),
		"title":   post.Title,
	}))

	return post, nil
}

func (s *Service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Post, error) {
	key := ownerPostsKey(ownerID)

	var posts []Post
	if s.readCache(ctx, key, &posts) {
		return withOwner(posts, ownerID), nil
	}

	posts, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	s.writeCache(ctx, key, posts, s.ttl)
	return posts, nil
}

func (s *Service) ListPublished(ctx context.Context) ([]Post, error) {
	var posts []Post
	if s.readCache(ctx, publishedFeedKey, &posts) {
		return posts, nil
	}

	posts, err := s.repo.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	s.writeCache(ctx, publishedFeedKey, posts, s.ttl)
	return posts, nil
}

// PurgeOwner deletes every post of ownerID through q, which is normally the
// account deletion transaction.
func (s *Service) PurgeOwner(ctx context.Context, q database.Querier, ownerID uuid.UUID) (int, error) {
	ids, err := s.repo.WithQuerier(q).DeleteByOwner(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	keys := []string{ownerPostsKey(ownerID), publishedFeedKey}
	for _, id := range ids {
		keys = append(keys, postKey(id))
	}
	s.invalidate(ctx, keys...)

	return len(ids), nil
}

func (s *Service) invalidatePost(ctx context.Context, ownerID, postID uuid.UUID) {
	s.invalidate(ctx, postKey(postID), ownerPostsKey(ownerID), publishedFeedKey)
}

func withOwner(posts []Post, ownerID uuid.UUID) []Post {
	for i := range posts {
		posts[i].UserID = ownerID
	}
	return posts
}
