// Package posts implements owner-scoped blog posts: storage, caching and
// the HTTP endpoints.
package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/apperror"
	"inkwell/internal/database"
)

const postColumns = `id, user_id, title, body, published, created_at, updated_at`

// Repository handles all database operations for posts. Every single-post
// operation is scoped by owner; a post owned by someone else is NotFound.
type Repository struct {
	db  database.Querier
	now func() time.Time
}

func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db, now: time.Now}
}

// WithQuerier returns a copy of the repository bound to q.
func (r *Repository) WithQuerier(q database.Querier) *Repository {
	cp := *r
	cp.db = q
	return &cp
}

func (r *Repository) Create(ctx context.Context, ownerID uuid.UUID, input NewPost) (*Post, error) {
	query := `
		INSERT INTO posts (id, user_id, title, body, published, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
		RETURNING ` + postColumns

	post, err := scanPost(r.db.QueryRow(ctx, query, uuid.New(), ownerID, input.Title, input.Body, r.timestamp()))
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return post, nil
}

func (r *Repository) FindByID(ctx context.Context, ownerID, postID uuid.UUID) (*Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND user_id = $2`

	post, err := scanPost(r.db.QueryRow(ctx, query, postID, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Post")
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

// Update applies the non-nil fields of patch. updated_at always advances,
// strictly past both created_at and any previous updated_at, even when the
// clock has not.
func (r *Repository) Update(ctx context.Context, ownerID, postID uuid.UUID, patch Patch) (*Post, error) {
	var (
		sets []string
		args []any
	)

	if patch.Title != nil {
		args = append(args, *patch.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if patch.Body != nil {
		args = append(args, *patch.Body)
		sets = append(sets, fmt.Sprintf("body = $%d", len(args)))
	}

	args = append(args, r.timestamp())
	sets = append(sets, fmt.Sprintf(
		"updated_at = GREATEST($%d::timestamptz, COALESCE(updated_at, created_at) + INTERVAL '1 microsecond')", len(args)))

	args = append(args, postID, ownerID)
	query := fmt.Sprintf(`
		UPDATE posts
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING %s`, strings.Join(sets, ", "), len(args)-1, len(args), postColumns)

	post, err := scanPost(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Post")
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return post, nil
}

func (r *Repository) Delete(ctx context.Context, ownerID, postID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1 AND user_id = $2`, postID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("Post")
	}

	return nil
}

// Publish moves a draft to published. It reports whether this call made the
// transition; publishing an already published post returns it unchanged.
func (r *Repository) Publish(ctx context.Context, ownerID, postID uuid.UUID) (*Post, bool, error) {
	query := `
		UPDATE posts
		SET published = TRUE
		WHERE id = $1 AND user_id = $2 AND NOT published
		RETURNING ` + postColumns

	post, err := scanPost(r.db.QueryRow(ctx, query, postID, ownerID))
	if err == nil {
		return post, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to publish post: %w", err)
	}

	post, err = r.FindByID(ctx, ownerID, postID)
	if err != nil {
		return nil, false, err
	}
	return post, false, nil
}

// ListByOwner returns the owner's posts, drafts included, oldest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Post, error) {
	return r.list(ctx, `SELECT `+postColumns+` FROM posts WHERE user_id = $1 ORDER BY created_at, id`, ownerID)
}

// ListPublished returns published posts of every owner, oldest first.
func (r *Repository) ListPublished(ctx context.Context) ([]Post, error) {
	return r.list(ctx, `SELECT `+postColumns+` FROM posts WHERE published ORDER BY created_at, id`)
}

// DeleteByOwner removes all posts of ownerID and returns their ids.
func (r *Repository) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `DELETE FROM posts WHERE user_id = $1 RETURNING id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete posts of owner: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan post id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return posts, nil
}

func (r *Repository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*Post, error) {
	var (
		post      Post
		updatedAt sql.NullTime
	)

	err := row.Scan(&post.ID, &post.UserID, &post.Title, &post.Body, &post.Published, &post.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		post.UpdatedAt = &t
	}

	return &post, nil
}
