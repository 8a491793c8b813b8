// Package users implements accounts: the credential store, the user service
// and the account HTTP endpoints.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"inkwell/internal/apperror"
	"inkwell/internal/database"
)

const (
	userColumns = `id, email, password_hash, created_at, updated_at`

	uniqueViolation = "23505"
)

// Repository is the credential store. It never returns plaintext passwords
// and compares them only through VerifyPassword.
type Repository struct {
	db     database.Querier
	hasher *Hasher
	now    func() time.Time
	decoy  *decoyHash
}

// decoyHash is compared against when no account matches, so unknown emails
// cost the same bcrypt work as wrong passwords.
type decoyHash struct {
	once sync.Once
	hash string
}

func NewRepository(db database.Querier, hasher *Hasher) *Repository {
	return &Repository{
		db:     db,
		hasher: hasher,
		now:    time.Now,
		decoy:  &decoyHash{},
	}
}

// WithQuerier returns a copy of the repository bound to q, typically a
// transaction.
func (r *Repository) WithQuerier(q database.Querier) *Repository {
	cp := *r
	cp.db = q
	return &cp
}

func (r *Repository) Create(ctx context.Context, email, rawPassword string) (*User, error) {
	hash, err := r.hasher.Hash(rawPassword)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			return nil, apperror.Validation(err.Error())
		}
		return nil, err
	}

	query := `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, uuid.New(), normalizeEmail(email), hash, r.timestamp()))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("Email already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("Created user", "user_id", user.ID)
	return user, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, normalizeEmail(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("User")
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return user, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("User")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// VerifyPassword reports whether rawPassword belongs to user. A nil user
// burns the same bcrypt work and returns false.
func (r *Repository) VerifyPassword(user *User, rawPassword string) bool {
	if user == nil {
		r.hasher.Matches(r.decoyHash(), rawPassword)
		return false
	}
	return r.hasher.Matches(user.PasswordHash, rawPassword)
}

// Update applies the non-nil fields of patch and always bumps updated_at.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch Patch) (*User, error) {
	var (
		sets []string
		args []any
	)

	if patch.Email != nil {
		args = append(args, normalizeEmail(*patch.Email))
		sets = append(sets, fmt.Sprintf("email = $%d", len(args)))
	}

	if patch.Password != nil {
		hash, err := r.hasher.Hash(*patch.Password)
		if err != nil {
			if errors.Is(err, ErrPasswordTooLong) {
				return nil, apperror.Validation(err.Error())
			}
			return nil, err
		}
		args = append(args, hash)
		sets = append(sets, fmt.Sprintf("password_hash = $%d", len(args)))
	}

	args = append(args, r.timestamp())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $%d
		RETURNING %s`, strings.Join(sets, ", "), len(args), userColumns)

	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("User")
		}
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("Email already registered")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	slog.Info("Updated user", "user_id", user.ID, "password_changed", patch.Password != nil)
	return user, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("User")
	}

	return nil
}

func (r *Repository) ListAll(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func (r *Repository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

func (r *Repository) decoyHash() string {
	r.decoy.once.Do(func() {
		hash, err := r.hasher.Hash(uuid.NewString())
		if err != nil {
			slog.Error("Failed to prepare decoy password hash", "error", err)
		}
		r.decoy.hash = hash
	})
	return r.decoy.hash
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		user      User
		updatedAt sql.NullTime
	)

	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		user.UpdatedAt = &t
	}

	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
