package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/apperror"
)

// Resolver turns session tokens into user ids and owns the session
// lifecycle around sign-in and sign-out.
type Resolver struct {
	manager Manager
	ttl     time.Duration
	logger  *slog.Logger
}

func NewResolver(manager Manager, ttl time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{manager: manager, ttl: ttl, logger: logger}
}

func (r *Resolver) TTL() time.Duration {
	return r.ttl
}

// ResolveUser returns the user id bound to token. It does not check that the
// user still exists.
func (r *Resolver) ResolveUser(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, apperror.Unauthorized("Unauthorized")
	}

	sess, err := r.manager.Get(ctx, token)
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionExpired), errors.Is(err, ErrInvalidSession):
		return uuid.Nil, apperror.Unauthorized("Unauthorized")
	case err != nil:
		return uuid.Nil, fmt.Errorf("resolve session: %w", err)
	}

	return sess.UserID, nil
}

// Establish always mints a new token for userID. The previous token, if any,
// stops resolving.
func (r *Resolver) Establish(ctx context.Context, oldToken string, userID uuid.UUID) (string, error) {
	if oldToken != "" {
		if err := r.manager.Delete(ctx, oldToken); err != nil {
			r.logger.Warn("Failed to drop previous session", "error", err)
		}
	}

	token, err := r.manager.Create(ctx, userID, r.ttl)
	if err != nil {
		return "", fmt.Errorf("establish session: %w", err)
	}

	return token, nil
}

// Terminate purges the session state behind token.
func (r *Resolver) Terminate(ctx context.Context, token string) error {
	if err := r.manager.Delete(ctx, token); err != nil {
		return fmt.Errorf("terminate session: %w", err)
	}
	return nil
}
