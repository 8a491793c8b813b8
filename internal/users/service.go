package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"inkwell/internal/apperror"
	"inkwell/internal/database"
	"inkwell/internal/events"
)

const invalidCredentials = "Credentials not valid!"

// Service defines the account operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, creds Credentials) (*User, error)
	// SignIn verifies creds and returns the user with a freshly minted
	// session token. currentToken, when set, is revoked.
	SignIn(ctx context.Context, currentToken string, creds Credentials) (*User, string, error)
	SignOut(ctx context.Context, token string) error
	WhoAmI(ctx context.Context, userID uuid.UUID) (*User, error)
	UpdateSelf(ctx context.Context, userID uuid.UUID, patch Patch) (*User, error)
	// DeleteSelf removes the user's posts and then the user in one
	// transaction, and ends the session behind token.
	DeleteSelf(ctx context.Context, userID uuid.UUID, token string) error
	ListAll(ctx context.Context) ([]User, error)
}

// Sessions is implemented by *session.Resolver.
type Sessions interface {
	ResolveUser(ctx context.Context, token string) (uuid.UUID, error)
	Establish(ctx context.Context, oldToken string, userID uuid.UUID) (string, error)
	Terminate(ctx context.Context, token string) error
}

// ContentPurger removes everything a user owns using the caller's
// transaction. Implemented by *posts.Service.
type ContentPurger interface {
	PurgeOwner(ctx context.Context, q database.Querier, ownerID uuid.UUID) (int, error)
}

type service struct {
	db        database.Service
	users     *Repository
	sessions  Sessions
	content   ContentPurger
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(db database.Service, users *Repository, sessions Sessions, content ContentPurger, publisher events.Publisher, logger *slog.Logger) Service {
	return &service{
		db:        db,
		users:     users,
		sessions:  sessions,
		content:   content,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *service) Register(ctx context.Context, creds Credentials) (*User, error) {
	user, err := s.users.Create(ctx, creds.Email, creds.Password)
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, s.publisher, s.logger, events.New(events.UserRegistered, user.ID, map[string]any{
		"email": user.Email,
	}))

	return user, nil
}

func (s *service) SignIn(ctx context.Context, currentToken string, creds Credentials) (*User, string, error) {
	user, err := s.users.FindByEmail(ctx, creds.Email)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, "", err
	}

	if !s.users.VerifyPassword(user, creds.Password) {
		s.logger.Warn("Sign-in rejected")
		return nil, "", apperror.Unauthorized(invalidCredentials)
	}

	token, err := s.sessions.Establish(ctx, currentToken, user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("User signed in", "user_id", user.ID)
	return user, token, nil
}

func (s *service) SignOut(ctx context.Context, token string) error {
	userID, err := s.sessions.ResolveUser(ctx, token)
	if err != nil {
		return err
	}

	if err := s.sessions.Terminate(ctx, token); err != nil {
		return err
	}

	s.logger.Info("User signed out", "user_id", userID)
	return nil
}

// WhoAmI reports a session whose user no longer exists as unauthorized.
func (s *service) WhoAmI(ctx context.Context, userID uuid.UUID) (*User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Unauthorized("Unauthorized")
	}
	return user, err
}

func (s *service) UpdateSelf(ctx context.Context, userID uuid.UUID, patch Patch) (*User, error) {
	return s.users.Update(ctx, userID, patch)
}

func (s *service) DeleteSelf(ctx context.Context, userID uuid.UUID, token string) error {
	var purged int

	err := s.db.WithTx(ctx, func(q database.Querier) error {
		n, err := s.content.PurgeOwner(ctx, q, userID)
		if err != nil {
			return fmt.Errorf("failed to delete posts of user: %w", err)
		}
		purged = n

		return s.users.WithQuerier(q).Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	if token != "" {
		if err := s.sessions.Terminate(ctx, token); err != nil {
			s.logger.Warn("Failed to end session of deleted user", "user_id", userID, "error", err)
		}
	}

	s.logger.Info("Deleted user", "user_id", userID, "posts_deleted", purged)
	events.Emit(ctx, s.publisher, s.logger, events.New(events.UserDeleted, userID, map[string]any{
		"posts_deleted": purged,
	}))

	return nil
}

func (s *service) ListAll(ctx context.Context) ([]User, error) {
	return s.users.ListAll(ctx)
}
