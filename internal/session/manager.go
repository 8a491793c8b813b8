// Package session keeps server-side sessions in Redis and resolves the
// session cookie of a request to a user id.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidSession  = errors.New("invalid session")
)

const keyPrefix = "session:"

// Manager defines the interface for session management operations
type Manager interface {
	Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

type manager struct {
	store Store
	now   func() time.Time
}

func NewManager(store Store) Manager {
	return &manager{store: store, now: time.Now}
}

// Create stores a new session under a freshly generated id and returns the id.
func (m *manager) Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error) {
	now := m.now()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := m.store.Set(ctx, keyPrefix+sess.ID, string(data), ttl); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return sess.ID, nil
}

// Get returns ErrSessionNotFound, ErrInvalidSession or ErrSessionExpired for
// sessions that cannot be used, and a wrapped error when the store fails.
func (m *manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	key := keyPrefix + sessionID

	data, err := m.store.Get(ctx, key)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, ErrInvalidSession
	}

	if sess.Expired(m.now()) {
		_ = m.store.Delete(ctx, key)
		return nil, ErrSessionExpired
	}

	return &sess, nil
}

func (m *manager) Delete(ctx context.Context, sessionID string) error {
	if err := m.store.Delete(ctx, keyPrefix+sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
