package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"hashhive-server-go/internal/domain/auth/model"
	"hashhive-server-go/internal/domain/auth/store"
)

type (
	// Actor re-exports the shared auth entity for callers.
	Actor = model.Actor
	// Role re-exports the role tier type.
	Role = model.Role
	// Logger re-exports the logging interface used across the domain.
	Logger = model.Logger
)

const (
	defaultCleanupInterval = 10 * time.Minute
	minCleanupInterval     = 30 * time.Second
)

// Options encapsulates the dependencies required to construct a Manager.
type Options struct {
	Store           store.Store
	Logger          Logger
	SessionTTL      time.Duration
	CleanupInterval time.Duration
}

// Manager coordinates session issuance, resolution and expiry cleanup. The
// actor it resolves is the sole authorization input downstream; roles are
// never derived or upgraded past what the session carries.
type Manager struct {
	store      store.Store
	logger     Logger
	sessionTTL time.Duration

	cleanupInterval time.Duration
	cleanupStop     chan struct{}
	cleanupOnce     sync.Once
}

// NewManager wires a Manager using the supplied options.
func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, errors.New("auth manager requires a store")
	}
	if opts.Logger == nil {
		return nil, errors.New("auth manager requires a logger")
	}
	sessionTTL := opts.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	cleanupInterval := opts.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	} else if cleanupInterval < minCleanupInterval {
		opts.Logger.Warn("cleanup interval too small, adjusting to %v", minCleanupInterval)
		cleanupInterval = minCleanupInterval
	}
	mgr := &Manager{
		store:           opts.Store,
		logger:          opts.Logger,
		sessionTTL:      sessionTTL,
		cleanupInterval: cleanupInterval,
		cleanupStop:     make(chan struct{}),
	}

	go mgr.runCleanup()
	return mgr, nil
}

func (m *Manager) runCleanup() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.store.CleanupExpired(context.Background()); err != nil {
				m.logger.Warn("session store cleanup failed: %v", err)
			}
		case <-m.cleanupStop:
			return
		}
	}
}

// IssueSession mints a session for an identity the external collaborator has
// already verified. The two-factor flag starts false until MarkTwoFactor.
func (m *Manager) IssueSession(ctx context.Context, userID string, role Role) (*model.Session, error) {
	if userID == "" {
		return nil, errors.New("user id must not be empty")
	}
	if !role.Valid() {
		return nil, errors.New("unknown role")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := model.Session{
		Token:     token,
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.sessionTTL),
	}
	if err := m.store.Put(ctx, session); err != nil {
		return nil, err
	}

	m.logger.Info("session issued for user %s (%s)", userID, role)
	return &session, nil
}

// ResolveActor resolves a session token to the request actor. An unknown or
// expired token yields a nil actor, not an error.
func (m *Manager) ResolveActor(ctx context.Context, token string) (*Actor, error) {
	if token == "" {
		return nil, nil
	}
	session, ok, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return session.Actor(), nil
}

// MarkTwoFactor records that the external verifier completed a two-factor
// challenge for the session.
func (m *Manager) MarkTwoFactor(ctx context.Context, token string) error {
	session, ok, err := m.store.Get(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("session not found")
	}
	session.TwoFactorAuthenticated = true
	return m.store.Put(ctx, session)
}

// RevokeSession removes the session; revoking an absent token is a no-op.
func (m *Manager) RevokeSession(ctx context.Context, token string) error {
	return m.store.Remove(ctx, token)
}

// Stats surfaces session store statistics for the dashboard.
func (m *Manager) Stats(ctx context.Context) (map[string]any, error) {
	return m.store.Stats(ctx)
}

// Close stops the cleanup loop and releases the store.
func (m *Manager) Close() error {
	m.cleanupOnce.Do(func() {
		close(m.cleanupStop)
	})
	return m.store.Close(context.Background())
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
