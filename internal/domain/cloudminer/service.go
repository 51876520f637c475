package cloudminer

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"sync"
	"time"

	"hashhive-server-go/internal/domain/auth/model"
	"hashhive-server-go/internal/platform/errors"
)

// Service owns the singleton cloud-miner configuration and its access key.
// One mutex linearizes every mutation of either: the two are coupled, since
// a reset must atomically invalidate the current key. Reads return copies so
// callers can never mutate the guarded state.
type Service struct {
	mu       sync.Mutex
	repo     Repository
	logger   model.Logger
	defaults Defaults

	config *Config
	key    *AccessKey
}

// NewService loads persisted state or seeds the compiled-in defaults with an
// initial access key.
func NewService(ctx context.Context, repo Repository, defaults Defaults, logger model.Logger) (*Service, error) {
	s := &Service{
		repo:     repo,
		logger:   logger,
		defaults: defaults,
	}

	cfg, key, err := repo.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "cloudminer.init", "failed to load state", err)
	}

	if cfg == nil || key == nil {
		cfg = &Config{
			Algorithm:   defaults.Algorithm,
			PoolURL:     defaults.PoolURL,
			ThreadLimit: defaults.ThreadLimit,
			Version:     1,
			UpdatedAt:   time.Now(),
		}
		key, err = newAccessKey(cfg.Version)
		if err != nil {
			return nil, err
		}
		if err := repo.Persist(ctx, cfg, key); err != nil {
			return nil, errors.Wrap(errors.KindStorage, "cloudminer.init", "failed to seed defaults", err)
		}
		logger.Info("cloud miner configuration seeded at version %d", cfg.Version)
	}

	s.config = cfg
	s.key = key
	return s, nil
}

// GetConfig returns a copy of the current configuration.
func (s *Service) GetConfig(_ context.Context) (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.clone(), nil
}

// UpdateConfig applies a partial update iff expectedVersion matches the
// current version. Exactly one of two racing updates with equal
// expectedVersion succeeds; the other observes a conflict.
func (s *Service) UpdateConfig(ctx context.Context, patch Patch, expectedVersion int64) (*Config, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.KindInternal, "cloudminer.update", "request abandoned", err)
	}

	if expectedVersion != s.config.Version {
		return nil, errors.New(errors.KindConflict, "cloudminer.update", "configuration version mismatch")
	}

	next := s.config.clone()
	next.apply(patch)
	next.Version++
	next.UpdatedAt = time.Now()

	if err := s.repo.Persist(ctx, next, s.key); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "cloudminer.update", "failed to persist configuration", err)
	}

	s.config = next
	s.logger.Info("cloud miner configuration updated to version %d", next.Version)
	return next.clone(), nil
}

// ResetConfig restores the compiled-in defaults, bumps the version and
// rotates the access key in the same critical section: the configuration
// identity changed, so any previously issued key is invalid immediately.
func (s *Service) ResetConfig(ctx context.Context) (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.KindInternal, "cloudminer.reset", "request abandoned", err)
	}

	next := &Config{
		Algorithm:   s.defaults.Algorithm,
		PoolURL:     s.defaults.PoolURL,
		ThreadLimit: s.defaults.ThreadLimit,
		Version:     s.config.Version + 1,
		UpdatedAt:   time.Now(),
	}
	key, err := newAccessKey(next.Version)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Persist(ctx, next, key); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "cloudminer.reset", "failed to persist reset", err)
	}

	s.config = next
	s.key = key
	s.logger.Info("cloud miner configuration reset to defaults at version %d", next.Version)
	return next.clone(), nil
}

// CurrentKey returns a copy of the current access key.
func (s *Service) CurrentKey(_ context.Context) (*AccessKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key.clone(), nil
}

// Regenerate replaces the access key. The previous value fails verification
// from the moment this returns; two back-to-back calls always yield distinct
// values.
func (s *Service) Regenerate(ctx context.Context) (*AccessKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.KindInternal, "cloudminer.regenerate", "request abandoned", err)
	}

	key, err := newAccessKey(s.config.Version)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Persist(ctx, s.config, key); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "cloudminer.regenerate", "failed to persist key", err)
	}

	s.key = key
	s.logger.Info("access key regenerated for configuration version %d", key.Version)
	return key.clone(), nil
}

// Verify checks a candidate against the current key only, in constant time.
// Historical keys never verify.
func (s *Service) Verify(candidate string) bool {
	s.mu.Lock()
	current := s.key.Value
	s.mu.Unlock()

	if len(candidate) != len(current) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(current)) == 1
}

func newAccessKey(version int64) (*AccessKey, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, errors.Wrap(errors.KindInternal, "cloudminer.keygen", "failed to generate key material", err)
	}
	return &AccessKey{
		Value:    hex.EncodeToString(buf),
		IssuedAt: time.Now(),
		Version:  version,
	}, nil
}
