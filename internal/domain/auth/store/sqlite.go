package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hashhive-server-go/internal/domain/auth/model"
	"hashhive-server-go/internal/platform/storage"

	"gorm.io/gorm"
)

type sqliteStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewSQLite builds a SQLite-backed session store.
func NewSQLite(db *gorm.DB, cfg Config) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store requires database handle")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &sqliteStore{db: db, ttl: ttl}, nil
}

func (s *sqliteStore) Put(ctx context.Context, session model.Session) error {
	if session.Token == "" {
		return fmt.Errorf("session token required")
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = session.CreatedAt.Add(s.ttl)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("token = ?", session.Token).Delete(&storage.SessionRecord{}).Error; err != nil {
			return err
		}
		record := &storage.SessionRecord{
			Token:     session.Token,
			UserID:    session.UserID,
			Role:      string(session.Role),
			TwoFactor: session.TwoFactorAuthenticated,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
		}
		return tx.Create(record).Error
	})
}

func (s *sqliteStore) Get(ctx context.Context, token string) (model.Session, bool, error) {
	var record storage.SessionRecord
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Session{}, false, nil
		}
		return model.Session{}, false, err
	}

	session := model.Session{
		Token:                  record.Token,
		UserID:                 record.UserID,
		Role:                   model.Role(record.Role),
		TwoFactorAuthenticated: record.TwoFactor,
		CreatedAt:              record.CreatedAt,
		ExpiresAt:              record.ExpiresAt,
	}
	if session.Expired(time.Now()) {
		_ = s.Remove(ctx, token)
		return model.Session{}, false, nil
	}
	return session, true, nil
}

func (s *sqliteStore) Remove(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Where("token = ?", token).Delete(&storage.SessionRecord{}).Error
}

func (s *sqliteStore) List(ctx context.Context) ([]string, error) {
	var tokens []string
	err := s.db.WithContext(ctx).
		Model(&storage.SessionRecord{}).
		Where("expires_at > ?", time.Now()).
		Pluck("token", &tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (s *sqliteStore) CleanupExpired(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&storage.SessionRecord{}).Error
}

func (s *sqliteStore) Stats(ctx context.Context) (map[string]any, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&storage.SessionRecord{}).Count(&total).Error; err != nil {
		return nil, err
	}
	return map[string]any{
		"type":  "sqlite",
		"total": total,
		"ttl":   int(s.ttl.Seconds()),
	}, nil
}

func (s *sqliteStore) Close(context.Context) error {
	return nil
}
