package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hashhive-server-go/internal/domain/auth/model"
)

type memoryStore struct {
	items       map[string]model.Session
	mutex       sync.RWMutex
	ttl         time.Duration
	cleanupFreq time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewMemory builds an in-memory session store.
func NewMemory(cfg Config) Store {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cleanup := 5 * time.Minute
	if cfg.Memory != nil && cfg.Memory.GCInterval > 0 {
		cleanup = cfg.Memory.GCInterval
	}
	s := &memoryStore{
		items:       make(map[string]model.Session),
		ttl:         ttl,
		cleanupFreq: cleanup,
		stop:        make(chan struct{}),
	}
	go s.gcLoop()
	return s
}

func (s *memoryStore) gcLoop() {
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = s.CleanupExpired(context.Background())
		case <-s.stop:
			return
		}
	}
}

func (s *memoryStore) Put(_ context.Context, session model.Session) error {
	if session.Token == "" {
		return fmt.Errorf("session token required")
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.ExpiresAt.IsZero() && s.ttl > 0 {
		session.ExpiresAt = now.Add(s.ttl)
	}

	s.mutex.Lock()
	s.items[session.Token] = session
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Get(_ context.Context, token string) (model.Session, bool, error) {
	s.mutex.RLock()
	session, ok := s.items[token]
	s.mutex.RUnlock()
	if !ok {
		return model.Session{}, false, nil
	}
	if session.Expired(time.Now()) {
		return model.Session{}, false, nil
	}
	return session, true, nil
}

func (s *memoryStore) Remove(_ context.Context, token string) error {
	s.mutex.Lock()
	delete(s.items, token)
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) List(_ context.Context) ([]string, error) {
	now := time.Now()
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	tokens := make([]string, 0, len(s.items))
	for token, session := range s.items {
		if session.Expired(now) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

func (s *memoryStore) CleanupExpired(_ context.Context) error {
	now := time.Now()
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for token, session := range s.items {
		if session.Expired(now) {
			delete(s.items, token)
		}
	}
	return nil
}

func (s *memoryStore) Stats(_ context.Context) (map[string]any, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return map[string]any{
		"type":  "memory",
		"total": len(s.items),
		"ttl":   int(s.ttl.Seconds()),
	}, nil
}

func (s *memoryStore) Close(_ context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	return nil
}
