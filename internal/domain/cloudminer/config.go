package cloudminer

import (
	"time"

	"hashhive-server-go/internal/platform/errors"
)

// Config is the singleton cloud-miner configuration. Version strictly
// increases on every successful mutation and is the optimistic-concurrency
// token for updates.
type Config struct {
	Algorithm   string    `json:"algorithm"`
	PoolURL     string    `json:"poolUrl"`
	ThreadLimit int       `json:"threadLimit"`
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Defaults are the compiled-in settings restored by a reset.
type Defaults struct {
	Algorithm   string
	PoolURL     string
	ThreadLimit int
}

// Patch describes a partial configuration update; nil fields are untouched.
type Patch struct {
	Algorithm   *string `json:"algorithm,omitempty"`
	PoolURL     *string `json:"poolUrl,omitempty"`
	ThreadLimit *int    `json:"threadLimit,omitempty"`
}

// AccessKey is the single opaque credential gating out-of-band automation
// against the cloud-miner configuration. Its version matches the config
// version at issuance.
type AccessKey struct {
	Value    string    `json:"value"`
	IssuedAt time.Time `json:"issuedAt"`
	Version  int64     `json:"version"`
}

func (p Patch) validate() error {
	if p.Algorithm != nil && *p.Algorithm == "" {
		return errors.New(errors.KindValidation, "cloudminer.patch", "algorithm must not be empty")
	}
	if p.PoolURL != nil && *p.PoolURL == "" {
		return errors.New(errors.KindValidation, "cloudminer.patch", "pool url must not be empty")
	}
	if p.ThreadLimit != nil && *p.ThreadLimit < 1 {
		return errors.New(errors.KindValidation, "cloudminer.patch", "thread limit must be at least 1")
	}
	return nil
}

func (c *Config) apply(p Patch) {
	if p.Algorithm != nil {
		c.Algorithm = *p.Algorithm
	}
	if p.PoolURL != nil {
		c.PoolURL = *p.PoolURL
	}
	if p.ThreadLimit != nil {
		c.ThreadLimit = *p.ThreadLimit
	}
}

func (c *Config) clone() *Config {
	copied := *c
	return &copied
}

func (k *AccessKey) clone() *AccessKey {
	copied := *k
	return &copied
}
