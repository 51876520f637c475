package cloudminer

import "context"

// Repository persists the singleton configuration and its access key.
// Persist must write both records atomically: a half-applied reset or key
// rotation is never observable, even across restarts.
type Repository interface {
	// Load returns the stored state, or (nil, nil, nil) when unseeded.
	Load(ctx context.Context) (*Config, *AccessKey, error)

	// Persist atomically stores the configuration and the current key.
	Persist(ctx context.Context, cfg *Config, key *AccessKey) error
}
