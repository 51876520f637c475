package config

import "time"

// DefaultConfig returns the built-in configuration used when no config file
// is present, and the baseline merged under a partial file.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:    "0.0.0.0",
			Port:  8080,
			Token: "change_me",
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Web: WebConfig{
			Enabled:   true,
			StaticDir: "./web",
		},
		Database: DatabaseConfig{
			Path: "data/hashhive.db",
		},
		Auth: AuthConfig{
			SessionTTL: 24 * time.Hour,
			Store: StoreConfig{
				Type: "memory",
				Memory: MemoryStoreConfig{
					Cleanup: 10 * time.Minute,
				},
			},
		},
		CloudMiner: CloudMinerConfig{
			Algorithm:   "ethash",
			PoolURL:     "stratum+tcp://pool.hashhive.local:3333",
			ThreadLimit: 8,
		},
		Telemetry: TelemetryConfig{
			Enabled:          true,
			IP:               "0.0.0.0",
			Port:             8090,
			Path:             "/ws/telemetry",
			SnapshotInterval: 5 * time.Second,
		},
		Advisor: AdvisorConfig{
			DefaultIntensity: 5,
			MaxThreads:       16,
		},
	}
}
