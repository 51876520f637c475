package config

import "time"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Web        WebConfig        `yaml:"web"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	CloudMiner CloudMinerConfig `yaml:"cloud_miner"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Advisor    AdvisorConfig    `yaml:"advisor"`
}

type ServerConfig struct {
	IP    string `yaml:"ip"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"` // shared secret for the identity collaborator
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type WebConfig struct {
	Enabled   bool   `yaml:"enabled"`
	StaticDir string `yaml:"static_dir"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	SessionTTL time.Duration `yaml:"session_ttl"`
	Store      StoreConfig   `yaml:"store"`
}

type StoreConfig struct {
	Type   string           `yaml:"type"`
	Redis  RedisStoreConfig `yaml:"redis,omitempty"`
	Memory MemoryStoreConfig `yaml:"memory,omitempty"`
}

type RedisStoreConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type MemoryStoreConfig struct {
	Cleanup time.Duration `yaml:"cleanup"`
}

// CloudMinerConfig holds the compiled-in defaults restored by a config reset.
type CloudMinerConfig struct {
	Algorithm   string `yaml:"algorithm"`
	PoolURL     string `yaml:"pool_url"`
	ThreadLimit int    `yaml:"thread_limit"`
}

type TelemetryConfig struct {
	Enabled          bool          `yaml:"enabled"`
	IP               string        `yaml:"ip"`
	Port             int           `yaml:"port"`
	Path             string        `yaml:"path"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
}

// AdvisorConfig bounds optimization recommendations for the fleet.
type AdvisorConfig struct {
	DefaultIntensity int `yaml:"default_intensity"`
	MaxThreads       int `yaml:"max_threads"`
}
