package migrations

import (
	"gorm.io/gorm"
)

// Migration001Initial creates the core schema: fleet devices, the singleton
// cloud-miner configuration, the current access key, sessions and the audit
// trail.
type Migration001Initial struct{}

func (m *Migration001Initial) Version() string {
	return "001_initial"
}

func (m *Migration001Initial) Description() string {
	return "Create initial database schema with all core tables"
}

func (m *Migration001Initial) Up(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS devices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id VARCHAR(255) NOT NULL UNIQUE,
			owner_id VARCHAR(255),
			display_name VARCHAR(255) NOT NULL,
			status VARCHAR(32) NOT NULL,
			hash_rate REAL NOT NULL DEFAULT 0,
			temperature REAL,
			power_watts REAL,
			registered_at DATETIME NOT NULL,
			last_updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_devices_owner_id ON devices(owner_id)`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS miner_configs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			algorithm VARCHAR(64) NOT NULL,
			pool_url VARCHAR(255) NOT NULL,
			thread_limit INTEGER NOT NULL,
			version INTEGER NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS access_keys (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			value VARCHAR(128) NOT NULL,
			issued_at DATETIME NOT NULL,
			version INTEGER NOT NULL
		)
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			token VARCHAR(128) NOT NULL UNIQUE,
			user_id VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL,
			two_factor BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`).Error; err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			actor_id VARCHAR(255) NOT NULL,
			action VARCHAR(128) NOT NULL,
			detail JSON,
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_records_actor_id ON audit_records(actor_id)`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_records_action ON audit_records(action)`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_records_created_at ON audit_records(created_at)`).Error; err != nil {
		return err
	}

	return nil
}

func (m *Migration001Initial) Down(db *gorm.DB) error {
	for _, table := range []string{"audit_records", "sessions", "access_keys", "miner_configs", "devices"} {
		if err := db.Exec(`DROP TABLE IF EXISTS ` + table).Error; err != nil {
			return err
		}
	}
	return nil
}
