package storage

import (
	"time"

	"gorm.io/datatypes"
)

// Device is the GORM model backing the fleet registry.
type Device struct {
	ID            uint     `gorm:"primaryKey"`
	DeviceID      string   `gorm:"type:varchar(255);uniqueIndex;not null"`
	OwnerID       string   `gorm:"index"`
	DisplayName   string   `gorm:"not null"`
	Status        string   `gorm:"not null"`
	HashRate      float64  `gorm:"not null;default:0"`
	Temperature   *float64
	PowerWatts    *float64
	RegisteredAt  time.Time `gorm:"not null"`
	LastUpdatedAt time.Time `gorm:"not null"`
}

func (Device) TableName() string {
	return "devices"
}

// MinerConfigRecord stores the singleton cloud-miner configuration. Exactly
// one row exists, pinned to singletonRowID.
type MinerConfigRecord struct {
	ID          uint      `gorm:"primaryKey"`
	Algorithm   string    `gorm:"not null"`
	PoolURL     string    `gorm:"not null"`
	ThreadLimit int       `gorm:"not null"`
	Version     int64     `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (MinerConfigRecord) TableName() string {
	return "miner_configs"
}

// AccessKeyRecord stores the single current access key. Replaced, never
// appended: history is intentionally not retained so an old key can never
// verify.
type AccessKeyRecord struct {
	ID       uint      `gorm:"primaryKey"`
	Value    string    `gorm:"not null"`
	IssuedAt time.Time `gorm:"not null"`
	Version  int64     `gorm:"not null"`
}

func (AccessKeyRecord) TableName() string {
	return "access_keys"
}

// SessionRecord backs the sqlite session store driver.
type SessionRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"type:varchar(128);uniqueIndex;not null"`
	UserID    string    `gorm:"index;not null"`
	Role      string    `gorm:"not null"`
	TwoFactor bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
}

func (SessionRecord) TableName() string {
	return "sessions"
}

// AuditRecord is one entry of the privileged-operation audit trail.
type AuditRecord struct {
	ID        uint           `gorm:"primaryKey"`
	ActorID   string         `gorm:"index;not null"`
	Action    string         `gorm:"index;not null"`
	Detail    datatypes.JSON `gorm:""`
	CreatedAt time.Time      `gorm:"index;not null"`
}

func (AuditRecord) TableName() string {
	return "audit_records"
}
