package storage

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hashhive-server-go/internal/domain/eventbus"
	"hashhive-server-go/internal/platform/errors"
)

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates the gorm-backed audit sink.
func NewAuditRepository(db *gorm.DB) *auditRepository {
	return &auditRepository{
		db: db,
	}
}

var _ eventbus.AuditStore = (*auditRepository)(nil)

// Append persists one audit entry.
func (r *auditRepository) Append(ctx context.Context, entry eventbus.AuditEntry) error {
	var detail datatypes.JSON
	if entry.Detail != nil {
		raw, err := json.Marshal(entry.Detail)
		if err != nil {
			return errors.Wrap(errors.KindStorage, "audit.append", "failed to encode detail", err)
		}
		detail = raw
	}

	record := &AuditRecord{
		ActorID:   entry.ActorID,
		Action:    entry.Action,
		Detail:    detail,
		CreatedAt: entry.At,
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "audit.append", "failed to persist audit record", err)
	}
	return nil
}

// Recent returns the newest audit records, most recent first.
func (r *auditRepository) Recent(ctx context.Context, limit int) ([]AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []AuditRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "audit.recent", "failed to list audit records", err)
	}
	return records, nil
}
