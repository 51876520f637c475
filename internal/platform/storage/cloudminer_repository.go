package storage

import (
	"context"

	"gorm.io/gorm"

	"hashhive-server-go/internal/domain/cloudminer"
	"hashhive-server-go/internal/platform/errors"
)

// singletonRowID pins the single miner_configs / access_keys row.
const singletonRowID = 1

type cloudMinerRepository struct {
	db *gorm.DB
}

// NewCloudMinerRepository creates the gorm-backed cloud-miner repository.
func NewCloudMinerRepository(db *gorm.DB) cloudminer.Repository {
	return &cloudMinerRepository{
		db: db,
	}
}

func (r *cloudMinerRepository) Load(ctx context.Context) (*cloudminer.Config, *cloudminer.AccessKey, error) {
	var cfgModel MinerConfigRecord
	err := r.db.WithContext(ctx).First(&cfgModel, singletonRowID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(errors.KindStorage, "cloudminer.load", "failed to load configuration", err)
	}

	var keyModel AccessKeyRecord
	err = r.db.WithContext(ctx).First(&keyModel, singletonRowID).Error
	if err == gorm.ErrRecordNotFound {
		// A config without a key is a half-seeded state from a version that
		// never shipped; treat as unseeded so the service reinitializes.
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(errors.KindStorage, "cloudminer.load", "failed to load access key", err)
	}

	cfg := &cloudminer.Config{
		Algorithm:   cfgModel.Algorithm,
		PoolURL:     cfgModel.PoolURL,
		ThreadLimit: cfgModel.ThreadLimit,
		Version:     cfgModel.Version,
		UpdatedAt:   cfgModel.UpdatedAt,
	}
	key := &cloudminer.AccessKey{
		Value:    keyModel.Value,
		IssuedAt: keyModel.IssuedAt,
		Version:  keyModel.Version,
	}
	return cfg, key, nil
}

func (r *cloudMinerRepository) Persist(ctx context.Context, cfg *cloudminer.Config, key *cloudminer.AccessKey) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfgModel := &MinerConfigRecord{
			ID:          singletonRowID,
			Algorithm:   cfg.Algorithm,
			PoolURL:     cfg.PoolURL,
			ThreadLimit: cfg.ThreadLimit,
			Version:     cfg.Version,
			UpdatedAt:   cfg.UpdatedAt,
		}
		if err := tx.Save(cfgModel).Error; err != nil {
			return err
		}

		keyModel := &AccessKeyRecord{
			ID:       singletonRowID,
			Value:    key.Value,
			IssuedAt: key.IssuedAt,
			Version:  key.Version,
		}
		return tx.Save(keyModel).Error
	})
	if err != nil {
		return errors.Wrap(errors.KindStorage, "cloudminer.persist", "failed to persist state", err)
	}
	return nil
}
