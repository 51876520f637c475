package storage

import (
	"context"

	"gorm.io/gorm"

	"hashhive-server-go/internal/domain/fleet/aggregate"
	"hashhive-server-go/internal/domain/fleet/repository"
	"hashhive-server-go/internal/platform/errors"
)

type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates the gorm-backed fleet repository.
func NewDeviceRepository(db *gorm.DB) repository.DeviceRepository {
	return &deviceRepository{
		db: db,
	}
}

func (r *deviceRepository) Save(ctx context.Context, device *aggregate.Device) error {
	model := r.toModel(device)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "device.save", "failed to save device", err)
	}
	device.ID = model.ID
	return nil
}

func (r *deviceRepository) Update(ctx context.Context, device *aggregate.Device) error {
	model := r.toModel(device)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "device.update", "failed to update device", err)
	}
	return nil
}

func (r *deviceRepository) FindByDeviceID(ctx context.Context, deviceID string) (*aggregate.Device, error) {
	var model Device
	if err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(errors.KindStorage, "device.find_by_device_id", "failed to find device", err)
	}
	return r.fromModel(&model), nil
}

func (r *deviceRepository) FindAll(ctx context.Context) ([]*aggregate.Device, error) {
	var models []Device
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "device.find_all", "failed to find devices", err)
	}

	devices := make([]*aggregate.Device, len(models))
	for i, model := range models {
		devices[i] = r.fromModel(&model)
	}
	return devices, nil
}

func (r *deviceRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*aggregate.Device, error) {
	var models []Device
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&models).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "device.list_by_owner_id", "failed to find devices", err)
	}

	devices := make([]*aggregate.Device, len(models))
	for i, model := range models {
		devices[i] = r.fromModel(&model)
	}
	return devices, nil
}

func (r *deviceRepository) Delete(ctx context.Context, deviceID string) error {
	if err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).Delete(&Device{}).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "device.delete", "failed to delete device", err)
	}
	return nil
}

func (r *deviceRepository) toModel(device *aggregate.Device) *Device {
	return &Device{
		ID:            device.ID,
		DeviceID:      device.DeviceID,
		OwnerID:       device.OwnerID,
		DisplayName:   device.DisplayName,
		Status:        string(device.Status),
		HashRate:      device.HashRate,
		Temperature:   device.Temperature,
		PowerWatts:    device.PowerWatts,
		RegisteredAt:  device.RegisteredAt,
		LastUpdatedAt: device.LastUpdatedAt,
	}
}

func (r *deviceRepository) fromModel(model *Device) *aggregate.Device {
	return &aggregate.Device{
		ID:            model.ID,
		DeviceID:      model.DeviceID,
		OwnerID:       model.OwnerID,
		DisplayName:   model.DisplayName,
		Status:        aggregate.DeviceStatus(model.Status),
		HashRate:      model.HashRate,
		Temperature:   model.Temperature,
		PowerWatts:    model.PowerWatts,
		RegisteredAt:  model.RegisteredAt,
		LastUpdatedAt: model.LastUpdatedAt,
	}
}
