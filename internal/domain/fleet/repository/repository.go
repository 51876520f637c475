package repository

import (
	"context"

	"hashhive-server-go/internal/domain/fleet/aggregate"
)

// DeviceRepository is the persistence contract of the fleet registry.
// Find methods return nil without error when the device does not exist.
type DeviceRepository interface {
	// Save persists a newly registered device.
	Save(ctx context.Context, device *aggregate.Device) error

	// Update persists changes to an existing device.
	Update(ctx context.Context, device *aggregate.Device) error

	// FindByDeviceID looks a device up by its external identifier.
	FindByDeviceID(ctx context.Context, deviceID string) (*aggregate.Device, error)

	// FindAll returns every registered device; order is not meaningful.
	FindAll(ctx context.Context) ([]*aggregate.Device, error)

	// ListByOwnerID returns the devices registered to one owner.
	ListByOwnerID(ctx context.Context, ownerID string) ([]*aggregate.Device, error)

	// Delete removes a device; deleting an absent id is a no-op.
	Delete(ctx context.Context, deviceID string) error
}
