package service

import (
	"context"
	"sync"

	"hashhive-server-go/internal/domain/auth/model"
	"hashhive-server-go/internal/domain/fleet/aggregate"
	"hashhive-server-go/internal/domain/fleet/repository"
	"hashhive-server-go/internal/domain/optimizer"
	"hashhive-server-go/internal/platform/errors"
)

// FleetService is the device registry: it owns all device mutation paths and
// linearizes concurrent writes per device, not globally.
type FleetService struct {
	deviceRepo repository.DeviceRepository
	logger     model.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewFleetService creates the registry service.
func NewFleetService(deviceRepo repository.DeviceRepository, logger model.Logger) *FleetService {
	return &FleetService{
		deviceRepo: deviceRepo,
		logger:     logger,
		locks:      make(map[string]*sync.Mutex),
	}
}

// lockDevice returns the per-device mutex, creating it on first use. Lock
// entries are retained for the process lifetime; the fleet is bounded by
// registered hardware, not request volume.
func (s *FleetService) lockDevice(deviceID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	mu, ok := s.locks[deviceID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[deviceID] = mu
	}
	return mu
}

// Register creates a device, or overwrites the mutable fields when the id is
// already registered. The operation is idempotent by device id.
func (s *FleetService) Register(ctx context.Context, in aggregate.Input) (*aggregate.Device, error) {
	if in.DeviceID == "" {
		return nil, errors.New(errors.KindValidation, "fleet.register", "device id must not be empty")
	}

	mu := s.lockDevice(in.DeviceID)
	mu.Lock()
	defer mu.Unlock()

	existing, err := s.deviceRepo.FindByDeviceID(ctx, in.DeviceID)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "fleet.register", "failed to check existing device", err)
	}

	if existing != nil {
		if err := existing.Reregister(in); err != nil {
			return nil, err
		}
		if err := s.deviceRepo.Update(ctx, existing); err != nil {
			return nil, errors.Wrap(errors.KindStorage, "fleet.register", "failed to update device", err)
		}
		return existing, nil
	}

	device, err := aggregate.NewDevice(in)
	if err != nil {
		return nil, err
	}
	if err := s.deviceRepo.Save(ctx, device); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "fleet.register", "failed to save device", err)
	}

	s.logger.Info("device %s registered for owner %s", device.DeviceID, device.OwnerID)
	return device, nil
}

// Update applies a partial patch to a registered device.
func (s *FleetService) Update(ctx context.Context, deviceID string, patch aggregate.Patch) (*aggregate.Device, error) {
	mu := s.lockDevice(deviceID)
	mu.Lock()
	defer mu.Unlock()

	device, err := s.deviceRepo.FindByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "fleet.update", "failed to load device", err)
	}
	if device == nil {
		return nil, errors.New(errors.KindNotFound, "fleet.update", "unknown device id")
	}

	if err := device.ApplyPatch(patch); err != nil {
		return nil, err
	}
	if err := s.deviceRepo.Update(ctx, device); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "fleet.update", "failed to persist device", err)
	}
	return device, nil
}

// Get returns the device or nil when unknown; absence is not an error.
func (s *FleetService) Get(ctx context.Context, deviceID string) (*aggregate.Device, error) {
	device, err := s.deviceRepo.FindByDeviceID(ctx, deviceID)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "fleet.get", "failed to load device", err)
	}
	return device, nil
}

// List returns all devices, or only one owner's when ownerID is non-empty.
// Callers must not rely on ordering.
func (s *FleetService) List(ctx context.Context, ownerID string) ([]*aggregate.Device, error) {
	var (
		devices []*aggregate.Device
		err     error
	)
	if ownerID == "" {
		devices, err = s.deviceRepo.FindAll(ctx)
	} else {
		devices, err = s.deviceRepo.ListByOwnerID(ctx, ownerID)
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "fleet.list", "failed to list devices", err)
	}
	return devices, nil
}

// Remove deletes a device. Removing an absent id succeeds as a no-op.
func (s *FleetService) Remove(ctx context.Context, deviceID string) error {
	mu := s.lockDevice(deviceID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.deviceRepo.Delete(ctx, deviceID); err != nil {
		return errors.Wrap(errors.KindStorage, "fleet.remove", "failed to delete device", err)
	}
	return nil
}

// OptimizationFor computes a parameter recommendation from the device's last
// stored telemetry.
func (s *FleetService) OptimizationFor(ctx context.Context, deviceID string, opts optimizer.Options) (optimizer.Recommendation, error) {
	device, err := s.deviceRepo.FindByDeviceID(ctx, deviceID)
	if err != nil {
		return optimizer.Recommendation{}, errors.Wrap(errors.KindStorage, "fleet.optimization", "failed to load device", err)
	}
	if device == nil {
		return optimizer.Recommendation{}, errors.New(errors.KindNotFound, "fleet.optimization", "unknown device id")
	}

	telemetry := optimizer.Telemetry{
		HashRate:    device.HashRate,
		Temperature: device.Temperature,
		PowerWatts:  device.PowerWatts,
	}
	return optimizer.Recommend(telemetry, opts), nil
}

// RecordTelemetry ingests a pushed sample. Failures are logged and swallowed;
// a bad or slow telemetry push must never disturb registry callers.
func (s *FleetService) RecordTelemetry(ctx context.Context, deviceID string, sample aggregate.TelemetrySample) {
	mu := s.lockDevice(deviceID)
	mu.Lock()
	defer mu.Unlock()

	device, err := s.deviceRepo.FindByDeviceID(ctx, deviceID)
	if err != nil {
		s.logger.Warn("telemetry lookup failed for %s: %v", deviceID, err)
		return
	}
	if device == nil {
		s.logger.Debug("telemetry for unregistered device %s dropped", deviceID)
		return
	}

	if err := device.RecordSample(sample); err != nil {
		s.logger.Warn("telemetry sample rejected for %s: %v", deviceID, err)
		return
	}
	if err := s.deviceRepo.Update(ctx, device); err != nil {
		s.logger.Warn("telemetry persist failed for %s: %v", deviceID, err)
	}
}
