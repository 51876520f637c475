package service

import (
	"context"
	"sync"
	"testing"

	"hashhive-server-go/internal/domain/fleet/aggregate"
	"hashhive-server-go/internal/platform/errors"
)

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type memoryDeviceRepo struct {
	mu      sync.Mutex
	nextID  uint
	devices map[string]*aggregate.Device
}

func newMemoryDeviceRepo() *memoryDeviceRepo {
	return &memoryDeviceRepo{devices: make(map[string]*aggregate.Device)}
}

func (r *memoryDeviceRepo) Save(_ context.Context, device *aggregate.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	device.ID = r.nextID
	copied := *device
	r.devices[device.DeviceID] = &copied
	return nil
}

func (r *memoryDeviceRepo) Update(_ context.Context, device *aggregate.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *device
	r.devices[device.DeviceID] = &copied
	return nil
}

func (r *memoryDeviceRepo) FindByDeviceID(_ context.Context, deviceID string) (*aggregate.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	device, ok := r.devices[deviceID]
	if !ok {
		return nil, nil
	}
	copied := *device
	return &copied, nil
}

func (r *memoryDeviceRepo) FindAll(_ context.Context) ([]*aggregate.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*aggregate.Device, 0, len(r.devices))
	for _, device := range r.devices {
		copied := *device
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memoryDeviceRepo) ListByOwnerID(_ context.Context, ownerID string) ([]*aggregate.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*aggregate.Device
	for _, device := range r.devices {
		if device.OwnerID == ownerID {
			copied := *device
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memoryDeviceRepo) Delete(_ context.Context, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.devices, deviceID)
	return nil
}

func floatPtr(v float64) *float64 { return &v }

func newTestService() *FleetService {
	return NewFleetService(newMemoryDeviceRepo(), noopLogger{})
}

func TestRegisterAssignsDefaults(t *testing.T) {
	svc := newTestService()

	device, err := svc.Register(context.Background(), aggregate.Input{
		DeviceID:    "rig-001",
		OwnerID:     "miner-7",
		DisplayName: "Garage rig",
		HashRate:    42.5,
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if device.Status != aggregate.DeviceStatusActive {
		t.Errorf("expected status active, got %s", device.Status)
	}
	if device.RegisteredAt.IsZero() || device.LastUpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestRegisterIsIdempotentByDeviceID(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, err := svc.Register(ctx, aggregate.Input{
		DeviceID:    "rig-001",
		OwnerID:     "miner-7",
		DisplayName: "Garage rig",
		HashRate:    42.5,
	})
	if err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}

	second, err := svc.Register(ctx, aggregate.Input{
		DeviceID:    "rig-001",
		OwnerID:     "miner-7",
		DisplayName: "Garage rig v2",
		HashRate:    55.0,
	})
	if err != nil {
		t.Fatalf("second Register returned error: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("re-registration must keep identity: got id %d, want %d", second.ID, first.ID)
	}
	if !second.RegisteredAt.Equal(first.RegisteredAt) {
		t.Error("re-registration must preserve RegisteredAt")
	}
	if second.DisplayName != "Garage rig v2" || second.HashRate != 55.0 {
		t.Errorf("re-registration must overwrite mutable fields: %+v", second)
	}

	all, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected a single device after re-registration, got %d", len(all))
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		in   aggregate.Input
	}{
		{"empty device id", aggregate.Input{DisplayName: "x", HashRate: 1}},
		{"empty display name", aggregate.Input{DeviceID: "rig-001", HashRate: 1}},
		{"negative hash rate", aggregate.Input{DeviceID: "rig-001", DisplayName: "x", HashRate: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.in)
			if !errors.IsKind(err, errors.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdatePatchPreservesUnsetFields(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, aggregate.Input{
		DeviceID:    "rig-001",
		OwnerID:     "miner-7",
		DisplayName: "Garage rig",
		HashRate:    42.5,
		Temperature: floatPtr(61.0),
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	status := aggregate.DeviceStatusInactive
	device, err := svc.Update(ctx, "rig-001", aggregate.Patch{Status: &status})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if device.Status != aggregate.DeviceStatusInactive {
		t.Errorf("expected status inactive, got %s", device.Status)
	}
	if device.DisplayName != "Garage rig" || device.HashRate != 42.5 {
		t.Errorf("patch must not touch unset fields: %+v", device)
	}
	if device.Temperature == nil || *device.Temperature != 61.0 {
		t.Errorf("patch must not clear telemetry fields: %+v", device.Temperature)
	}
}

func TestUpdateUnknownDevice(t *testing.T) {
	svc := newTestService()

	name := "renamed"
	_, err := svc.Update(context.Background(), "ghost", aggregate.Patch{DisplayName: &name})
	if !errors.IsKind(err, errors.KindNotFound) {
		t.Fatalf("expected not_found error, got %v", err)
	}
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, aggregate.Input{DeviceID: "rig-001", DisplayName: "rig", HashRate: 1})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	bogus := aggregate.DeviceStatus("melting")
	_, err = svc.Update(ctx, "rig-001", aggregate.Patch{Status: &bogus})
	if !errors.IsKind(err, errors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetAbsentReturnsNil(t *testing.T) {
	svc := newTestService()

	device, err := svc.Get(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if device != nil {
		t.Fatalf("expected nil for absent device, got %+v", device)
	}
}

func TestListFiltersByOwner(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, in := range []aggregate.Input{
		{DeviceID: "rig-001", OwnerID: "miner-7", DisplayName: "a", HashRate: 1},
		{DeviceID: "rig-002", OwnerID: "miner-7", DisplayName: "b", HashRate: 2},
		{DeviceID: "rig-003", OwnerID: "miner-9", DisplayName: "c", HashRate: 3},
	} {
		if _, err := svc.Register(ctx, in); err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
	}

	mine, err := svc.List(ctx, "miner-7")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("expected 2 devices for miner-7, got %d", len(mine))
	}

	all, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 devices total, got %d", len(all))
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, aggregate.Input{DeviceID: "rig-001", DisplayName: "rig", HashRate: 1}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if err := svc.Remove(ctx, "rig-001"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if err := svc.Remove(ctx, "rig-001"); err != nil {
		t.Fatalf("second Remove must succeed as a no-op, got %v", err)
	}
	if err := svc.Remove(ctx, "never-registered"); err != nil {
		t.Fatalf("Remove of absent id must succeed, got %v", err)
	}
}

func TestRecordTelemetryUpdatesDevice(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, aggregate.Input{DeviceID: "rig-001", DisplayName: "rig", HashRate: 10}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	svc.RecordTelemetry(ctx, "rig-001", aggregate.TelemetrySample{
		HashRate:    33.3,
		Temperature: floatPtr(72.5),
	})

	device, err := svc.Get(ctx, "rig-001")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if device.HashRate != 33.3 {
		t.Errorf("expected telemetry hash rate 33.3, got %v", device.HashRate)
	}
	if device.Temperature == nil || *device.Temperature != 72.5 {
		t.Errorf("expected telemetry temperature 72.5, got %v", device.Temperature)
	}
}

func TestRecordTelemetryDropsUnknownDevice(t *testing.T) {
	svc := newTestService()

	// Must not panic or create a device.
	svc.RecordTelemetry(context.Background(), "ghost", aggregate.TelemetrySample{HashRate: 1})

	device, err := svc.Get(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if device != nil {
		t.Fatalf("telemetry must not register devices, got %+v", device)
	}
}
