package aggregate

import (
	"time"

	"hashhive-server-go/internal/platform/errors"
)

// DeviceStatus is the operational state of a mining device.
type DeviceStatus string

const (
	DeviceStatusActive   DeviceStatus = "active"
	DeviceStatusInactive DeviceStatus = "inactive"
	DeviceStatusError    DeviceStatus = "error"
)

// Valid reports whether the status is one of the known states.
func (s DeviceStatus) Valid() bool {
	switch s {
	case DeviceStatusActive, DeviceStatusInactive, DeviceStatusError:
		return true
	}
	return false
}

// Device is the fleet aggregate root: a registered mining unit and its last
// observed telemetry. Devices are never deleted implicitly; removal is an
// explicit, idempotent registry operation.
type Device struct {
	ID            uint         `json:"id"`
	DeviceID      string       `json:"deviceId"`
	OwnerID       string       `json:"ownerId"`
	DisplayName   string       `json:"displayName"`
	Status        DeviceStatus `json:"status"`
	HashRate      float64      `json:"hashRate"`
	Temperature   *float64     `json:"temperature,omitempty"`
	PowerWatts    *float64     `json:"powerWatts,omitempty"`
	RegisteredAt  time.Time    `json:"registeredAt"`
	LastUpdatedAt time.Time    `json:"lastUpdatedAt"`
}

// Input carries the caller-supplied fields for registration.
type Input struct {
	DeviceID    string   `json:"deviceId"`
	OwnerID     string   `json:"ownerId"`
	DisplayName string   `json:"displayName"`
	HashRate    float64  `json:"hashRate"`
	Temperature *float64 `json:"temperature,omitempty"`
	PowerWatts  *float64 `json:"powerWatts,omitempty"`
}

// Patch describes a partial device update; nil fields are untouched.
type Patch struct {
	DisplayName *string       `json:"displayName,omitempty"`
	Status      *DeviceStatus `json:"status,omitempty"`
	HashRate    *float64      `json:"hashRate,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	PowerWatts  *float64      `json:"powerWatts,omitempty"`
}

// TelemetrySample is one observation pushed by a device or the telemetry
// feed.
type TelemetrySample struct {
	HashRate    float64  `json:"hashRate"`
	Temperature *float64 `json:"temperature,omitempty"`
	PowerWatts  *float64 `json:"powerWatts,omitempty"`
}

// NewDevice validates registration input and builds the aggregate.
func NewDevice(in Input) (*Device, error) {
	if in.DeviceID == "" {
		return nil, errors.New(errors.KindValidation, "device.new", "device id must not be empty")
	}
	if in.DisplayName == "" {
		return nil, errors.New(errors.KindValidation, "device.new", "display name must not be empty")
	}
	if in.HashRate < 0 {
		return nil, errors.New(errors.KindValidation, "device.new", "hash rate must not be negative")
	}

	now := time.Now()
	return &Device{
		DeviceID:      in.DeviceID,
		OwnerID:       in.OwnerID,
		DisplayName:   in.DisplayName,
		Status:        DeviceStatusActive,
		HashRate:      in.HashRate,
		Temperature:   in.Temperature,
		PowerWatts:    in.PowerWatts,
		RegisteredAt:  now,
		LastUpdatedAt: now,
	}, nil
}

// Reregister overwrites the mutable fields with fresh registration input.
// Identity and registration time are preserved.
func (d *Device) Reregister(in Input) error {
	if in.DisplayName == "" {
		return errors.New(errors.KindValidation, "device.reregister", "display name must not be empty")
	}
	if in.HashRate < 0 {
		return errors.New(errors.KindValidation, "device.reregister", "hash rate must not be negative")
	}

	d.OwnerID = in.OwnerID
	d.DisplayName = in.DisplayName
	d.HashRate = in.HashRate
	d.Temperature = in.Temperature
	d.PowerWatts = in.PowerWatts
	d.LastUpdatedAt = time.Now()
	return nil
}

// ApplyPatch applies the provided fields and refreshes LastUpdatedAt.
func (d *Device) ApplyPatch(p Patch) error {
	if p.DisplayName != nil {
		if *p.DisplayName == "" {
			return errors.New(errors.KindValidation, "device.patch", "display name must not be empty")
		}
		d.DisplayName = *p.DisplayName
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return errors.New(errors.KindValidation, "device.patch", "unknown device status")
		}
		d.Status = *p.Status
	}
	if p.HashRate != nil {
		if *p.HashRate < 0 {
			return errors.New(errors.KindValidation, "device.patch", "hash rate must not be negative")
		}
		d.HashRate = *p.HashRate
	}
	if p.Temperature != nil {
		d.Temperature = p.Temperature
	}
	if p.PowerWatts != nil {
		d.PowerWatts = p.PowerWatts
	}
	d.LastUpdatedAt = time.Now()
	return nil
}

// RecordSample folds a telemetry observation into the aggregate.
func (d *Device) RecordSample(s TelemetrySample) error {
	if s.HashRate < 0 {
		return errors.New(errors.KindValidation, "device.telemetry", "hash rate must not be negative")
	}
	d.HashRate = s.HashRate
	if s.Temperature != nil {
		d.Temperature = s.Temperature
	}
	if s.PowerWatts != nil {
		d.PowerWatts = s.PowerWatts
	}
	d.LastUpdatedAt = time.Now()
	return nil
}
