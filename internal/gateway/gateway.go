// Package gateway is the single authorization chokepoint: every caller-facing
// operation passes through Authorize before touching domain services, and
// every privileged mutation emits an audit event on success.
package gateway

import (
	"context"
	"time"

	"hashhive-server-go/internal/domain/auth"
	"hashhive-server-go/internal/domain/auth/model"
	"hashhive-server-go/internal/domain/cloudminer"
	"hashhive-server-go/internal/domain/eventbus"
	"hashhive-server-go/internal/domain/fleet/aggregate"
	"hashhive-server-go/internal/domain/fleet/service"
	"hashhive-server-go/internal/domain/optimizer"
	"hashhive-server-go/internal/platform/errors"
	"hashhive-server-go/internal/platform/storage"
)

// AuditReader exposes the persisted audit trail, most recent first.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]storage.AuditRecord, error)
}

type Gateway struct {
	fleet  *service.FleetService
	cloud  *cloudminer.Service
	bus    *eventbus.Bus
	audits AuditReader
	logger model.Logger
}

func New(fleet *service.FleetService, cloud *cloudminer.Service, bus *eventbus.Bus, logger model.Logger) *Gateway {
	return &Gateway{
		fleet:  fleet,
		cloud:  cloud,
		bus:    bus,
		logger: logger,
	}
}

// WithAuditReader wires the audit trail; without it AuditRecent reports
// not_found.
func (g *Gateway) WithAuditReader(r AuditReader) *Gateway {
	g.audits = r
	return g
}

// audit publishes an audit event. Publishing is fire-and-forget; the
// subscriber persists asynchronously.
func (g *Gateway) audit(actor *model.Actor, topic, action string, detail map[string]interface{}) {
	if g.bus == nil {
		return
	}
	g.bus.Publish(topic, eventbus.AuditEvent{
		ActorID: actor.UserID,
		Action:  action,
		Detail:  detail,
		At:      time.Now(),
	})
}

func (g *Gateway) DeviceRegister(ctx context.Context, actor *model.Actor, in aggregate.Input) (*aggregate.Device, error) {
	if err := auth.Authorize(actor, auth.OpDeviceRegister); err != nil {
		return nil, err
	}
	device, err := g.fleet.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	g.audit(actor, eventbus.EventDeviceRegistered, string(auth.OpDeviceRegister), map[string]interface{}{
		"deviceId": device.DeviceID,
		"ownerId":  device.OwnerID,
	})
	return device, nil
}

func (g *Gateway) DeviceUpdate(ctx context.Context, actor *model.Actor, deviceID string, patch aggregate.Patch) (*aggregate.Device, error) {
	if err := auth.Authorize(actor, auth.OpDeviceUpdate); err != nil {
		return nil, err
	}
	device, err := g.fleet.Update(ctx, deviceID, patch)
	if err != nil {
		return nil, err
	}
	g.audit(actor, eventbus.EventDeviceUpdated, string(auth.OpDeviceUpdate), map[string]interface{}{
		"deviceId": device.DeviceID,
	})
	return device, nil
}

// DeviceGet returns the device, or a not_found error so transports share one
// absence shape.
func (g *Gateway) DeviceGet(ctx context.Context, actor *model.Actor, deviceID string) (*aggregate.Device, error) {
	if err := auth.Authorize(actor, auth.OpDeviceGet); err != nil {
		return nil, err
	}
	device, err := g.fleet.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, errors.New(errors.KindNotFound, "gateway.device.get", "unknown device id")
	}
	return device, nil
}

func (g *Gateway) DeviceList(ctx context.Context, actor *model.Actor, ownerID string) ([]*aggregate.Device, error) {
	if err := auth.Authorize(actor, auth.OpDeviceList); err != nil {
		return nil, err
	}
	return g.fleet.List(ctx, ownerID)
}

func (g *Gateway) DeviceRemove(ctx context.Context, actor *model.Actor, deviceID string) error {
	if err := auth.Authorize(actor, auth.OpDeviceRemove); err != nil {
		return err
	}
	if err := g.fleet.Remove(ctx, deviceID); err != nil {
		return err
	}
	g.audit(actor, eventbus.EventDeviceRemoved, string(auth.OpDeviceRemove), map[string]interface{}{
		"deviceId": deviceID,
	})
	return nil
}

func (g *Gateway) DeviceOptimization(ctx context.Context, actor *model.Actor, deviceID string, opts optimizer.Options) (optimizer.Recommendation, error) {
	if err := auth.Authorize(actor, auth.OpDeviceOptimization); err != nil {
		return optimizer.Recommendation{}, err
	}
	return g.fleet.OptimizationFor(ctx, deviceID, opts)
}

func (g *Gateway) ConfigGet(ctx context.Context, actor *model.Actor) (*cloudminer.Config, error) {
	if err := auth.Authorize(actor, auth.OpConfigGet); err != nil {
		return nil, err
	}
	return g.cloud.GetConfig(ctx)
}

func (g *Gateway) ConfigUpdate(ctx context.Context, actor *model.Actor, patch cloudminer.Patch, expectedVersion int64) (*cloudminer.Config, error) {
	if err := auth.Authorize(actor, auth.OpConfigUpdate); err != nil {
		return nil, err
	}
	cfg, err := g.cloud.UpdateConfig(ctx, patch, expectedVersion)
	if err != nil {
		return nil, err
	}
	g.audit(actor, eventbus.EventConfigUpdated, string(auth.OpConfigUpdate), map[string]interface{}{
		"version": cfg.Version,
	})
	return cfg, nil
}

func (g *Gateway) ConfigReset(ctx context.Context, actor *model.Actor) (*cloudminer.Config, error) {
	if err := auth.Authorize(actor, auth.OpConfigReset); err != nil {
		return nil, err
	}
	cfg, err := g.cloud.ResetConfig(ctx)
	if err != nil {
		return nil, err
	}
	g.audit(actor, eventbus.EventConfigReset, string(auth.OpConfigReset), map[string]interface{}{
		"version": cfg.Version,
	})
	return cfg, nil
}

func (g *Gateway) AccessKeyRead(ctx context.Context, actor *model.Actor) (*cloudminer.AccessKey, error) {
	if err := auth.Authorize(actor, auth.OpAccessKeyRead); err != nil {
		return nil, err
	}
	return g.cloud.CurrentKey(ctx)
}

func (g *Gateway) AccessKeyRegenerate(ctx context.Context, actor *model.Actor) (*cloudminer.AccessKey, error) {
	if err := auth.Authorize(actor, auth.OpAccessKeyRegenerate); err != nil {
		return nil, err
	}
	key, err := g.cloud.Regenerate(ctx)
	if err != nil {
		return nil, err
	}
	g.audit(actor, eventbus.EventAccessKeyRegenerate, string(auth.OpAccessKeyRegenerate), map[string]interface{}{
		"keyVersion": key.Version,
	})
	return key, nil
}

func (g *Gateway) AuditRecent(ctx context.Context, actor *model.Actor, limit int) ([]storage.AuditRecord, error) {
	if err := auth.Authorize(actor, auth.OpAuditRead); err != nil {
		return nil, err
	}
	if g.audits == nil {
		return nil, errors.New(errors.KindNotFound, "gateway.audit", "audit trail not enabled")
	}
	return g.audits.Recent(ctx, limit)
}
