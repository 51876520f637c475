package auth

import (
	"hashhive-server-go/internal/domain/auth/model"
	"hashhive-server-go/internal/platform/errors"
)

// Operation identifies a gateway operation for authorization purposes.
type Operation string

const (
	OpDeviceRegister      Operation = "device.register"
	OpDeviceUpdate        Operation = "device.update"
	OpDeviceGet           Operation = "device.get"
	OpDeviceList          Operation = "device.list"
	OpDeviceRemove        Operation = "device.remove"
	OpDeviceOptimization  Operation = "device.optimization"
	OpConfigGet           Operation = "cloudminer.config.get"
	OpConfigUpdate        Operation = "cloudminer.config.update"
	OpConfigReset         Operation = "cloudminer.config.reset"
	OpAccessKeyRead       Operation = "cloudminer.accesskey.read"
	OpAccessKeyRegenerate Operation = "cloudminer.accesskey.regenerate"
	OpAuditRead           Operation = "audit.read"
)

// requirement is one row of the authorization policy.
type requirement struct {
	minRole   model.Role
	twoFactor bool
}

// policy is the single reviewable authorization surface: every gateway
// operation must appear here, and the gateway consults nothing else.
var policy = map[Operation]requirement{
	OpDeviceRegister:      {minRole: model.RoleUser},
	OpDeviceUpdate:        {minRole: model.RoleUser},
	OpDeviceGet:           {minRole: model.RoleUser},
	OpDeviceList:          {minRole: model.RoleUser},
	OpDeviceRemove:        {minRole: model.RoleUser},
	OpDeviceOptimization:  {minRole: model.RoleUser},
	OpConfigGet:           {minRole: model.RoleUser},
	OpConfigUpdate:        {minRole: model.RoleAdmin, twoFactor: true},
	OpConfigReset:         {minRole: model.RoleOwner, twoFactor: true},
	OpAccessKeyRead:       {minRole: model.RoleOwner, twoFactor: true},
	OpAccessKeyRegenerate: {minRole: model.RoleOwner, twoFactor: true},
	OpAuditRead:           {minRole: model.RoleOwner, twoFactor: true},
}

// Authorize evaluates the policy for an operation. Checks run in a fixed
// order so callers receive the most actionable rejection: authentication,
// then role, then two-factor. It performs no mutation and must be called
// before any state change.
func Authorize(actor *model.Actor, op Operation) error {
	if actor == nil || actor.UserID == "" {
		return errors.New(errors.KindAuthentication, string(op), "authentication required")
	}

	req, ok := policy[op]
	if !ok {
		// Unknown operations are denied rather than defaulted open.
		return errors.New(errors.KindAuthorization, string(op), "operation not permitted")
	}

	if actor.Role.Tier() < req.minRole.Tier() {
		return errors.New(errors.KindAuthorization, string(op), "insufficient role")
	}

	if req.twoFactor && !actor.TwoFactorSatisfied {
		return errors.New(errors.KindTwoFactor, string(op), "two-factor authentication required")
	}

	return nil
}
