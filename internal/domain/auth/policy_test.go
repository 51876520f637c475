package auth

import (
	"testing"

	"hashhive-server-go/internal/domain/auth/model"
	"hashhive-server-go/internal/platform/errors"
)

func TestAuthorizeRejectsMissingActor(t *testing.T) {
	for _, actor := range []*model.Actor{nil, {Role: model.RoleOwner, TwoFactorSatisfied: true}} {
		err := Authorize(actor, OpDeviceList)
		if !errors.IsKind(err, errors.KindAuthentication) {
			t.Fatalf("expected authentication error for actor %+v, got %v", actor, err)
		}
	}
}

func TestAuthorizeRoleTiers(t *testing.T) {
	tests := []struct {
		name string
		actor model.Actor
		op   Operation
		kind errors.Kind
		ok   bool
	}{
		{
			name:  "user can register devices",
			actor: model.Actor{UserID: "u1", Role: model.RoleUser},
			op:    OpDeviceRegister,
			ok:    true,
		},
		{
			name:  "user can read config",
			actor: model.Actor{UserID: "u1", Role: model.RoleUser},
			op:    OpConfigGet,
			ok:    true,
		},
		{
			name:  "user cannot update config",
			actor: model.Actor{UserID: "u1", Role: model.RoleUser, TwoFactorSatisfied: true},
			op:    OpConfigUpdate,
			kind:  errors.KindAuthorization,
		},
		{
			name:  "admin cannot reset config",
			actor: model.Actor{UserID: "a1", Role: model.RoleAdmin, TwoFactorSatisfied: true},
			op:    OpConfigReset,
			kind:  errors.KindAuthorization,
		},
		{
			name:  "admin cannot read access key",
			actor: model.Actor{UserID: "a1", Role: model.RoleAdmin, TwoFactorSatisfied: true},
			op:    OpAccessKeyRead,
			kind:  errors.KindAuthorization,
		},
		{
			name:  "owner with 2fa can regenerate key",
			actor: model.Actor{UserID: "o1", Role: model.RoleOwner, TwoFactorSatisfied: true},
			op:    OpAccessKeyRegenerate,
			ok:    true,
		},
		{
			name:  "unknown role is below every tier",
			actor: model.Actor{UserID: "x1", Role: model.Role("root")},
			op:    OpDeviceList,
			kind:  errors.KindAuthorization,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(&tt.actor, tt.op)
			if tt.ok {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if !errors.IsKind(err, tt.kind) {
				t.Fatalf("expected %s error, got %v", tt.kind, err)
			}
		})
	}
}

func TestAuthorizeTwoFactorShortCircuitsAfterRole(t *testing.T) {
	// Role check outranks the 2FA check: an under-privileged actor is told
	// about the role problem, not prompted for 2FA.
	err := Authorize(&model.Actor{UserID: "u1", Role: model.RoleUser}, OpConfigUpdate)
	if !errors.IsKind(err, errors.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}

	// Sufficient role without 2FA yields the 2FA prompt.
	err = Authorize(&model.Actor{UserID: "a1", Role: model.RoleAdmin}, OpConfigUpdate)
	if !errors.IsKind(err, errors.KindTwoFactor) {
		t.Fatalf("expected two-factor error, got %v", err)
	}
}

func TestAuthorizeUnknownOperationDenied(t *testing.T) {
	err := Authorize(&model.Actor{UserID: "o1", Role: model.RoleOwner, TwoFactorSatisfied: true}, Operation("unknown.op"))
	if !errors.IsKind(err, errors.KindAuthorization) {
		t.Fatalf("expected authorization error for unknown operation, got %v", err)
	}
}
