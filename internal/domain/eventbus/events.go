package eventbus

import "time"

// Event topics
const (
	// Fleet events
	EventDeviceRegistered = "device:registered"
	EventDeviceUpdated    = "device:updated"
	EventDeviceRemoved    = "device:removed"

	// Cloud miner events
	EventConfigUpdated       = "config:updated"
	EventConfigReset         = "config:reset"
	EventAccessKeyRegenerate = "accesskey:regenerated"
)

// AuditEvent is the payload published for every privileged operation.
type AuditEvent struct {
	ActorID string                 `json:"actor_id"`
	Action  string                 `json:"action"`
	Detail  map[string]interface{} `json:"detail,omitempty"`
	At      time.Time              `json:"at"`
}
