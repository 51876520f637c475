package eventbus

import (
	"context"
	"time"
)

// AuditEntry is the persisted form of an AuditEvent.
type AuditEntry struct {
	ActorID string
	Action  string
	Detail  map[string]interface{}
	At      time.Time
}

// AuditStore persists audit entries.
type AuditStore interface {
	Append(ctx context.Context, entry AuditEntry) error
}

type Logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// AuditRecorder subscribes to privileged-operation topics and writes each
// event to the audit store.
type AuditRecorder struct {
	bus    *Bus
	store  AuditStore
	logger Logger
	topics []string
}

func NewAuditRecorder(bus *Bus, store AuditStore, logger Logger) *AuditRecorder {
	return &AuditRecorder{
		bus:    bus,
		store:  store,
		logger: logger,
		topics: []string{
			EventDeviceRegistered,
			EventDeviceUpdated,
			EventDeviceRemoved,
			EventConfigUpdated,
			EventConfigReset,
			EventAccessKeyRegenerate,
		},
	}
}

// Start registers the async handler on every audited topic.
func (r *AuditRecorder) Start() error {
	for _, topic := range r.topics {
		if err := r.bus.SubscribeAsync(topic, r.handle); err != nil {
			return err
		}
	}
	return nil
}

// Stop waits for in-flight handlers and unsubscribes.
func (r *AuditRecorder) Stop() {
	r.bus.WaitAsync()
	for _, topic := range r.topics {
		_ = r.bus.Unsubscribe(topic, r.handle)
	}
}

func (r *AuditRecorder) handle(event AuditEvent) {
	at := event.At
	if at.IsZero() {
		at = time.Now()
	}
	entry := AuditEntry{
		ActorID: event.ActorID,
		Action:  event.Action,
		Detail:  event.Detail,
		At:      at,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.Append(ctx, entry); err != nil {
		r.logger.Error("audit: failed to persist %s by %s: %v", event.Action, event.ActorID, err)
	}
}
