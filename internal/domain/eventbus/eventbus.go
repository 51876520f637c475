package eventbus

import (
	evbus "github.com/asaskevich/EventBus"
)

// Bus wraps the process-wide event bus. Handlers for privileged-operation
// events run asynchronously so publishers never block on persistence.
type Bus struct {
	inner evbus.Bus
}

func New() *Bus {
	return &Bus{inner: evbus.New()}
}

// Publish emits an event to all subscribers of the topic.
func (b *Bus) Publish(topic string, args ...interface{}) {
	b.inner.Publish(topic, args...)
}

// SubscribeAsync registers a handler that runs in its own goroutine per event.
func (b *Bus) SubscribeAsync(topic string, fn interface{}) error {
	return b.inner.SubscribeAsync(topic, fn, false)
}

// Subscribe registers a synchronous handler.
func (b *Bus) Subscribe(topic string, fn interface{}) error {
	return b.inner.Subscribe(topic, fn)
}

// Unsubscribe removes a previously registered handler.
func (b *Bus) Unsubscribe(topic string, fn interface{}) error {
	return b.inner.Unsubscribe(topic, fn)
}

// WaitAsync blocks until all in-flight async handlers have finished.
func (b *Bus) WaitAsync() {
	b.inner.WaitAsync()
}
