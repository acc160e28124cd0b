// Package bus carries refresh signals between the screens of a session:
// whenever the persisted task collection changes, every subscriber is told
// before the next read so no view renders stale data.
package bus

import "sync"

// EventType describes what happened to a task.
type EventType string

const (
	TaskCreated     EventType = "created"
	TaskUpdated     EventType = "updated"
	TaskDeleted     EventType = "deleted"
	SettingsUpdated EventType = "settingsUpdated"
)

// Event is one refresh signal. Origin identifies the publishing instance
// so fan-out listeners can skip events they already dispatched locally.
type Event struct {
	Type    EventType `json:"type"`
	TaskID  string    `json:"taskId"`
	OwnerID string    `json:"ownerId"`
	Origin  string    `json:"origin,omitempty"`
}

// Refresh is the in-process signal bus. Dispatch is synchronous: Publish
// returns only after every subscriber ran, which is what guarantees a
// refresh lands before the next read from a consuming view.
type Refresh struct {
	mu       sync.RWMutex
	handlers []func(Event)
}

// NewRefresh creates an empty bus.
func NewRefresh() *Refresh {
	return &Refresh{}
}

// Subscribe registers a handler for every subsequent event. There is no
// unsubscribe; subscribers live as long as the process.
func (r *Refresh) Subscribe(fn func(Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, fn)
}

// Publish delivers the event to all subscribers in registration order.
func (r *Refresh) Publish(ev Event) {
	r.mu.RLock()
	handlers := r.handlers
	r.mu.RUnlock()
	for _, fn := range handlers {
		fn(ev)
	}
}
