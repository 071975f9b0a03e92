// Package notify broadcasts session change notifications to viewers.
//
// Delivery is best-effort and fire-and-forget: a failed or slow subscriber
// degrades to a stale display, never to a failed mutation. The core only
// promises to emit after the durable write has succeeded.
package notify

// Change describes one session mutation for subscribers.
type Change struct {
	EncounterID string `json:"encounterId"`
	Status      string `json:"status"`
	Round       int    `json:"round"`
	TurnIndex   int    `json:"turnIndex"`
}

// Notifier receives a notification after each persisted session mutation
type Notifier interface {
	SessionChanged(change Change)
}

// Noop is a Notifier that discards all notifications
type Noop struct{}

// SessionChanged does nothing
func (Noop) SessionChanged(Change) {}
