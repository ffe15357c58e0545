package notify

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Tray holds the currently visible notifications. Entries stack oldest
// first, expire after ttl, and can be dismissed individually. When more than
// size are active the oldest is pushed out.
type Tray struct {
	items *expirable.LRU[uuid.UUID, Notification]
}

// NewTray creates a tray. The expiry sweeper runs for the life of the process.
func NewTray(size int, ttl time.Duration) *Tray {
	return &Tray{
		items: expirable.NewLRU[uuid.UUID, Notification](size, nil, ttl),
	}
}

func (t *Tray) Deliver(n Notification) {
	t.items.Add(n.ID, n)
}

// Active returns the unexpired notifications, oldest first.
func (t *Tray) Active() []Notification {
	values := t.items.Values()
	active := make([]Notification, 0, len(values))
	for _, n := range values {
		// expired entries leave zero values behind
		if n.ID == uuid.Nil {
			continue
		}
		active = append(active, n)
	}
	return active
}

// Dismiss removes a notification; it reports whether it was still visible.
func (t *Tray) Dismiss(id uuid.UUID) bool {
	return t.items.Remove(id)
}

// Len is the number of active notifications.
func (t *Tray) Len() int {
	return len(t.Active())
}
