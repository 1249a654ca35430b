package alert

import (
	"context"
	"log"

	"github.com/lukman83/pricehub/internal/models"
	"github.com/lukman83/pricehub/internal/state"
)

// Bell is the header's alert indicator. It is background chrome: failures
// fall back to the cached list and are only logged.
type Bell struct {
	client *Client
	store  *state.Store
}

func NewBell(client *Client, store *state.Store) *Bell {
	return &Bell{client: client, store: store}
}

// Refresh fetches the user's alerts, caching them on success.
func (b *Bell) Refresh(ctx context.Context) []models.Alert {
	alerts, err := b.client.List(ctx)
	if err != nil {
		log.Printf("[alert] refresh bell: %v", err)
		return b.store.CachedAlerts()
	}
	if err := b.store.CacheAlerts(alerts); err != nil {
		log.Printf("[alert] cache alerts: %v", err)
	}
	return alerts
}

// ActiveCount is the number shown on the bell.
func ActiveCount(alerts []models.Alert) int {
	n := 0
	for _, a := range alerts {
		if a.IsActive {
			n++
		}
	}
	return n
}

// Delete removes an alert and drops it from the cache.
func (b *Bell) Delete(ctx context.Context, id string) error {
	if err := b.client.Delete(ctx, id); err != nil {
		return err
	}
	cached := b.store.CachedAlerts()
	kept := cached[:0]
	for _, a := range cached {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	if err := b.store.CacheAlerts(kept); err != nil {
		log.Printf("[alert] cache alerts: %v", err)
	}
	return nil
}
