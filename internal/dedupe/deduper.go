// Package dedupe provides a cheap front-line duplicate check for event ids.
// The append-only bonding event store remains the authoritative idempotency
// guard; a Deduper only saves the engine a store round-trip on redelivery.
package dedupe

import "context"

// Deduper reports whether an event id has been seen before. Seen records the
// id as a side effect, so a second call with the same id returns true.
type Deduper interface {
	Seen(ctx context.Context, id string) (bool, error)
}
