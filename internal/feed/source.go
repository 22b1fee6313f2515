// Package feed delivers decoded launchpad events to the engine. The live
// source subscribes to factory logs over websocket; the replay source
// re-emits the persisted event log for deterministic state rebuilds.
package feed

import (
	"context"

	"avax-launch-indexer/internal/domain"
)

// Source delivers events in chain order (block number, tx hash, log index).
// The channel closes when the source is exhausted or closed.
type Source interface {
	// Events starts delivery and returns the event channel. Call once.
	Events(ctx context.Context) (<-chan *domain.Event, error)

	// Close stops delivery and releases resources.
	Close() error
}
