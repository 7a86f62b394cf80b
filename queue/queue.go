// Package queue holds the two deployment topologies for handing a
// window's bundles to the engine: an external FIFO (Redis) and an
// in-process channel.
package queue

import (
	"context"

	"github.com/flashauction/blockengine/bundle"
)

// BundleQueue is the capability the engine needs from whichever topology
// is configured: pop everything queued for a window, then clear it.
type BundleQueue interface {
	PopAll(ctx context.Context, windowID uint64) ([]bundle.Bundle, error)
	Delete(ctx context.Context, windowID uint64) error
}
