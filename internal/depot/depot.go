// Package depot implements the per-cannon ammunition handshake: the cannon
// signals an empty magazine and blocks, the resupplier reloads and signals
// it full again.
package depot

import (
	"context"

	"github.com/heliraid/heliraid/pkg/core"
	"golang.org/x/sync/semaphore"
)

// Depot is a single-slot producer/consumer pair. empty starts at zero and
// full starts at one; the one token stands for the magazine the cannon is
// created with and is taken by Claim.
type Depot struct {
	cannon int
	empty  *semaphore.Weighted
	full   *semaphore.Weighted
	pub    core.Publisher
}

// New creates the depot for cannon.
func New(cannon int, pub core.Publisher) *Depot {
	if pub == nil {
		pub = core.Discard
	}
	d := &Depot{
		cannon: cannon,
		empty:  semaphore.NewWeighted(1),
		full:   semaphore.NewWeighted(1),
		pub:    pub,
	}
	d.empty.TryAcquire(1)
	return d
}

// Cannon returns the owner id.
func (d *Depot) Cannon() int { return d.cannon }

// Claim takes the initial full token. It succeeds once per depot.
func (d *Depot) Claim() bool {
	return d.full.TryAcquire(1)
}

// SignalEmpty tells the resupplier the magazine is empty. Signalling twice
// without an intervening AwaitEmpty panics.
func (d *Depot) SignalEmpty() {
	d.pub.Publish(core.EventDepotEmpty, d.cannon, nil)
	d.empty.Release(1)
}

// AwaitEmpty blocks the resupplier until the cannon signals empty.
func (d *Depot) AwaitEmpty(ctx context.Context) error {
	return d.empty.Acquire(ctx, 1)
}

// SignalFull hands the reloaded magazine back. Signalling twice without an
// intervening AwaitFull panics.
func (d *Depot) SignalFull() {
	d.pub.Publish(core.EventDepotFull, d.cannon, nil)
	d.full.Release(1)
}

// AwaitFull blocks the cannon until its magazine is reloaded.
func (d *Depot) AwaitFull(ctx context.Context) error {
	return d.full.Acquire(ctx, 1)
}
