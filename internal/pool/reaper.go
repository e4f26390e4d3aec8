package pool

import (
	"context"
	"time"

	"github.com/richxcame/ride-hailing/pkg/logger"
	"go.uber.org/zap"
)

// reapInterval is how often the Reaper sweeps the lex set for orphaned
// memberships. Modeled on internal/scheduler/worker.go's ticker loop.
const reapInterval = 5 * time.Minute

// Reaper is a defensive backstop, not part of the matching critical path.
// Every normal removal path (a successful commit, RemoveUser, RemoveUserFromTrip)
// already deletes both the membership and its metadata together; the
// Reaper exists only to catch the case a worker crashed between those two
// writes, or a metadata key's TTL (store.go's metaTTL) expired out from
// under a membership that was never explicitly removed.
type Reaper struct {
	store *Store
	done  chan struct{}
}

// NewReaper builds a reaper bound to a Pool Store.
func NewReaper(store *Store) *Reaper {
	return &Reaper{store: store, done: make(chan struct{})}
}

// Start runs the sweep loop until the context is cancelled or Stop is
// called. Intended to run as one long-lived goroutine per process, not
// per worker.
func (r *Reaper) Start(ctx context.Context) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep(ctx)
			if stats, err := ComputeStats(ctx, r.store); err == nil {
				RecordPoolDepth(stats)
			}
		case <-ctx.Done():
			return
		case <-r.done:
			return
		}
	}
}

// Stop requests the sweep loop to exit.
func (r *Reaper) Stop() {
	close(r.done)
}

func (r *Reaper) sweep(ctx context.Context) {
	members, err := r.store.ZScanAll(ctx)
	if err != nil {
		logger.WarnContext(ctx, "reaper: failed to scan pool set", zap.Error(err))
		return
	}

	var orphaned []string
	for _, raw := range members {
		_, entryID, ok := splitMembership(raw)
		if !ok {
			orphaned = append(orphaned, raw) // malformed member, can't be resolved by anything else
			continue
		}
		meta, err := r.store.GetMeta(ctx, entryID)
		if err != nil {
			continue // transient store error; leave it for the next sweep
		}
		if meta == nil {
			orphaned = append(orphaned, raw)
		}
	}

	if len(orphaned) == 0 {
		return
	}
	if _, err := r.store.ZRem(ctx, orphaned...); err != nil {
		logger.WarnContext(ctx, "reaper: failed to remove orphaned memberships", zap.Error(err))
		return
	}
	logger.InfoContext(ctx, "reaper: removed orphaned pool memberships", zap.Int("count", len(orphaned)))
}
