package pool

import (
	"context"
	"strings"
)

// Stats summarizes the pool's current depth. A supplemental read-only
// diagnostic: the matching hot path never consults it, but an operator-facing
// status endpoint needs a way to answer "how full is the pool."
type Stats struct {
	WaitingPassengers int
	FormingTrips      int
	SealedTrips       int
	TotalMembers      int
}

// ComputeStats walks the full lex set once and classifies every member by
// its entry id prefix and metadata status. Never called on the matching hot
// path -- reserved for cleanup and diagnostics only.
func ComputeStats(ctx context.Context, store *Store) (Stats, error) {
	members, err := store.ZScanAll(ctx)
	if err != nil {
		return Stats{}, ErrPoolUnavailable(err)
	}

	stats := Stats{TotalMembers: len(members)}
	for _, raw := range members {
		_, entryID, ok := splitMembership(raw)
		if !ok {
			continue
		}
		if !strings.HasPrefix(entryID, TripIDPrefix) {
			stats.WaitingPassengers++
			continue
		}
		meta, err := store.GetMeta(ctx, entryID)
		if err != nil || meta == nil {
			continue
		}
		if meta.Status == StatusActive {
			stats.SealedTrips++
		} else {
			stats.FormingTrips++
		}
	}
	return stats, nil
}
