package pool

import "context"

// TripLedger is the durable commit surface the Engine needs from the Trip
// Store: sealing a new trip, extending an existing one, and
// rolling a member out of a forming trip. *TripStore is the production
// implementation backed by an interactive Postgres transaction; tests
// substitute an in-memory fake so the matching logic can be exercised
// without a live database, the same seam internal/admin and
// internal/cancellation use for their repositories.
type TripLedger interface {
	CreateTrip(ctx context.Context, tripID, status string, fareEach float64, a, b DurableRideRequest) (*DurableTrip, error)
	// ExtendTrip adds joiner to the trip tripID already tracks. priorMembers
	// is the trip's full existing roster (as the pool metadata currently has
	// it) so that, in the rare case the durable Trip row itself is missing,
	// the implementation can fall back to creating it from scratch and
	// backfilling a RideRequest for every prior member instead of failing.
	ExtendTrip(ctx context.Context, tripID, newStatus string, priorMembers []DurableRideRequest, joiner DurableRideRequest, newFareEach float64) (*DurableTrip, error)
	GetTrip(ctx context.Context, tripID string) (*DurableTrip, error)
	RemoveRideRequest(ctx context.Context, tripID, userID string) error
}

var _ TripLedger = (*TripStore)(nil)

// RouteResolver resolves an origin/destination pair into driving waypoints
// and distance. *DirectionsClient is the
// production implementation; tests substitute a fake so route/detour
// lookups don't need network access.
type RouteResolver interface {
	GetRoute(ctx context.Context, originLat, originLng, destLat, destLng float64) (Route, error)
}

var _ RouteResolver = (*DirectionsClient)(nil)
