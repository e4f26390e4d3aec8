package pool

import (
	"time"

	"github.com/google/uuid"
)

// EntryStatus is the lifecycle status of a pool entry.
type EntryStatus string

const (
	StatusWaiting EntryStatus = "WAITING"
	StatusActive  EntryStatus = "ACTIVE"
)

// TripIDPrefix marks an entry_id as belonging to a trip rather than a lone
// passenger. Never infer the shape of a pool entry from field presence --
// the prefix is the single source of truth.
const TripIDPrefix = "TRIP"

// Member is a passenger's metadata the way it sits in the pool's
// metadata keyspace. A Member with len(Passengers) == 0 is a lone waiter;
// once matched it becomes (or is absorbed into) a Trip entry.
type Member struct {
	EntryID        string      `json:"entry_id"`
	RouteSignature string      `json:"route_signature"`
	PassengerCount int         `json:"passenger_count"`
	LuggageUnits   int         `json:"luggage_units"`
	Status         EntryStatus `json:"status"`
	IssuedPrice    float64     `json:"issued_price"`
	Passengers     []Passenger `json:"passengers,omitempty"` // non-empty only for trip entries
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// IsTrip reports whether this pool entry represents a forming/sealed trip
// rather than a lone waiting passenger. Determined solely by the entry_id
// prefix convention.
func (m *Member) IsTrip() bool {
	return len(m.EntryID) >= len(TripIDPrefix) && m.EntryID[:len(TripIDPrefix)] == TripIDPrefix
}

// Passenger is one rider's original request metadata, preserved inside a
// trip entry's member list so later joins and the durable commit can
// reconstruct per-passenger fares and capacity contributions.
type Passenger struct {
	UserID         string  `json:"user_id"`
	PassengerCount int     `json:"passenger_count"`
	LuggageUnits   int     `json:"luggage_units"`
	IssuedPrice    float64 `json:"issued_price"`
}

// RequestMetadata is what a caller supplies when registering a new request.
type RequestMetadata struct {
	PassengerCount int
	LuggageUnits   int
}

// MatchKind discriminates the three possible outcomes of Match.
type MatchKind string

const (
	MatchNone       MatchKind = "NONE"
	MatchDirect     MatchKind = "DIRECT"
	MatchBestDetour MatchKind = "BEST_DETOUR"
)

// MatchResult is the return value of Engine.Match.
type MatchResult struct {
	Kind      MatchKind
	PeerID    string
	DetourM   float64
	SplitCell string
	TripID    string
	Trip      *DurableTrip // nil unless the durable commit succeeded
}

// DurableTrip mirrors the row read back from the Trip Store after commit,
// attached to both the notification and the caller's result.
type DurableTrip struct {
	TripID         string               `json:"trip_id"`
	Status         string               `json:"status"`
	FareEach       float64              `json:"fare_each"`
	NoOfPassengers int                  `json:"no_of_passengers"`
	TotalLuggage   int                  `json:"total_luggage"`
	CabID          *uuid.UUID           `json:"cab_id,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	RideRequests   []DurableRideRequest `json:"ride_requests"`
}

// DurableRideRequest mirrors one RideRequests row.
type DurableRideRequest struct {
	UserID         string    `json:"user_id"`
	PassengerCount int       `json:"no_of_passengers"`
	LuggageUnits   int       `json:"luggage_capacity"`
	IssuedPrice    float64   `json:"issued_price"`
	Status         string    `json:"status"`
	JoinedAt       time.Time `json:"joined_at"`
}

// RouteSnapshot is the Route Indexer's output for a single destination.
type RouteSnapshot struct {
	DestinationCell string
	RouteSignature  string
	Cells           []string
	TotalKm         float64
}
