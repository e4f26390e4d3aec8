package pool

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/richxcame/ride-hailing/pkg/common"
)

// TripStore is the durable relational store for sealed and forming trips.
// Every mutating operation runs inside a single interactive transaction,
// modeled on internal/payments/repository.go's ProcessPaymentWithWallet:
// FOR UPDATE row lock, idempotency guard, then commit.
type TripStore struct {
	db *pgxpool.Pool
}

// NewTripStore wraps a pgx pool as a durable Trip Store.
func NewTripStore(db *pgxpool.Pool) *TripStore {
	return &TripStore{db: db}
}

// CreateTrip seals a brand-new trip between two waiting passengers. Both
// ride_requests rows are inserted in the same transaction as the trip row,
// so a reader never observes a trip with fewer than two requests. status
// is the trip's initial durable status -- WAITING unless capacity was
// already met on the very first pairing.
func (t *TripStore) CreateTrip(ctx context.Context, tripID, status string, fareEach float64, a, b DurableRideRequest) (*DurableTrip, error) {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return nil, common.NewInternalError("failed to start transaction", err)
	}
	defer tx.Rollback(ctx)

	var existingCount int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM trips WHERE id = $1`, tripID).Scan(&existingCount); err != nil {
		return nil, common.NewInternalError("failed to check existing trip", err)
	}
	if existingCount > 0 {
		return nil, common.NewBadRequestError("trip already exists", nil)
	}

	// b is the caller (the party whose Match call is driving this commit);
	// the pool-side commit has already happened by this point, so a missing
	// caller user aborts the durable commit rather than the whole match --
	// the engine reports the pairing with no trip snapshot attached.
	exists, err := userExists(ctx, tx, b.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	noOfPassengers := a.PassengerCount + b.PassengerCount
	totalLuggage := a.LuggageUnits + b.LuggageUnits

	var cabID *uuid.UUID
	if status == "ACTIVE" {
		cabID, err = selectAndBookCab(ctx, tx, noOfPassengers, totalLuggage)
		if err != nil {
			return nil, err
		}
	}

	var createdAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO trips (id, status, fare_each, no_of_passengers, total_luggage, cab_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at`,
		tripID, status, fareEach, noOfPassengers, totalLuggage, cabID,
	).Scan(&createdAt)
	if err != nil {
		return nil, common.NewInternalError("failed to create trip", err)
	}

	for _, rr := range []DurableRideRequest{a, b} {
		if err := insertRideRequest(ctx, tx, tripID, rr); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, common.NewInternalError("failed to commit trip creation", err)
	}

	return &DurableTrip{
		TripID:         tripID,
		Status:         status,
		FareEach:       fareEach,
		NoOfPassengers: noOfPassengers,
		TotalLuggage:   totalLuggage,
		CabID:          cabID,
		CreatedAt:      createdAt,
		RideRequests:   []DurableRideRequest{a, b},
	}, nil
}

// ExtendTrip adds one more passenger to an already-forming trip, cascading
// the new status (WAITING or ACTIVE if this join sealed the trip) and fare
// to every existing ride_request row. The trip row is locked FOR UPDATE for
// the duration, so two workers racing to extend the same trip serialize
// rather than double-count capacity.
func (t *TripStore) ExtendTrip(ctx context.Context, tripID, newStatus string, priorMembers []DurableRideRequest, joiner DurableRideRequest, newFareEach float64) (*DurableTrip, error) {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return nil, common.NewInternalError("failed to start transaction", err)
	}
	defer tx.Rollback(ctx)

	var status string
	var noOfPassengers, totalLuggage int
	err = tx.QueryRow(ctx, `
		SELECT status, no_of_passengers, total_luggage FROM trips WHERE id = $1 FOR UPDATE`,
		tripID,
	).Scan(&status, &noOfPassengers, &totalLuggage)
	if err == pgx.ErrNoRows {
		// The durable Trip row never made it in (an earlier commit for this
		// trip id hit DurableCommitFailed): fall back to creating it now,
		// backfilling a RideRequest for every prior pool member instead of
		// failing this join outright.
		return t.backfillAndExtend(ctx, tx, tripID, newStatus, priorMembers, joiner, newFareEach)
	}
	if err != nil {
		return nil, common.NewInternalError("failed to load trip for extension", err)
	}
	if status != "WAITING" {
		return nil, common.NewBadRequestError("trip is no longer accepting passengers", nil)
	}

	var alreadyJoined int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM ride_requests WHERE trip_id = $1 AND user_id = $2`,
		tripID, joiner.UserID,
	).Scan(&alreadyJoined); err != nil {
		return nil, common.NewInternalError("failed to check existing ride request", err)
	}
	if alreadyJoined > 0 {
		// Idempotent retry of a join that already landed: skip the insert
		// and cascade, return the trip as it already stands.
		if err := tx.Commit(ctx); err != nil {
			return nil, common.NewInternalError("failed to commit idempotent join", err)
		}
		return t.GetTrip(ctx, tripID)
	}

	exists, err := userExists(ctx, tx, joiner.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	joiner.Status = newStatus
	if err := insertRideRequest(ctx, tx, tripID, joiner); err != nil {
		return nil, err
	}

	noOfPassengers += joiner.PassengerCount
	totalLuggage += joiner.LuggageUnits

	var cabID *uuid.UUID
	if newStatus == "ACTIVE" {
		cabID, err = selectAndBookCab(ctx, tx, noOfPassengers, totalLuggage)
		if err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE trips SET status = $1, fare_each = $2, no_of_passengers = $3, total_luggage = $4, cab_id = COALESCE($5, cab_id), updated_at = NOW()
		WHERE id = $6`,
		newStatus, newFareEach, noOfPassengers, totalLuggage, cabID, tripID,
	); err != nil {
		return nil, common.NewInternalError("failed to update trip", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE ride_requests SET issued_price = $1, status = $2 WHERE trip_id = $3`,
		newFareEach, newStatus, tripID,
	); err != nil {
		return nil, common.NewInternalError("failed to update passenger fares", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, common.NewInternalError("failed to commit trip extension", err)
	}

	return t.GetTrip(ctx, tripID)
}

// backfillAndExtend creates a Trip row that ExtendTrip expected to already
// exist, inserting a RideRequest for every member of priorMembers (skipping
// any whose user row is missing) plus the joiner, all stamped with the
// join's final status and fare -- the same "fall back to the new-trip path
// and backfill" behavior §4.4 calls for when the durable row is absent.
func (t *TripStore) backfillAndExtend(ctx context.Context, tx pgx.Tx, tripID, newStatus string, priorMembers []DurableRideRequest, joiner DurableRideRequest, newFareEach float64) (*DurableTrip, error) {
	callerExists, err := userExists(ctx, tx, joiner.UserID)
	if err != nil {
		return nil, err
	}
	if !callerExists {
		return nil, nil
	}

	rows := make([]DurableRideRequest, 0, len(priorMembers)+1)
	noOfPassengers, totalLuggage := joiner.PassengerCount, joiner.LuggageUnits
	for _, m := range priorMembers {
		exists, err := userExists(ctx, tx, m.UserID)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		rows = append(rows, m)
		noOfPassengers += m.PassengerCount
		totalLuggage += m.LuggageUnits
	}
	rows = append(rows, joiner)

	var cabID *uuid.UUID
	if newStatus == "ACTIVE" {
		cabID, err = selectAndBookCab(ctx, tx, noOfPassengers, totalLuggage)
		if err != nil {
			return nil, err
		}
	}

	var createdAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO trips (id, status, fare_each, no_of_passengers, total_luggage, cab_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at`,
		tripID, newStatus, newFareEach, noOfPassengers, totalLuggage, cabID,
	).Scan(&createdAt)
	if err != nil {
		return nil, common.NewInternalError("failed to backfill trip", err)
	}

	for i := range rows {
		rows[i].Status = newStatus
		rows[i].IssuedPrice = newFareEach
		if err := insertRideRequest(ctx, tx, tripID, rows[i]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, common.NewInternalError("failed to commit backfilled trip", err)
	}

	return &DurableTrip{
		TripID:         tripID,
		Status:         newStatus,
		FareEach:       newFareEach,
		NoOfPassengers: noOfPassengers,
		TotalLuggage:   totalLuggage,
		CabID:          cabID,
		CreatedAt:      createdAt,
		RideRequests:   rows,
	}, nil
}

// GetTrip reads back a trip with its ride requests.
func (t *TripStore) GetTrip(ctx context.Context, tripID string) (*DurableTrip, error) {
	trip := &DurableTrip{TripID: tripID}
	err := t.db.QueryRow(ctx, `
		SELECT status, fare_each, no_of_passengers, total_luggage, cab_id, created_at
		FROM trips WHERE id = $1`, tripID,
	).Scan(&trip.Status, &trip.FareEach, &trip.NoOfPassengers, &trip.TotalLuggage, &trip.CabID, &trip.CreatedAt)
	if err != nil {
		return nil, common.NewNotFoundError("trip not found", err)
	}

	rows, err := t.db.Query(ctx, `
		SELECT user_id, no_of_passengers, luggage_capacity, issued_price, status, joined_at
		FROM ride_requests WHERE trip_id = $1 ORDER BY joined_at ASC`, tripID)
	if err != nil {
		return nil, common.NewInternalError("failed to load ride requests", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rr DurableRideRequest
		if err := rows.Scan(&rr.UserID, &rr.PassengerCount, &rr.LuggageUnits, &rr.IssuedPrice, &rr.Status, &rr.JoinedAt); err != nil {
			return nil, common.NewInternalError("failed to scan ride request", err)
		}
		trip.RideRequests = append(trip.RideRequests, rr)
	}

	return trip, nil
}

// RemoveRideRequest withdraws one passenger from a trip, rolling back
// capacity counters. If the trip is left with fewer than two remaining
// passengers, it is marked CANCELLED rather than deleted, following this package's
// durability requirement that a trip row is never removed once created.
func (t *TripStore) RemoveRideRequest(ctx context.Context, tripID, userID string) error {
	tx, err := t.db.Begin(ctx)
	if err != nil {
		return common.NewInternalError("failed to start transaction", err)
	}
	defer tx.Rollback(ctx)

	var passengerCount, luggageUnits int
	err = tx.QueryRow(ctx,
		`SELECT no_of_passengers, luggage_capacity FROM ride_requests WHERE trip_id = $1 AND user_id = $2`,
		tripID, userID,
	).Scan(&passengerCount, &luggageUnits)
	if err != nil {
		return common.NewNotFoundError("ride request not found", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE ride_requests SET status = 'WITHDRAWN' WHERE trip_id = $1 AND user_id = $2`,
		tripID, userID,
	); err != nil {
		return common.NewInternalError("failed to withdraw ride request", err)
	}

	var remaining int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM ride_requests WHERE trip_id = $1 AND status != 'WITHDRAWN'`,
		tripID,
	).Scan(&remaining); err != nil {
		return common.NewInternalError("failed to count remaining ride requests", err)
	}

	newStatus := "WAITING"
	if remaining < 2 {
		newStatus = "CANCELLED"
	}

	if _, err := tx.Exec(ctx, `
		UPDATE trips SET status = $1, no_of_passengers = no_of_passengers - $2,
			total_luggage = total_luggage - $3, updated_at = NOW()
		WHERE id = $4`,
		newStatus, passengerCount, luggageUnits, tripID,
	); err != nil {
		return common.NewInternalError("failed to update trip", err)
	}

	return tx.Commit(ctx)
}

// selectAndBookCab finds the smallest available cab with sufficient seats
// and luggage capacity, locking the candidate row FOR UPDATE SKIP LOCKED so
// two sealing trips never race for the same cab, and marks it BOOKED.
// Cab assignment is optional: a sealed trip with no
// sufficient cab available still persists, just with a nil cab_id.
func selectAndBookCab(ctx context.Context, tx pgx.Tx, passengerCount, luggageUnits int) (*uuid.UUID, error) {
	var cabID uuid.UUID
	err := tx.QueryRow(ctx, `
		SELECT id FROM cabs
		WHERE status = 'AVAILABLE' AND seats >= $1 AND luggage_capacity >= $2
		ORDER BY seats ASC, luggage_capacity ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`,
		passengerCount, luggageUnits,
	).Scan(&cabID)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, common.NewInternalError("failed to select cab", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE cabs SET status = 'BOOKED', updated_at = NOW() WHERE id = $1`, cabID); err != nil {
		return nil, common.NewInternalError("failed to book cab", err)
	}
	return &cabID, nil
}

// userExists verifies the caller's user row exists before a durable commit
// inserts a ride_request referencing it. The pool-side commit has already
// removed both membership records by the time this runs, so a missing user
// aborts only the durable half: the caller still gets a successful match
// result, just with no trip snapshot attached.
func userExists(ctx context.Context, tx pgx.Tx, userID string) (bool, error) {
	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE id = $1`, userID).Scan(&count); err != nil {
		return false, common.NewInternalError("failed to verify user exists", err)
	}
	return count > 0, nil
}

func insertRideRequest(ctx context.Context, tx pgx.Tx, tripID string, rr DurableRideRequest) error {
	status := rr.Status
	if status == "" {
		status = "WAITING"
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO ride_requests (id, trip_id, user_id, no_of_passengers, luggage_capacity,
			issued_price, status, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		uuid.NewString(), tripID, rr.UserID, rr.PassengerCount, rr.LuggageUnits, rr.IssuedPrice, status,
	)
	if err != nil {
		return common.NewInternalError("failed to insert ride request", err)
	}
	return nil
}
