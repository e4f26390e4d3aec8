package pool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/richxcame/ride-hailing/internal/geo"
	"github.com/richxcame/ride-hailing/pkg/async"
	"github.com/richxcame/ride-hailing/pkg/common"
	"github.com/richxcame/ride-hailing/pkg/logger"
	"go.uber.org/zap"
)

// Engine is the Matching Engine: it owns no shared mutable state of its
// own -- the lex set and metadata keyspace in Store are the only shared
// state, mutated exclusively through Store's atomic operations, without a
// global lock.
type Engine struct {
	cfg        Config
	store      *Store
	trips      TripLedger
	notifier   *Notifier
	indexer    *RouteIndexer
	directions RouteResolver
}

// NewEngine wires the Matching Engine from its already-constructed
// collaborators. Each worker in the Task Dispatcher constructs its own
// Engine from its own WorkerContext handles -- worker-local clients, so
// Engine itself holds no global state.
func NewEngine(cfg Config, store *Store, trips TripLedger, notifier *Notifier, indexer *RouteIndexer, directions RouteResolver) *Engine {
	return &Engine{
		cfg:        cfg,
		store:      store,
		trips:      trips,
		notifier:   notifier,
		indexer:    indexer,
		directions: directions,
	}
}

// Match computes the caller's route, registers it, searches the pool for a
// superset, subset, or best-detour candidate, and commits the first one
// that passes the capacity check.
func (e *Engine) Match(ctx context.Context, userID string, destLat, destLng float64, meta RequestMetadata) (result *MatchResult, err error) {
	start := time.Now()
	defer func() {
		kind := MatchNone
		if result != nil {
			kind = result.Kind
		}
		RecordMatchOutcome(kind, err, time.Since(start))
	}()

	if meta.PassengerCount > e.cfg.MaxPassengers || meta.LuggageUnits > e.cfg.LuggageCapacity {
		return nil, common.NewBadRequestError("request exceeds cab capacity", nil)
	}

	routeResult, err := e.directions.GetRoute(ctx, e.cfg.OriginLat, e.cfg.OriginLng, destLat, destLng)
	if err != nil {
		return nil, err
	}
	snapshot, err := e.indexer.ComputeRoute(routeResult.Waypoints, routeResult.TotalKm)
	if err != nil {
		return nil, ErrIndexerUnavailable(err)
	}

	callerFare := soloFare(snapshot.TotalKm, e.cfg.RatePerKm)
	caller := &Member{
		EntryID:        userID,
		RouteSignature: snapshot.RouteSignature,
		PassengerCount: meta.PassengerCount,
		LuggageUnits:   meta.LuggageUnits,
		Status:         StatusWaiting,
		IssuedPrice:    callerFare,
	}

	// Step 0: self-registration completes-before any scan, so a concurrent
	// requester can always see this entry.
	if err := e.store.PutMeta(ctx, caller); err != nil {
		return nil, ErrPoolUnavailable(err)
	}
	if err := e.store.ZAdd(ctx, caller.RouteSignature, caller.EntryID); err != nil {
		return nil, ErrPoolUnavailable(err)
	}

	result, outcome, err := e.search(ctx, caller)
	if err != nil {
		return nil, err
	}
	if outcome != nil && outcome.Notify != nil {
		notif := *outcome.Notify
		async.Go(ctx, "pool-notify-match", func(ctx context.Context) {
			e.notifier.NotifyMatch(ctx, notif)
		})
	}
	return result, nil
}

// search runs steps 1a, 1b, and 2 in order, returning on the first
// successful commit. A None result means the caller remains registered and
// waiting.
func (e *Engine) search(ctx context.Context, caller *Member) (*MatchResult, *CommitOutcome, error) {
	if result, outcome, matched, err := e.scanSuperset(ctx, caller); err != nil {
		return nil, nil, err
	} else if matched {
		return result, outcome, nil
	}

	predecessors, successors, err := e.scanNeighbourhood(ctx, caller.RouteSignature)
	if err != nil {
		return nil, nil, ErrPoolUnavailable(err)
	}

	if result, outcome, matched, err := e.scanSubset(ctx, caller, predecessors, successors); err != nil {
		return nil, nil, err
	} else if matched {
		return result, outcome, nil
	}

	if result, outcome, matched, err := e.scanBestDetour(ctx, caller, predecessors, successors); err != nil {
		return nil, nil, err
	} else if matched {
		return result, outcome, nil
	}

	return &MatchResult{Kind: MatchNone}, nil, nil
}

// scanSuperset implements step 1a: members whose signature begins with the
// caller's are prefix-range scanned in [route, route\xFF).
func (e *Engine) scanSuperset(ctx context.Context, caller *Member) (*MatchResult, *CommitOutcome, bool, error) {
	min := "[" + caller.RouteSignature
	max := "[" + caller.RouteSignature + "\xff"
	members, err := e.store.ZRangeLex(ctx, min, max, false, e.cfg.NeighbourScanLimit)
	if err != nil {
		return nil, nil, false, ErrPoolUnavailable(err)
	}

	for _, raw := range members {
		sig, entryID, ok := splitMembership(raw)
		if !ok || entryID == caller.EntryID {
			continue
		}
		if !strings.HasPrefix(sig, caller.RouteSignature) {
			continue
		}
		outcome, err := e.tryCommit(ctx, caller, raw, MatchDirect, 0, "")
		if err != nil {
			if isStaleOrCapacity(err) {
				RecordCandidateSkipped(skipReason(err))
				continue
			}
			return nil, nil, false, err
		}
		return &outcome.Result, outcome, true, nil
	}
	return nil, nil, false, nil
}

// scanNeighbourhood fetches up to NeighbourScanLimit lex-predecessors and
// successors of route for the subset and best-detour scans.
func (e *Engine) scanNeighbourhood(ctx context.Context, route string) (predecessors, successors []string, err error) {
	predecessors, err = e.store.ZRangeLex(ctx, "-", "("+route, true, e.cfg.NeighbourScanLimit)
	if err != nil {
		return nil, nil, err
	}
	successors, err = e.store.ZRangeLex(ctx, "("+route, "+", false, e.cfg.NeighbourScanLimit)
	if err != nil {
		return nil, nil, err
	}
	return predecessors, successors, nil
}

// scanSubset implements step 1b: candidates whose full signature is a
// prefix of the caller's, excluding the caller itself and any trip entries.
func (e *Engine) scanSubset(ctx context.Context, caller *Member, predecessors, successors []string) (*MatchResult, *CommitOutcome, bool, error) {
	for _, raw := range append(append([]string{}, predecessors...), successors...) {
		sig, entryID, ok := splitMembership(raw)
		if !ok || entryID == caller.EntryID || strings.HasPrefix(entryID, TripIDPrefix) {
			continue
		}
		if !strings.HasPrefix(caller.RouteSignature, sig) {
			continue
		}
		outcome, err := e.tryCommit(ctx, caller, raw, MatchDirect, 0, "")
		if err != nil {
			if isStaleOrCapacity(err) {
				RecordCandidateSkipped(skipReason(err))
				continue
			}
			return nil, nil, false, err
		}
		return &outcome.Result, outcome, true, nil
	}
	return nil, nil, false, nil
}

// scanBestDetour implements step 2: the minimum-detour candidate under
// DETOUR_MAX_M, committed as soon as a better-than-running-minimum detour is
// found. This is "first acceptably-good," not globally optimal, and is
// treated as the canonical behavior here.
func (e *Engine) scanBestDetour(ctx context.Context, caller *Member, predecessors, successors []string) (*MatchResult, *CommitOutcome, bool, error) {
	best := e.cfg.DetourMaxM
	for _, raw := range append(append([]string{}, predecessors...), successors...) {
		sig, entryID, ok := splitMembership(raw)
		if !ok || entryID == caller.EntryID {
			continue
		}

		k := commonPrefixCells(caller.RouteSignature, sig)
		if k == 0 {
			continue
		}
		splitCell := caller.RouteSignature[(k-1)*CellWidth : k*CellWidth]
		candidateDest := sig[len(sig)-CellWidth:]

		detourM, err := e.detourDistance(ctx, splitCell, candidateDest)
		if err != nil {
			logger.WarnContext(ctx, "detour distance lookup failed, skipping candidate",
				zap.String("candidate", entryID), zap.Error(err))
			continue
		}
		if detourM >= best {
			RecordCandidateSkipped("detour_too_long")
			continue
		}

		outcome, err := e.tryCommit(ctx, caller, raw, MatchBestDetour, detourM, splitCell)
		if err != nil {
			if isStaleOrCapacity(err) {
				RecordCandidateSkipped(skipReason(err))
				best = detourM // committed on first below-minimum, not globally optimal
				continue
			}
			return nil, nil, false, err
		}
		return &outcome.Result, outcome, true, nil
	}
	return nil, nil, false, nil
}

// detourDistance resolves the driving distance from splitCell to
// candidateDestCell via the routing API, converting cells to lat/lng
// through the indexing library's cell centre.
func (e *Engine) detourDistance(ctx context.Context, splitCell, candidateDestCell string) (float64, error) {
	splitLat, splitLng := cellCentre(splitCell)
	destLat, destLng := cellCentre(candidateDestCell)
	route, err := e.directions.GetRoute(ctx, splitLat, splitLng, destLat, destLng)
	if err != nil {
		return 0, err
	}
	return route.TotalKm * 1000, nil
}

// cellCentre converts a hex cell string to its H3 centre coordinates.
func cellCentre(cell string) (lat, lng float64) {
	return geo.CellToLatLng(geo.StringToCell(cell))
}

// commonPrefixCells returns the number of whole W-character cells two
// signatures share as a leading prefix.
func commonPrefixCells(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	cells := 0
	for i := 0; i+CellWidth <= n; i += CellWidth {
		if a[i:i+CellWidth] != b[i:i+CellWidth] {
			break
		}
		cells++
	}
	return cells
}

// CommitOutcome separates the synchronous commit path from the
// fire-and-forget notification it produces.
type CommitOutcome struct {
	Result MatchResult
	Notify *MatchNotification
}

// tryCommit runs the capacity check and atomic
// commit for a caller/peer pair. peerRaw is the raw route_signature::id
// membership string returned by a scan.
func (e *Engine) tryCommit(ctx context.Context, caller *Member, peerRaw string, kind MatchKind, detourM float64, splitCell string) (*CommitOutcome, error) {
	_, peerID, ok := splitMembership(peerRaw)
	if !ok {
		return nil, errStaleCandidate
	}

	peer, err := e.store.GetMeta(ctx, peerID)
	if err != nil {
		return nil, ErrPoolUnavailable(err)
	}
	if peer == nil {
		return nil, errStaleCandidate
	}

	if peer.PassengerCount+caller.PassengerCount > e.cfg.MaxPassengers ||
		peer.LuggageUnits+caller.LuggageUnits > e.cfg.LuggageCapacity {
		return nil, errCapacityExceeded
	}
	sealed := peer.PassengerCount+caller.PassengerCount == e.cfg.MaxPassengers ||
		peer.LuggageUnits+caller.LuggageUnits == e.cfg.LuggageCapacity

	callerMember := membershipMember(caller.RouteSignature, caller.EntryID)
	removed, err := e.store.ZRem(ctx, callerMember, peerRaw)
	if err != nil {
		return nil, ErrPoolUnavailable(err)
	}
	if removed != 2 {
		// The linearization point: another worker already won this peer.
		return nil, errStaleCandidate
	}
	if err := e.store.DelMeta(ctx, caller.EntryID, peerID); err != nil {
		logger.WarnContext(ctx, "failed to delete pool metadata after commit", zap.Error(err))
	}

	// tripID is settled before either the pool membership or the durable row
	// is written, and the same value is used for both: extending an existing
	// trip keeps the peer's own trip id, sealing or starting fresh mints a
	// new one. Using two different ids across ZAdd/PutMeta/durable commit
	// would split the pool membership and its metadata apart.
	var tripID string
	if peer.IsTrip() {
		tripID = peerTripID(peer)
	} else {
		tripID = TripIDPrefix + uuid.NewString()
	}

	if !sealed {
		extended := longerSignature(caller.RouteSignature, peer.RouteSignature)
		if err := e.store.ZAdd(ctx, extended, tripID); err != nil {
			logger.WarnContext(ctx, "failed to register extended trip membership", zap.Error(err))
		}
	}

	status := StatusWaiting
	if sealed {
		status = StatusActive
	}

	fareEach := FareForJoin(peer.IssuedPrice, e.cfg.PoolDiscountFactor)

	callerReq := DurableRideRequest{UserID: caller.EntryID, PassengerCount: caller.PassengerCount, LuggageUnits: caller.LuggageUnits, IssuedPrice: fareEach, Status: string(status)}

	var trip *DurableTrip
	var commitErr error
	if peer.IsTrip() {
		trip, commitErr = e.trips.ExtendTrip(ctx, tripID, string(status), priorRideRequests(peer), callerReq, fareEach)
	} else {
		peerReq := DurableRideRequest{UserID: peer.EntryID, PassengerCount: peer.PassengerCount, LuggageUnits: peer.LuggageUnits, IssuedPrice: fareEach, Status: string(status)}
		trip, commitErr = e.trips.CreateTrip(ctx, tripID, string(status), fareEach, peerReq, callerReq)
	}

	result := MatchResult{Kind: kind, PeerID: peerID, DetourM: detourM, SplitCell: splitCell, TripID: tripID}

	if commitErr != nil {
		// Durable commit failed after the pool-side commit already happened:
		// the pool is authoritative; log and continue without a
		// trip snapshot.
		logger.ErrorContext(ctx, "durable trip commit failed after pool commit",
			zap.String("trip_id", tripID), zap.Error(commitErr))
		return &CommitOutcome{Result: result}, nil
	}
	if trip == nil {
		// The caller's user row didn't exist at commit time (TripLedger
		// aborts and returns nil, nil rather than an error for this case):
		// same "pool is authoritative, no trip snapshot" outcome.
		logger.WarnContext(ctx, "durable commit aborted: caller user does not exist",
			zap.String("trip_id", tripID), zap.String("caller", caller.EntryID))
		return &CommitOutcome{Result: result}, nil
	}
	result.Trip = trip

	tripMembers := buildTripPassengers(peer, caller, fareEach, status)
	tripMeta := &Member{
		EntryID:        tripID,
		RouteSignature: longerSignature(caller.RouteSignature, peer.RouteSignature),
		PassengerCount: peer.PassengerCount + caller.PassengerCount,
		LuggageUnits:   peer.LuggageUnits + caller.LuggageUnits,
		Status:         status,
		IssuedPrice:    fareEach,
		Passengers:     tripMembers,
	}
	if !sealed {
		if err := e.store.PutMeta(ctx, tripMeta); err != nil {
			logger.WarnContext(ctx, "failed to write trip metadata", zap.Error(err))
		}
	}

	return &CommitOutcome{
		Result: result,
		Notify: &MatchNotification{Type: NotifyRideMatched, UserID: peerID, TripID: tripID, FareEach: fareEach, Trip: trip},
	}, nil
}

func isStaleOrCapacity(err error) bool {
	return err == errStaleCandidate || err == errCapacityExceeded
}

func skipReason(err error) string {
	if err == errCapacityExceeded {
		return "capacity_exceeded"
	}
	return "stale_candidate"
}

func peerTripID(peer *Member) string {
	return peer.EntryID
}

// longerSignature returns whichever of the two signatures traverses more
// cells.
func longerSignature(a, b string) string {
	if len(b) > len(a) {
		return b
	}
	return a
}

// priorRideRequests converts a forming trip's pool-side member list into the
// durable row shape ExtendTrip needs to backfill with, if it turns out the
// trip's own row never made it into the durable store. A trip only ever
// sits in the pool while WAITING (sealing removes its pool membership), so
// every prior member's status is WAITING at this point.
func priorRideRequests(peer *Member) []DurableRideRequest {
	rows := make([]DurableRideRequest, len(peer.Passengers))
	for i, p := range peer.Passengers {
		rows[i] = DurableRideRequest{
			UserID:         p.UserID,
			PassengerCount: p.PassengerCount,
			LuggageUnits:   p.LuggageUnits,
			IssuedPrice:    p.IssuedPrice,
			Status:         string(StatusWaiting),
		}
	}
	return rows
}

func buildTripPassengers(peer, caller *Member, fareEach float64, status EntryStatus) []Passenger {
	var members []Passenger
	if peer.IsTrip() && len(peer.Passengers) > 0 {
		members = append(members, peer.Passengers...)
	} else {
		members = append(members, Passenger{UserID: peer.EntryID, PassengerCount: peer.PassengerCount, LuggageUnits: peer.LuggageUnits, IssuedPrice: fareEach})
	}
	members = append(members, Passenger{UserID: caller.EntryID, PassengerCount: caller.PassengerCount, LuggageUnits: caller.LuggageUnits, IssuedPrice: fareEach})
	for i := range members {
		members[i].IssuedPrice = fareEach
	}
	return members
}

// RemoveUser removes a user from the pool: used on
// disconnect/cancel of a solo waiter. Idempotent.
func (e *Engine) RemoveUser(ctx context.Context, userID string) error {
	members, err := e.store.ZScanAll(ctx)
	if err != nil {
		return ErrPoolUnavailable(err)
	}
	var toRemove []string
	for _, raw := range members {
		_, entryID, ok := splitMembership(raw)
		if ok && entryID == userID {
			toRemove = append(toRemove, raw)
		}
	}
	if len(toRemove) > 0 {
		if _, err := e.store.ZRem(ctx, toRemove...); err != nil {
			return ErrPoolUnavailable(err)
		}
	}
	if err := e.store.DelMeta(ctx, userID); err != nil {
		return ErrPoolUnavailable(err)
	}
	return nil
}

// RemoveUserFromTrip splices a member out of a forming trip, recomputes
// totals, and either cancels the trip (if it collapses to one member) or
// writes the shrunken metadata back.
func (e *Engine) RemoveUserFromTrip(ctx context.Context, tripEntryID, userID string) error {
	trip, err := e.store.GetMeta(ctx, tripEntryID)
	if err != nil {
		return ErrPoolUnavailable(err)
	}
	if trip == nil || !trip.IsTrip() {
		return fmt.Errorf("pool: %s is not a trip entry", tripEntryID)
	}

	remaining := make([]Passenger, 0, len(trip.Passengers))
	var removed *Passenger
	for _, p := range trip.Passengers {
		if p.UserID == userID {
			pp := p
			removed = &pp
			continue
		}
		remaining = append(remaining, p)
	}
	if removed == nil {
		return fmt.Errorf("pool: user %s is not a member of trip %s", userID, tripEntryID)
	}

	if err := e.trips.RemoveRideRequest(ctx, tripEntryID, userID); err != nil {
		return err
	}

	if len(remaining) < 2 {
		if _, err := e.store.ZRem(ctx, membershipMember(trip.RouteSignature, tripEntryID)); err != nil {
			logger.WarnContext(ctx, "failed to remove collapsed trip membership", zap.Error(err))
		}
		if err := e.store.DelMeta(ctx, tripEntryID); err != nil {
			logger.WarnContext(ctx, "failed to delete collapsed trip metadata", zap.Error(err))
		}
		if len(remaining) == 1 {
			async.Go(ctx, "pool-notify-rider-left", func(ctx context.Context) {
				updatedTrip, err := e.trips.GetTrip(ctx, tripEntryID)
				if err != nil {
					logger.WarnContext(ctx, "failed to load trip for rider-left notification", zap.Error(err))
				}
				e.notifier.NotifyMatch(ctx, MatchNotification{
					Type:            NotifyRiderLeft,
					UserID:          remaining[0].UserID,
					TripID:          tripEntryID,
					CancelledUserID: userID,
					UpdatedTrip:     updatedTrip,
				})
			})
		}
		return nil
	}

	passengerCount, luggageUnits := 0, 0
	for _, p := range remaining {
		passengerCount += p.PassengerCount
		luggageUnits += p.LuggageUnits
	}
	trip.Passengers = remaining
	trip.PassengerCount = passengerCount
	trip.LuggageUnits = luggageUnits
	if err := e.store.PutMeta(ctx, trip); err != nil {
		return ErrPoolUnavailable(err)
	}

	async.Go(ctx, "pool-notify-rider-left", func(ctx context.Context) {
		updatedTrip, err := e.trips.GetTrip(ctx, tripEntryID)
		if err != nil {
			logger.WarnContext(ctx, "failed to load trip for rider-left notification", zap.Error(err))
		}
		for _, p := range remaining {
			e.notifier.NotifyMatch(ctx, MatchNotification{
				Type:            NotifyRiderLeft,
				UserID:          p.UserID,
				TripID:          tripEntryID,
				CancelledUserID: userID,
				UpdatedTrip:     updatedTrip,
			})
		}
	})
	return nil
}
