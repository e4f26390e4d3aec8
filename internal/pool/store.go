package pool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	redisClient "github.com/richxcame/ride-hailing/pkg/redis"
)

// metaTTL is a safety-net expiration on pool metadata keys: a crashed worker
// must not leave an orphaned entry forever. Mirrors the driverLocationTTL
// pattern in internal/geo/location_buffer.go.
const metaTTL = time.Hour

// Store is the thin adapter over the Pool Store:
// per-entry metadata plus the single lex-ordered membership set.
type Store struct {
	redis redisClient.ClientInterface
}

// NewStore wraps a Redis client as a Pool Store.
func NewStore(redis redisClient.ClientInterface) *Store {
	return &Store{redis: redis}
}

func metaKey(entryID string) string {
	return fmt.Sprintf("h3:pool:meta:%s", entryID)
}

// PutMeta idempotently overwrites an entry's metadata.
func (s *Store) PutMeta(ctx context.Context, m *Member) error {
	m.UpdatedAt = time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = m.UpdatedAt
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal pool member: %w", err)
	}
	return s.redis.SetWithExpiration(ctx, metaKey(m.EntryID), data, metaTTL)
}

// GetMeta returns an entry's metadata, or (nil, nil) if absent.
func (s *Store) GetMeta(ctx context.Context, entryID string) (*Member, error) {
	data, err := s.redis.GetString(ctx, metaKey(entryID))
	if err != nil {
		// go-redis returns redis.Nil for a missing key; ClientInterface hides
		// the sentinel behind GetString's error, so absence and failure are
		// indistinguishable here by design -- a store error is reported as
		// absent, the same (nil, nil) as a missing key.
		return nil, nil
	}
	var m Member
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("unmarshal pool member %s: %w", entryID, err)
	}
	return &m, nil
}

// DelMeta batch-deletes metadata keys. Idempotent.
func (s *Store) DelMeta(ctx context.Context, entryIDs ...string) error {
	if len(entryIDs) == 0 {
		return nil
	}
	keys := make([]string, len(entryIDs))
	for i, id := range entryIDs {
		keys[i] = metaKey(id)
	}
	return s.redis.Delete(ctx, keys...)
}

// membershipMember builds the route_signature::entry_id string stored as a
// member of the lex set.
func membershipMember(routeSignature, entryID string) string {
	return routeSignature + "::" + entryID
}

// splitMembership splits a raw lex-set member back into its signature and
// entry id. The entry id is whatever follows the *last* "::" so that a trip
// id which itself contains "::" (it never does, but be defensive) still
// parses correctly.
func splitMembership(raw string) (routeSignature, entryID string, ok bool) {
	idx := strings.LastIndex(raw, "::")
	if idx < 0 {
		return "", "", false
	}
	return raw[:idx], raw[idx+2:], true
}

// ZAdd adds a route_signature::entry_id member to the pool set.
func (s *Store) ZAdd(ctx context.Context, routeSignature, entryID string) error {
	return s.redis.ZAddLex(ctx, PoolSetKey, membershipMember(routeSignature, entryID))
}

// ZRem removes membership records and reports how many were actually
// removed. This is the linearization point for a pairing commit:
// whichever caller observes count == len(members) won the race.
func (s *Store) ZRem(ctx context.Context, members ...string) (int64, error) {
	return s.redis.ZRemLex(ctx, PoolSetKey, members...)
}

// ZRangeLex scans the lex set in order. reverse selects descending
// (predecessor) vs. ascending (successor/superset) traversal.
func (s *Store) ZRangeLex(ctx context.Context, min, max string, reverse bool, limit int64) ([]string, error) {
	if reverse {
		return s.redis.ZRevRangeByLex(ctx, PoolSetKey, min, max, limit)
	}
	return s.redis.ZRangeByLex(ctx, PoolSetKey, min, max, limit)
}

// ZScanAll returns every member currently in the pool set. Used only for
// cleanup-by-suffix; never on the matching hot path.
func (s *Store) ZScanAll(ctx context.Context) ([]string, error) {
	return s.redis.ZScanAll(ctx, PoolSetKey)
}
