package pool

import (
	"context"
	"fmt"

	"github.com/richxcame/ride-hailing/pkg/eventbus"
	"github.com/richxcame/ride-hailing/pkg/logger"
	"go.uber.org/zap"
)

// notifySubjectPrefix roots every per-user pool notification under its own
// branch of the stream's subject hierarchy, alongside rides.>, payments.>,
// drivers.>, and fraud.> in eventbus.Bus's stream config.
const notifySubjectPrefix = "pool.matched"

// Notification type discriminators, per the bus's {type: ...} payload
// convention shared with rides.>, payments.>, and the rest of eventbus.
const (
	NotifyRideMatched = "RIDE_MATCHED"
	NotifyRiderLeft   = "RIDER_LEFT"
)

// MatchNotification is the event payload delivered to a user the moment
// their entry is matched or a peer joins/leaves their trip. Type
// discriminates RIDE_MATCHED (Trip carries the full durable snapshot) from
// RIDER_LEFT (CancelledUserID/UpdatedTrip describe what changed).
type MatchNotification struct {
	Type            string       `json:"type"`
	UserID          string       `json:"user_id"`
	TripID          string       `json:"trip_id"`
	FareEach        float64      `json:"fare_each,omitempty"`
	Trip            *DurableTrip `json:"trip,omitempty"`
	CancelledUserID string       `json:"cancelled_user_id,omitempty"`
	UpdatedTrip     *DurableTrip `json:"updated_trip,omitempty"`
}

// Notifier is the Notification Bus: one subject
// per user so a subscriber only ever receives events addressed to it.
type Notifier struct {
	bus *eventbus.Bus
}

// NewNotifier adapts a connected event bus into a per-user notifier.
func NewNotifier(bus *eventbus.Bus) *Notifier {
	return &Notifier{bus: bus}
}

// UserSubject returns the subject a single user's notifications are
// published and subscribed on.
func UserSubject(userID string) string {
	return fmt.Sprintf("%s.%s", notifySubjectPrefix, userID)
}

// NotifyMatch publishes a match outcome to a single user. Publish failures
// are logged, not returned: a missed notification never unwinds an already
// committed match -- notification is decoupled from the commit that produced it.
func (n *Notifier) NotifyMatch(ctx context.Context, notif MatchNotification) {
	if n.bus == nil {
		return
	}
	event, err := eventbus.NewEvent("pool.match", "poolmatch", notif)
	if err != nil {
		logger.WarnContext(ctx, "failed to build match notification", zap.Error(err))
		return
	}
	if err := n.bus.Publish(ctx, UserSubject(notif.UserID), event); err != nil {
		logger.WarnContext(ctx, "failed to publish match notification",
			zap.String("user_id", notif.UserID),
			zap.String("trip_id", notif.TripID),
			zap.Error(err),
		)
	}
}

// Subscribe registers a handler for one user's notification subject. Each
// caller must supply a unique, stable consumerName (e.g. derived from the
// subscribing gateway instance and user id) so JetStream durable consumers
// don't collide across reconnects.
func (n *Notifier) Subscribe(ctx context.Context, userID, consumerName string, handler eventbus.HandlerFunc) error {
	if n.bus == nil {
		return fmt.Errorf("notifier: no event bus configured")
	}
	return n.bus.Subscribe(ctx, UserSubject(userID), consumerName, handler)
}
