package pool

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/richxcame/ride-hailing/pkg/common"
	"github.com/richxcame/ride-hailing/pkg/config"
	"github.com/richxcame/ride-hailing/pkg/jwtkeys"
	"github.com/richxcame/ride-hailing/pkg/middleware"
	"github.com/richxcame/ride-hailing/pkg/models"
	"github.com/richxcame/ride-hailing/pkg/ratelimit"
)

// Handler exposes the Route-Pooling Matcher over HTTP. It never touches the
// Engine directly -- every request is handed to the Task Dispatcher so
// matching work runs off the transport goroutine.
type Handler struct {
	dispatcher *Dispatcher
}

// NewHandler builds a pool Handler bound to a running Dispatcher.
func NewHandler(dispatcher *Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// requestBody is the wire shape of a pool-ride request: a destination and
// the caller's capacity needs. Origin is always the configured airport, so
// it is never accepted from the client.
type requestBody struct {
	DestinationLat float64 `json:"destination_lat" binding:"required"`
	DestinationLng float64 `json:"destination_lng" binding:"required"`
	PassengerCount int     `json:"passenger_count" binding:"required,min=1"`
	LuggageUnits   int     `json:"luggage_units"`
}

// responseBody is what callers see back from a match attempt.
type responseBody struct {
	Kind      MatchKind    `json:"kind"`
	PeerID    string       `json:"peer_id,omitempty"`
	DetourM   float64      `json:"detour_m,omitempty"`
	SplitCell string       `json:"split_cell,omitempty"`
	TripID    string       `json:"trip_id,omitempty"`
	Trip      *DurableTrip `json:"trip,omitempty"`
}

// RequestRide submits a MATCH_RIDE task for the authenticated rider.
func (h *Handler) RequestRide(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req requestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	meta := RequestMetadata{PassengerCount: req.PassengerCount, LuggageUnits: req.LuggageUnits}
	result, err := h.dispatcher.MatchRide(c.Request.Context(), userID.String(), req.DestinationLat, req.DestinationLng, meta)
	if err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to match pool ride")
		return
	}

	common.CreatedResponse(c, toResponseBody(result))
}

// Cancel submits a REMOVE_USER task: the caller withdraws while still a
// lone waiter in the pool.
func (h *Handler) Cancel(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.dispatcher.RemoveUser(c.Request.Context(), userID.String()); err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to cancel pool request")
		return
	}

	common.SuccessResponse(c, gin.H{"cancelled": true})
}

// LeaveTrip submits a REMOVE_USER_FROM_TRIP task: the caller withdraws from
// a trip they previously joined.
func (h *Handler) LeaveTrip(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	tripID := c.Param("tripId")
	if tripID == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "trip id required")
		return
	}

	if err := h.dispatcher.RemoveUserFromTrip(c.Request.Context(), tripID, userID.String()); err != nil {
		if appErr, ok := err.(*common.AppError); ok {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to leave pool trip")
		return
	}

	common.SuccessResponse(c, gin.H{"left": true})
}

func toResponseBody(r *MatchResult) responseBody {
	if r == nil {
		return responseBody{Kind: MatchNone}
	}
	return responseBody{
		Kind:      r.Kind,
		PeerID:    r.PeerID,
		DetourM:   r.DetourM,
		SplitCell: r.SplitCell,
		TripID:    r.TripID,
		Trip:      r.Trip,
	}
}

// RegisterRoutes mounts the pool endpoints under /api/v1/pool, following
// the same auth/rate-limit chain as internal/rides.Handler.RegisterRoutes.
func (h *Handler) RegisterRoutes(r *gin.Engine, jwtProvider jwtkeys.KeyProvider, limiter *ratelimit.Limiter, rateCfg config.RateLimitConfig) {
	api := r.Group("/api/v1/pool")
	api.Use(middleware.AuthMiddlewareWithProvider(jwtProvider))

	if rateCfg.Enabled && limiter != nil {
		api.Use(middleware.RateLimit(limiter, rateCfg))
	}

	riders := api.Group("")
	riders.Use(middleware.RequireRole(models.RoleRider))
	{
		riders.POST("/request", h.RequestRide)
		riders.POST("/cancel", h.Cancel)
		riders.POST("/trips/:tripId/leave", h.LeaveTrip)
	}
}
