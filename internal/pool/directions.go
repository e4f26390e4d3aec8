package pool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/richxcame/ride-hailing/pkg/logger"
	redisClient "github.com/richxcame/ride-hailing/pkg/redis"
	"github.com/richxcame/ride-hailing/pkg/resilience"
	"go.uber.org/zap"
)

const (
	directionsCachePrefix = "pool:directions:"
	directionsCacheTTL    = 10 * time.Minute
	routesAPIURL          = "https://routes.googleapis.com/directions/v2:computeRoutes"
)

// DirectionsClient resolves an origin/destination pair into the ordered
// waypoints and total distance that the Route Indexer needs. Modeled on
// geo.GeocodingService: cached, circuit-breaker-protected HTTP call.
type DirectionsClient struct {
	apiKey     string
	httpClient *http.Client
	redis      redisClient.ClientInterface
	breaker    *resilience.CircuitBreaker
}

// NewDirectionsClient builds a client pointed at the Routes API.
func NewDirectionsClient(apiKey string, redis redisClient.ClientInterface) *DirectionsClient {
	return &DirectionsClient{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		redis: redis,
	}
}

// SetCircuitBreaker enables breaker protection for the routing API call.
func (d *DirectionsClient) SetCircuitBreaker(cb *resilience.CircuitBreaker) {
	d.breaker = cb
}

// Route is the parsed result of a directions lookup: the waypoints flattened
// out of every leg/step, plus the total distance the API reported.
type Route struct {
	Waypoints []Waypoint
	TotalKm   float64
}

// GetRoute resolves the ordered waypoints between origin and destination.
// Failure here is always reported as ErrIndexerUnavailable: no pool mutation
// is attempted when a route can't be computed.
func (d *DirectionsClient) GetRoute(ctx context.Context, originLat, originLng, destLat, destLng float64) (Route, error) {
	cacheKey := fmt.Sprintf("%s%.6f,%.6f->%.6f,%.6f", directionsCachePrefix, originLat, originLng, destLat, destLng)
	if cached, err := d.getCachedRoute(ctx, cacheKey); err == nil {
		return cached, nil
	}

	body, err := d.callRoutesAPI(ctx, originLat, originLng, destLat, destLng)
	if err != nil {
		return Route{}, ErrIndexerUnavailable(err)
	}

	route, err := parseRoutesResponse(body)
	if err != nil {
		return Route{}, ErrIndexerUnavailable(err)
	}

	d.cacheRoute(ctx, cacheKey, route)
	return route, nil
}

func (d *DirectionsClient) callRoutesAPI(ctx context.Context, originLat, originLng, destLat, destLng float64) ([]byte, error) {
	payload := map[string]interface{}{
		"origin": map[string]interface{}{
			"location": map[string]interface{}{
				"latLng": map[string]float64{"latitude": originLat, "longitude": originLng},
			},
		},
		"destination": map[string]interface{}{
			"location": map[string]interface{}{
				"latLng": map[string]float64{"latitude": destLat, "longitude": destLng},
			},
		},
		"travelMode": "DRIVE",
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	call := func(_ context.Context) (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, routesAPIURL, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Goog-Api-Key", d.apiKey)
		req.Header.Set("X-Goog-FieldMask", "routes.distanceMeters,routes.legs.steps.startLocation,routes.legs.steps.endLocation")

		resp, err := d.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		return io.ReadAll(resp.Body)
	}

	if d.breaker != nil {
		result, err := d.breaker.Execute(ctx, call)
		if err != nil {
			return nil, fmt.Errorf("routes API circuit open or request failed: %w", err)
		}
		return result.([]byte), nil
	}

	result, err := call(ctx)
	if err != nil {
		return nil, fmt.Errorf("routes API request failed: %w", err)
	}
	return result.([]byte), nil
}

func parseRoutesResponse(body []byte) (Route, error) {
	var apiResp struct {
		Routes []struct {
			DistanceMeters float64 `json:"distanceMeters"`
			Legs           []struct {
				Steps []struct {
					StartLocation struct {
						LatLng struct {
							Latitude  float64 `json:"latitude"`
							Longitude float64 `json:"longitude"`
						} `json:"latLng"`
					} `json:"startLocation"`
					EndLocation struct {
						LatLng struct {
							Latitude  float64 `json:"latitude"`
							Longitude float64 `json:"longitude"`
						} `json:"latLng"`
					} `json:"endLocation"`
				} `json:"steps"`
			} `json:"legs"`
		} `json:"routes"`
	}

	if err := json.Unmarshal(body, &apiResp); err != nil {
		return Route{}, fmt.Errorf("parse routes response: %w", err)
	}
	if len(apiResp.Routes) == 0 {
		return Route{}, fmt.Errorf("routes API returned no routes")
	}

	r := apiResp.Routes[0]
	var waypoints []Waypoint
	for _, leg := range r.Legs {
		for _, step := range leg.Steps {
			waypoints = append(waypoints,
				Waypoint{Lat: step.StartLocation.LatLng.Latitude, Lng: step.StartLocation.LatLng.Longitude},
				Waypoint{Lat: step.EndLocation.LatLng.Latitude, Lng: step.EndLocation.LatLng.Longitude},
			)
		}
	}
	if len(waypoints) == 0 {
		return Route{}, fmt.Errorf("routes API returned no steps")
	}

	return Route{Waypoints: waypoints, TotalKm: r.DistanceMeters / 1000}, nil
}

func (d *DirectionsClient) getCachedRoute(ctx context.Context, key string) (Route, error) {
	if d.redis == nil {
		return Route{}, fmt.Errorf("no cache")
	}
	data, err := d.redis.GetString(ctx, key)
	if err != nil {
		return Route{}, err
	}
	var route Route
	if err := json.Unmarshal([]byte(data), &route); err != nil {
		return Route{}, err
	}
	return route, nil
}

func (d *DirectionsClient) cacheRoute(ctx context.Context, key string, route Route) {
	if d.redis == nil {
		return
	}
	data, err := json.Marshal(route)
	if err != nil {
		return
	}
	if err := d.redis.SetWithExpiration(ctx, key, data, directionsCacheTTL); err != nil {
		logger.WarnContext(ctx, "failed to cache computed route", zap.Error(err))
	}
}
