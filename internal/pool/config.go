package pool

import (
	"os"
	"runtime"
	"strconv"
)

// PoolSetKey is the single lex-ordered set holding every waiting passenger
// and forming trip, keyed as route_signature::entry_id.
const PoolSetKey = "h3:airport_pool"

// Config holds the matcher's tunables. Every field here is a recognized
// configuration option.
type Config struct {
	OriginLat float64
	OriginLng float64

	// HexResolution is the H3 resolution used to linearize routes; it governs
	// the fixed cell width W (always 15 hex characters at any H3 resolution).
	HexResolution int

	RatePerKm          float64
	PoolDiscountFactor float64
	MaxPassengers      int
	LuggageCapacity    int
	DetourMaxM         float64
	NeighbourScanLimit int64
	WorkerPoolSize     int
}

// CellWidth is the fixed width, in characters, of one H3 cell string at any
// resolution.
const CellWidth = 15

// DefaultConfig returns the matcher's documented defaults.
func DefaultConfig() Config {
	return Config{
		HexResolution:      9,
		RatePerKm:          10,
		PoolDiscountFactor: 0.30,
		MaxPassengers:      3,
		LuggageCapacity:    4,
		DetourMaxM:         3000,
		NeighbourScanLimit: 5,
		WorkerPoolSize:     defaultWorkerPoolSize(),
	}
}

// LoadConfig reads the matcher's configuration from the environment over the
// documented defaults, following the getEnv/getEnvAsInt idiom used
// throughout pkg/config/config.go.
func LoadConfig() Config {
	cfg := DefaultConfig()
	cfg.OriginLat = getEnvAsFloat("ORIGIN_LAT", cfg.OriginLat)
	cfg.OriginLng = getEnvAsFloat("ORIGIN_LNG", cfg.OriginLng)
	cfg.HexResolution = getEnvAsInt("HEX_RESOLUTION", cfg.HexResolution)
	cfg.RatePerKm = getEnvAsFloat("RATE_PER_KM", cfg.RatePerKm)
	cfg.PoolDiscountFactor = getEnvAsFloat("POOL_DISCOUNT_FACTOR", cfg.PoolDiscountFactor)
	cfg.MaxPassengers = getEnvAsInt("MAX_PASSENGERS", cfg.MaxPassengers)
	cfg.LuggageCapacity = getEnvAsInt("LUGGAGE_CAPACITY", cfg.LuggageCapacity)
	cfg.DetourMaxM = getEnvAsFloat("DETOUR_MAX_M", cfg.DetourMaxM)
	cfg.NeighbourScanLimit = int64(getEnvAsInt("NEIGHBOUR_SCAN_LIMIT", int(cfg.NeighbourScanLimit)))
	cfg.WorkerPoolSize = getEnvAsInt("WORKER_POOL_SIZE", cfg.WorkerPoolSize)
	return cfg
}

// defaultWorkerPoolSize is clamp(floor(logical_cores/2), 2, 6).
func defaultWorkerPoolSize() int {
	n := runtime.NumCPU() / 2
	if n < 2 {
		return 2
	}
	if n > 6 {
		return 6
	}
	return n
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}
