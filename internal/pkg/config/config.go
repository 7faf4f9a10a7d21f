package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Mongo   MongoConfig
	Redis   RedisConfig
	Geo     GeoConfig
	Session SessionConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=tracking_engine"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
	// Enabled toggles the Redis geocode cache; when false the service talks
	// to the geocoding provider directly.
	Enabled bool `env:"REDIS_ENABLED, default=true"`
}

type GeoConfig struct {
	NominatimURL string        `env:"NOMINATIM_URL, default=https://nominatim.openstreetmap.org"`
	OSRMURL      string        `env:"OSRM_URL,      default=https://router.project-osrm.org"`
	Timeout      time.Duration `env:"GEO_TIMEOUT,   default=8s"`
	// GeocodeRatePerSec caps outbound geocoding requests; public Nominatim
	// instances allow one per second.
	GeocodeRatePerSec float64 `env:"GEOCODE_RATE_PER_SEC, default=1"`
}

type SessionConfig struct {
	// DefaultOriginLat/Lng is the fallback current position when no courier
	// or timeline location can be resolved (central dispatch hub).
	DefaultOriginLat float64 `env:"DEFAULT_ORIGIN_LAT, default=19.4326"`
	DefaultOriginLng float64 `env:"DEFAULT_ORIGIN_LNG, default=-99.1332"`
	// DestinationOffsetKm places the synthetic destination marker when the
	// receiver address cannot be geocoded.
	DestinationOffsetKm float64 `env:"DESTINATION_OFFSET_KM, default=2"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
