package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config captures process-level configuration so main stays lean. Values come
// from the environment; cmd/server loads a .env file first in development.
type Config struct {
	Addr string `envconfig:"CATCHCERT_ADDR" default:":8080"`

	// DatabaseURL enables the Postgres-backed stores. Empty means in-memory.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// RedisURL enables Redis-backed blocking toggles and pre-approvals.
	RedisURL string `envconfig:"REDIS_URL"`

	Redis RedisConfig

	// KafkaBrokers enables the Kafka landing-update reporter. Empty means the
	// in-process reporter is used.
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_LANDING_TOPIC" default:"landing-updates"`

	// VesselSeedFile points at a JSON file holding the vessel register and
	// conversion factor table. Empty starts the cache empty, so every fetch
	// finds no vessel until reference data arrives some other way.
	VesselSeedFile string `envconfig:"VESSEL_SEED_FILE"`

	// RegistryBaseURL points at the external landings registry service.
	RegistryBaseURL string        `envconfig:"LANDINGS_REGISTRY_URL" default:"http://localhost:9090"`
	RegistryTimeout time.Duration `envconfig:"LANDINGS_REGISTRY_TIMEOUT" default:"30s"`
}

// RedisConfig tunes the shared Redis client.
type RedisConfig struct {
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

// FromEnv builds a Config from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env config: %w", err)
	}
	return cfg, nil
}
