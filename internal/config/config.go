package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	CounterBackendDB     = "db"
	CounterBackendRedis  = "redis"
	CounterBackendMemory = "memory"
)

type DBConfig struct {
	Driver          string `envconfig:"DB_DRIVER" default:"postgres"`
	SQLitePath      string `envconfig:"SQLITE_PATH" default:"charter.db"`
	Host            string `envconfig:"DB_HOST" default:"postgres"`
	Port            int    `envconfig:"DB_PORT" default:"5432"`
	User            string `envconfig:"DB_USER" default:"charter"`
	Password        string `envconfig:"DB_PASSWORD" default:"charter"`
	Name            string `envconfig:"DB_NAME" default:"charter_db"`
	SSLMode         string `envconfig:"DB_SSLMODE" default:"disable"`
	TimeZone        string `envconfig:"DB_TIMEZONE" default:"Europe/Berlin"`
	MaxOpenConns    int    `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int    `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifeTime int    `envconfig:"DB_CONN_MAX_LIFETIME_MIN" default:"30"` // minutes
}

type RedisConfig struct {
	Addr      string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password  string `envconfig:"REDIS_PASSWORD"`
	DB        int    `envconfig:"REDIS_DB" default:"0"`
	KeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"charter:booking-seq"`
}

type AppConfig struct {
	GRPCAddr            string `envconfig:"GRPC_ADDR" default:":50051"`
	BookingNumberPrefix string `envconfig:"BOOKING_NUMBER_PREFIX" default:"ER"`
	CounterBackend      string `envconfig:"COUNTER_BACKEND" default:"db"`
	LogLevel            string `envconfig:"LOG_LEVEL" default:"info"`
	// Zone used when rendering messages for dispatchers.
	DisplayTimeZone string `envconfig:"DISPLAY_TIMEZONE" default:"Europe/Berlin"`

	DB    DBConfig    `ignored:"true"`
	Redis RedisConfig `ignored:"true"`
}

func LoadDBConfig() (*DBConfig, error) {
	var cfg DBConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load db config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadAppConfig reads an optional .env file and then the environment.
// A missing envFile is not an error.
func LoadAppConfig(envFile string) (*AppConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	var cfg AppConfig
	for _, spec := range []any{&cfg, &cfg.DB, &cfg.Redis} {
		if err := envconfig.Process("", spec); err != nil {
			return nil, fmt.Errorf("load app config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *DBConfig) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.Host == "" || c.User == "" || c.Name == "" {
			return errors.New("invalid DB config: host/user/name must not be empty")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("invalid DB config: SQLITE_PATH must not be empty")
		}
	default:
		return fmt.Errorf("invalid DB config: unknown driver %q", c.Driver)
	}
	return nil
}

func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.BookingNumberPrefix) == "" {
		return errors.New("BOOKING_NUMBER_PREFIX must not be empty")
	}
	if strings.Contains(c.BookingNumberPrefix, "-") {
		return errors.New("BOOKING_NUMBER_PREFIX must not contain '-'")
	}
	switch c.CounterBackend {
	case CounterBackendDB, CounterBackendMemory:
	case CounterBackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("REDIS_ADDR is required for the redis counter backend")
		}
	default:
		return fmt.Errorf("unknown COUNTER_BACKEND %q", c.CounterBackend)
	}
	return c.DB.Validate()
}
