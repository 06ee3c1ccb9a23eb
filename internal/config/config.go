package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	// Server
	Port        string `env:"PORT" envDefault:"8000"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`
	BodyLimit   int    `env:"BODY_LIMIT" envDefault:"4194304"`
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	SentryDSN   string `env:"SENTRY_DSN"`

	// JWT
	JWTSecret        string        `env:"JWT_SECRET"`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"30m"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_EXPIRY" envDefault:"168h"`

	// Store
	StoreDriver string   `env:"STORE_DRIVER" envDefault:"mongo"`
	Mongo       Mongo    `envPrefix:"MONGO_"`
	Postgres    Postgres `envPrefix:"DB_"`

	Redis   Redis   `envPrefix:"REDIS_"`
	Storage Storage `envPrefix:"MINIO_"`

	// Logging
	LogRetention time.Duration `env:"LOG_RETENTION" envDefault:"720h"`

	ModerateComments bool `env:"MODERATE_COMMENTS" envDefault:"false"`
}

// Mongo contains document store connection parameters.
type Mongo struct {
	URI      string `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"flancer"`
}

// Postgres contains connection parameters for the relational store.
type Postgres struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME" envDefault:"flancer"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

// Redis backs the rate limiter when URL is set.
type Redis struct {
	URL string `env:"URL"`
}

// Storage contains S3-compatible object storage parameters for uploads.
type Storage struct {
	Endpoint      string `env:"ENDPOINT"`
	AccessKey     string `env:"ACCESS_KEY"`
	SecretKey     string `env:"SECRET_KEY"`
	Bucket        string `env:"BUCKET_NAME" envDefault:"flancer-images"`
	UseSSL        bool   `env:"USE_SSL" envDefault:"false"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
}

// Enabled reports whether uploads can be served.
func (s Storage) Enabled() bool {
	return s.Endpoint != "" && s.AccessKey != "" && s.SecretKey != ""
}

// Load reads an optional .env file and parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	switch c.StoreDriver {
	case DriverMongo, DriverPostgres:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.StoreDriver == DriverPostgres && c.Postgres.Password == "" {
		return errors.New("DB_PASSWORD environment variable is required for the postgres store")
	}
	return nil
}

func (p Postgres) DSN() string {
	return "host=" + p.Host +
		" user=" + p.User +
		" password=" + p.Password +
		" dbname=" + p.Name +
		" port=" + p.Port +
		" sslmode=" + p.SSLMode +
		" TimeZone=UTC"
}
