package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix  = ""
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Saga          SagaConfig
	Collaborators CollaboratorsConfig
	FeatureFlags  FeatureFlags
}

type FeatureFlags struct {
	AutoMigrate bool `envconfig:"MOTORLINE_AUTO_MIGRATE" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MOTORLINE_APP_ENV" required:"true"`
	Port         string `envconfig:"MOTORLINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MOTORLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MOTORLINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MOTORLINE_DB_DSN"`
	Driver string `envconfig:"MOTORLINE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"MOTORLINE_DB_HOST"`
	Port     int    `envconfig:"MOTORLINE_DB_PORT" default:"5432"`
	User     string `envconfig:"MOTORLINE_DB_USER"`
	Password string `envconfig:"MOTORLINE_DB_PASSWORD"`
	Name     string `envconfig:"MOTORLINE_DB_NAME"`
	SSLMode  string `envconfig:"MOTORLINE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MOTORLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MOTORLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MOTORLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MOTORLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("db config requires either MOTORLINE_DB_DSN or host/user/name")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"MOTORLINE_REDIS_URL"`
	Address      string        `envconfig:"MOTORLINE_REDIS_ADDR"`
	Password     string        `envconfig:"MOTORLINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"MOTORLINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MOTORLINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MOTORLINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MOTORLINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MOTORLINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MOTORLINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"MOTORLINE_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrderEventsTopic string `envconfig:"MOTORLINE_PUBSUB_ORDER_EVENTS_TOPIC" default:"ml-order-events"`
}

// SagaConfig bounds the orchestrator's collaborator calls and the per-order
// serialization lease.
type SagaConfig struct {
	AvailabilityTimeout time.Duration `envconfig:"MOTORLINE_SAGA_AVAILABILITY_TIMEOUT" default:"5s"`
	PricingTimeout      time.Duration `envconfig:"MOTORLINE_SAGA_PRICING_TIMEOUT" default:"15s"`
	ReserveTimeout      time.Duration `envconfig:"MOTORLINE_SAGA_RESERVE_TIMEOUT" default:"30s"`
	ReleaseTimeout      time.Duration `envconfig:"MOTORLINE_SAGA_RELEASE_TIMEOUT" default:"10s"`
	SellTimeout         time.Duration `envconfig:"MOTORLINE_SAGA_SELL_TIMEOUT" default:"10s"`
	OrderLockTTL        time.Duration `envconfig:"MOTORLINE_SAGA_ORDER_LOCK_TTL" default:"1m"`
}

// CollaboratorsConfig holds base URLs for split deployments where inventory
// and pricing run as separate services. Empty URLs mean in-process wiring.
type CollaboratorsConfig struct {
	InventoryBaseURL string `envconfig:"MOTORLINE_INVENTORY_BASE_URL"`
	PricingBaseURL   string `envconfig:"MOTORLINE_PRICING_BASE_URL"`
}
