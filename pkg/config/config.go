package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable consumed by the terminal.
const EnvPrefix = "POSTERM"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	HTTP         HTTPConfig
	DB           DBConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Cloud        CloudConfig
	Sync         SyncConfig
	Connectivity ConnectivityConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"POSTERM_APP_ENV" default:"dev"`
	TerminalID   string `envconfig:"POSTERM_TERMINAL_ID" default:"terminal-01"`
	LogLevel     string `envconfig:"POSTERM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"POSTERM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type HTTPConfig struct {
	Port            string        `envconfig:"POSTERM_HTTP_PORT" default:"8390"`
	ReadTimeout     time.Duration `envconfig:"POSTERM_HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"POSTERM_HTTP_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"POSTERM_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	AllowedOrigins  []string      `envconfig:"POSTERM_HTTP_ALLOWED_ORIGINS" default:"http://localhost:5173"`
}

type DBConfig struct {
	// Driver selects the GORM dialector: sqlite for the on-device terminal,
	// postgres for a back-office deployment of the same binary.
	Driver string `envconfig:"POSTERM_DB_DRIVER" default:"sqlite"`
	// DSN is the sqlite file path or the postgres connection string.
	DSN string `envconfig:"POSTERM_DB_DSN" default:"pos-terminal.db"`

	MaxOpenConns    int           `envconfig:"POSTERM_DB_MAX_OPEN_CONNS" default:"1"`
	MaxIdleConns    int           `envconfig:"POSTERM_DB_MAX_IDLE_CONNS" default:"1"`
	ConnMaxLifetime time.Duration `envconfig:"POSTERM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"POSTERM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

const (
	DBDriverSQLite   = "sqlite"
	DBDriverPostgres = "postgres"
)

func (db *DBConfig) validate() error {
	driver := strings.ToLower(strings.TrimSpace(db.Driver))
	switch driver {
	case DBDriverSQLite, DBDriverPostgres:
		db.Driver = driver
	default:
		return fmt.Errorf("database driver must be %q or %q", DBDriverSQLite, DBDriverPostgres)
	}
	if strings.TrimSpace(db.DSN) == "" {
		return fmt.Errorf("database DSN is required")
	}
	return nil
}

type JWTConfig struct {
	Secret            string `envconfig:"POSTERM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"POSTERM_JWT_ISSUER" default:"pos-terminal"`
	ExpirationMinutes int    `envconfig:"POSTERM_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"POSTERM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"POSTERM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"POSTERM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"POSTERM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"POSTERM_ARGON_KEY_LEN" default:"32"`
}

// CloudConfig points the terminal at the cloud authority that confirms sales.
type CloudConfig struct {
	BaseURL       string        `envconfig:"POSTERM_CLOUD_BASE_URL" required:"true"`
	SubmitTimeout time.Duration `envconfig:"POSTERM_CLOUD_SUBMIT_TIMEOUT" default:"15s"`
	AuthTokenEnv  string        `envconfig:"POSTERM_CLOUD_AUTH_TOKEN_ENV" default:"POSTERM_CLOUD_TOKEN"`
}

type SyncConfig struct {
	MaxAttempts    int           `envconfig:"POSTERM_SYNC_MAX_ATTEMPTS" default:"3"`
	InitialBackoff time.Duration `envconfig:"POSTERM_SYNC_INITIAL_BACKOFF" default:"500ms"`
	MaxBackoff     time.Duration `envconfig:"POSTERM_SYNC_MAX_BACKOFF" default:"5s"`
}

type ConnectivityConfig struct {
	SampleInterval time.Duration `envconfig:"POSTERM_CONNECTIVITY_SAMPLE_INTERVAL" default:"3s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"POSTERM_AUTO_MIGRATE" default:"true"`
	SeedUsers   bool `envconfig:"POSTERM_SEED_USERS" default:"true"`
}
