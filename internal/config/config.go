package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Lifecycle    LifecycleConfig
	SLA          SLAConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	// Timezone names the IANA zone whose calendar date stamps ticket ids.
	Timezone string
	Location *time.Location
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines bearer token parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// NotificationConfig holds outbound notification settings.
type NotificationConfig struct {
	Enabled       bool
	SenderID      string
	AdminWhatsApp string
}

// LifecycleConfig tunes intake, routing and duplicate screening.
type LifecycleConfig struct {
	DuplicateThreshold  float64
	DuplicateWindowDays int
	DefaultDistrict     string
	TicketIDAttempts    int
}

// SLAConfig controls the background breach sweep.
type SLAConfig struct {
	SweepSchedule   string
	AlertTTLMinutes int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	threshold, err := strconv.ParseFloat(getEnv("DUPLICATE_THRESHOLD", "0.8"), 64)
	if err != nil || threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("invalid DUPLICATE_THRESHOLD %q: must be in (0, 1]", os.Getenv("DUPLICATE_THRESHOLD"))
	}

	timezone := getEnv("APP_TIMEZONE", "Asia/Kolkata")
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", timezone, err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "grievance-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			Timezone:              timezone,
			Location:              location,
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Notification: NotificationConfig{
			Enabled:       getEnvAsBool("NOTIFY_ENABLED", true),
			SenderID:      getEnv("NOTIFY_SENDER_ID", "janta-darbar"),
			AdminWhatsApp: os.Getenv("NOTIFY_ADMIN_WHATSAPP"),
		},
		Lifecycle: LifecycleConfig{
			DuplicateThreshold:  threshold,
			DuplicateWindowDays: getEnvAsInt("DUPLICATE_WINDOW_DAYS", 30),
			DefaultDistrict:     getEnv("ROUTING_DEFAULT_DISTRICT", "Pune"),
			TicketIDAttempts:    getEnvAsInt("TICKET_ID_ATTEMPTS", 5),
		},
		SLA: SLAConfig{
			SweepSchedule:   getEnv("SLA_SWEEP_SCHEDULE", "@every 5m"),
			AlertTTLMinutes: getEnvAsInt("SLA_ALERT_TTL_MINUTES", 24*60),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// DuplicateWindow returns how far back duplicate candidates are considered.
func (l LifecycleConfig) DuplicateWindow() time.Duration {
	if l.DuplicateWindowDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(l.DuplicateWindowDays) * 24 * time.Hour
}

// AlertTTL returns how long a breach alert suppresses repeats.
func (s SLAConfig) AlertTTL() time.Duration {
	if s.AlertTTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.AlertTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
