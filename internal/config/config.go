package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
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
	Scheduler    SchedulerConfig
	Realtime     RealtimeConfig
	Quiz         QuizConfig
	Calendar     CalendarConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
	// ConnectAttempts is how many pings startup makes before giving up.
	ConnectAttempts int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix namespaces every key the service writes.
	KeyPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
	// Service and Env are attached to every log line.
	Service string
	Env     string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	// PasswordResetTTLMinutes bounds how long a mailed reset link works.
	PasswordResetTTLMinutes int
}

// NotificationConfig configures outbound mail.
type NotificationConfig struct {
	EmailFrom       string
	SendGridAPIKey  string
	FrontendBaseURL string
}

// SchedulerConfig drives the scheduled callup worker.
type SchedulerConfig struct {
	Enabled   bool
	Spec      string
	BatchSize int
}

// RealtimeConfig controls change-event fan-out.
type RealtimeConfig struct {
	ChannelPrefix    string
	HeartbeatSeconds int
}

// QuizConfig controls quiz attempts.
type QuizConfig struct {
	AttemptTTLMinutes int
}

// CalendarConfig bounds the visible window of the weekly grid.
type CalendarConfig struct {
	DayStartHour int
	DayEndHour   int
	Timezone     string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "squad-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("POSTGRES_DSN"),
			MaxConns:        int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:        int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:   getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			ConnectAttempts: getEnvAsInt("POSTGRES_CONNECT_ATTEMPTS", 5),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "squad"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60*24),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
		},
		Notification: NotificationConfig{
			EmailFrom:       getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			SendGridAPIKey:  os.Getenv("SENDGRID_API_KEY"),
			FrontendBaseURL: getEnv("FRONTEND_BASE_URL", "http://localhost:5173"),
		},
		Scheduler: SchedulerConfig{
			Enabled:   getEnvAsBool("SCHEDULER_ENABLED", true),
			Spec:      getEnv("SCHEDULER_SPEC", "@every 1m"),
			BatchSize: getEnvAsInt("SCHEDULER_BATCH_SIZE", 25),
		},
		Realtime: RealtimeConfig{
			ChannelPrefix:    getEnv("REALTIME_CHANNEL_PREFIX", "squad"),
			HeartbeatSeconds: getEnvAsInt("REALTIME_HEARTBEAT_SECONDS", 25),
		},
		Quiz: QuizConfig{
			AttemptTTLMinutes: getEnvAsInt("QUIZ_ATTEMPT_TTL_MINUTES", 120),
		},
		Calendar: CalendarConfig{
			DayStartHour: getEnvAsInt("CALENDAR_DAY_START_HOUR", 8),
			DayEndHour:   getEnvAsInt("CALENDAR_DAY_END_HOUR", 22),
			Timezone:     getEnv("CALENDAR_TIMEZONE", "Europe/Madrid"),
		},
	}
	cfg.Logger.Service = cfg.App.Name
	cfg.Logger.Env = cfg.App.Env

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.App.IsProduction() && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == "dev-secret") {
		return errors.New("AUTH_JWT_SECRET must be set in production")
	}
	if c.Calendar.DayStartHour < 0 || c.Calendar.DayEndHour > 24 || c.Calendar.DayStartHour >= c.Calendar.DayEndHour {
		return fmt.Errorf("invalid calendar window %d-%d", c.Calendar.DayStartHour, c.Calendar.DayEndHour)
	}
	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		return fmt.Errorf("invalid CALENDAR_TIMEZONE: %w", err)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs with production settings.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// PasswordResetTTL returns the lifetime of a reset token.
func (a AuthConfig) PasswordResetTTL() time.Duration {
	if a.PasswordResetTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}

// AttemptTTL returns how long an unfinished quiz attempt is kept.
func (q QuizConfig) AttemptTTL() time.Duration {
	if q.AttemptTTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(q.AttemptTTLMinutes) * time.Minute
}

// Heartbeat returns the SSE keep-alive interval.
func (r RealtimeConfig) Heartbeat() time.Duration {
	if r.HeartbeatSeconds <= 0 {
		return 25 * time.Second
	}
	return time.Duration(r.HeartbeatSeconds) * time.Second
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

// Location resolves the calendar timezone, falling back to UTC.
func (c CalendarConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
