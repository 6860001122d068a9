package config

import (
	"time"
	_ "time/tzdata" // scanning stations run in minimal images without zoneinfo
)

// Config is the root application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Auth         AuthConfig         `yaml:"auth"`
	Log          LogConfig          `yaml:"log"`
	CORS         CORSConfig         `yaml:"cors"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Verification VerificationConfig `yaml:"verification"`
	Camera       CameraConfig       `yaml:"camera"`
	Storage      StorageConfig      `yaml:"storage"`
	Notify       NotifyConfig       `yaml:"notify"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type,X-Viewport-Width"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"0s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
// An empty DSN runs the service against the in-memory store.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"       env-default:"true"`
}

// InMemory reports whether no database is configured.
func (c DatabaseConfig) InMemory() bool { return c.DSN == "" }

// AuthConfig holds terminal sign-in settings.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"AUTH_JWT_SECRET"       env-required:"true"`
	JWTIssuer      string        `yaml:"jwt_issuer"       env:"AUTH_JWT_ISSUER"       env-default:"mediguard"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"12h"`
	BcryptCost     int           `yaml:"bcrypt_cost"      env:"AUTH_BCRYPT_COST"      env-default:"10"`
	// RolesFile overrides the built-in role table (YAML list of id/label/pin).
	RolesFile string `yaml:"roles_file" env:"AUTH_ROLES_FILE"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// RateLimitConfig holds per-IP request limits.
type RateLimitConfig struct {
	Enabled         bool          `yaml:"enabled"          env:"RATE_LIMIT_ENABLED"          env-default:"true"`
	RequestsPerMin  int           `yaml:"requests_per_min" env:"RATE_LIMIT_REQUESTS_PER_MIN" env-default:"300"`
	LoginPerMin     int           `yaml:"login_per_min"    env:"RATE_LIMIT_LOGIN_PER_MIN"    env-default:"10"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"RATE_LIMIT_CLEANUP_INTERVAL" env-default:"5m"`
}

// VerificationConfig holds workflow timing and limits.
type VerificationConfig struct {
	ScanDelay        time.Duration `yaml:"scan_delay"        env:"VERIFY_SCAN_DELAY"        env-default:"2500ms"`
	ProcessDelay     time.Duration `yaml:"process_delay"     env:"VERIFY_PROCESS_DELAY"     env-default:"2000ms"`
	ManualDelay      time.Duration `yaml:"manual_delay"      env:"VERIFY_MANUAL_DELAY"      env-default:"1000ms"`
	MobileBreakpoint int           `yaml:"mobile_breakpoint" env:"VERIFY_MOBILE_BREAKPOINT" env-default:"768"`
	DispatchTimeout  time.Duration `yaml:"dispatch_timeout"  env:"VERIFY_DISPATCH_TIMEOUT"  env-default:"5s"`
	MaxSessions      int           `yaml:"max_sessions"      env:"VERIFY_MAX_SESSIONS"      env-default:"256"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"  env:"VERIFY_MAX_UPLOAD_BYTES"  env-default:"10485760"`
	// IdleTimeout closes studio sessions nobody touched for this long.
	// Zero disables the reaper.
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"VERIFY_IDLE_TIMEOUT" env-default:"30m"`
	// Timezone decides what "today" is for expiry checks.
	Timezone string `yaml:"timezone" env:"VERIFY_TIMEZONE" env-default:"UTC"`
}

// Location resolves Timezone, falling back to UTC.
func (v VerificationConfig) Location() *time.Location {
	loc, err := time.LoadLocation(v.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CameraConfig selects the capture device of a scanning station.
type CameraConfig struct {
	// SnapshotURL of an IP camera returning one JPEG per GET. Empty means no camera.
	SnapshotURL string        `yaml:"snapshot_url" env:"CAMERA_SNAPSHOT_URL"`
	Timeout     time.Duration `yaml:"timeout"      env:"CAMERA_TIMEOUT"      env-default:"5s"`
}

// StorageConfig selects where captured previews are kept.
type StorageConfig struct {
	// Backend is "local" or "gcs".
	Backend   string `yaml:"backend"    env:"STORAGE_BACKEND"    env-default:"local"`
	LocalDir  string `yaml:"local_dir"  env:"STORAGE_LOCAL_DIR"  env-default:"./data/previews"`
	GCSBucket string `yaml:"gcs_bucket" env:"STORAGE_GCS_BUCKET"`
	GCSPrefix string `yaml:"gcs_prefix" env:"STORAGE_GCS_PREFIX" env-default:"previews/"`
}

// NotifyConfig holds alert feed settings.
type NotifyConfig struct {
	BufferSize int `yaml:"buffer_size" env:"NOTIFY_BUFFER_SIZE" env-default:"32"`
	// History is the number of notifications kept for late subscribers.
	History int `yaml:"history" env:"NOTIFY_HISTORY" env-default:"50"`
	// PubSubProject and PubSubTopic enable publishing alerts to Google Pub/Sub.
	PubSubProject string `yaml:"pubsub_project" env:"NOTIFY_PUBSUB_PROJECT"`
	PubSubTopic   string `yaml:"pubsub_topic"   env:"NOTIFY_PUBSUB_TOPIC"   env-default:"mediguard-alerts"`
}
