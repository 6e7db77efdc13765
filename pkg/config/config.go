package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Import        ImportConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TIMECLOCK_APP_ENV" required:"true"`
	Port         string `envconfig:"TIMECLOCK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TIMECLOCK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TIMECLOCK_LOG_WARN_STACK" default:"false"`
	Timezone     string `envconfig:"TIMECLOCK_APP_TIMEZONE" default:"Local"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the wall-clock timezone used for calendar-day and
// calendar-month boundaries.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" || strings.EqualFold(name, "Local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return loc, nil
}

type DBConfig struct {
	DSN    string `envconfig:"TIMECLOCK_DB_DSN"`
	Driver string `envconfig:"TIMECLOCK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TIMECLOCK_DB_HOST"`
	LegacyPort     int    `envconfig:"TIMECLOCK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TIMECLOCK_DB_USER"`
	LegacyPassword string `envconfig:"TIMECLOCK_DB_PASSWORD"`
	LegacyName     string `envconfig:"TIMECLOCK_DB_NAME"`
	LegacySSLMode  string `envconfig:"TIMECLOCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TIMECLOCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TIMECLOCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TIMECLOCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TIMECLOCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TIMECLOCK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TIMECLOCK_REDIS_ADDR"`
	Password     string        `envconfig:"TIMECLOCK_REDIS_PASSWORD"`
	DB           int           `envconfig:"TIMECLOCK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TIMECLOCK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TIMECLOCK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TIMECLOCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TIMECLOCK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TIMECLOCK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"TIMECLOCK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"TIMECLOCK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"TIMECLOCK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"TIMECLOCK_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TIMECLOCK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TIMECLOCK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TIMECLOCK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TIMECLOCK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TIMECLOCK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"TIMECLOCK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"TIMECLOCK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"TIMECLOCK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TIMECLOCK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TIMECLOCK_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"TIMECLOCK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	AttendanceTopic     string `envconfig:"TIMECLOCK_PUBSUB_ATTENDANCE_TOPIC" default:"tc-attendance-events"`
	SummarySubscription string `envconfig:"TIMECLOCK_PUBSUB_SUMMARY_SUBSCRIPTION"`
}

// Enabled reports whether event publishing is configured at all. The API
// degrades to synchronous-only behavior when Pub/Sub is absent (local dev).
func (p PubSubConfig) Enabled(gcp GCPConfig) bool {
	return strings.TrimSpace(gcp.ProjectID) != "" && strings.TrimSpace(p.AttendanceTopic) != ""
}

type ImportConfig struct {
	MaxUploadMB int `envconfig:"TIMECLOCK_IMPORT_MAX_UPLOAD_MB" default:"20"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
