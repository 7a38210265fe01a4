package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "HUB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	EmailToken    EmailTokenConfig
	Password      PasswordConfig
	Mail          MailConfig
	S3            S3Config
	Services      ServicesConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"HUB_APP_ENV" required:"true"`
	Port         string `envconfig:"HUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HUB_LOG_WARN_STACK" default:"false"`
	PublicURL    string `envconfig:"HUB_APP_PUBLIC_URL" default:"http://localhost:5005"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"HUB_DB_DSN"`
	Driver string `envconfig:"HUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HUB_DB_HOST"`
	LegacyPort     int    `envconfig:"HUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HUB_DB_USER"`
	LegacyPassword string `envconfig:"HUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"HUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"HUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"HUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HUB_REDIS_ADDR"`
	Password     string        `envconfig:"HUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"HUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"HUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"HUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"HUB_JWT_EXPIRATION_MINUTES" default:"30"`
}

// AccessTokenTTL returns the bearer token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// EmailTokenConfig governs the signed verification / reset links.
type EmailTokenConfig struct {
	Secret string        `envconfig:"HUB_EMAIL_TOKEN_SECRET" required:"true"`
	MaxAge time.Duration `envconfig:"HUB_EMAIL_TOKEN_MAX_AGE" default:"1h"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"HUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"HUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"HUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"HUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"HUB_ARGON_KEY_LEN" default:"32"`
}

type MailConfig struct {
	SMTPHost    string `envconfig:"HUB_SMTP_HOST"`
	SMTPPort    int    `envconfig:"HUB_SMTP_PORT" default:"587"`
	Username    string `envconfig:"HUB_SMTP_USERNAME"`
	Password    string `envconfig:"HUB_SMTP_PASSWORD"`
	SenderEmail string `envconfig:"HUB_SENDER_EMAIL"`
}

type S3Config struct {
	Region          string `envconfig:"HUB_S3_REGION" default:"us-east-2"`
	AccessKeyID     string `envconfig:"HUB_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"HUB_S3_SECRET_ACCESS_KEY"`
	Endpoint        string `envconfig:"HUB_S3_ENDPOINT"`
	ListingsBucket  string `envconfig:"HUB_S3_LISTINGS_BUCKET"`
	UsersBucket     string `envconfig:"HUB_S3_USERS_BUCKET"`
}

// ServicesConfig wires the cross-service HTTP calls.
type ServicesConfig struct {
	ProfileBaseURL string        `envconfig:"HUB_USER_PROFILE_SERVICE_URL" default:"http://localhost:5005"`
	AttachTimeout  time.Duration `envconfig:"HUB_LISTING_ATTACH_TIMEOUT" default:"5s"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"HUB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"HUB_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"HUB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"HUB_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"HUB_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"HUB_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HUB_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" || db.IsSQLite() {
		if db.IsSQLite() && db.DSN == "" {
			db.DSN = "file::memory:?cache=shared"
		}
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		"HUB_DB_HOST": db.LegacyHost,
		"HUB_DB_USER": db.LegacyUser,
		"HUB_DB_NAME": db.LegacyName,
	}
	for _, env := range []string{"HUB_DB_HOST", "HUB_DB_USER", "HUB_DB_NAME"} {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either HUB_DB_DSN or %s are required", strings.Join(missing, ", "))
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
