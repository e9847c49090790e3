package config

import (
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

// minProductionSecretLen is the shortest JWT secret accepted outside development.
const minProductionSecretLen = 32

type Config struct {
	Port               string        `mapstructure:"PORT"`
	Env                string        `mapstructure:"ENV"`
	StoreDriver        string        `mapstructure:"STORE_DRIVER"`
	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32         `mapstructure:"DB_MIN_CONNS"`
	MongoURI           string        `mapstructure:"MONGODB_URI"`
	MongoDatabase      string        `mapstructure:"MONGODB_DATABASE"`
	RedisURL           string        `mapstructure:"REDIS_URL"`
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	CORSOrigins        []string      `mapstructure:"CORS_ORIGINS"`
	HIPAAEncryptionKey string        `mapstructure:"HIPAA_ENCRYPTION_KEY"`
	RateLimitRPS       float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int           `mapstructure:"RATE_LIMIT_BURST"`
	SentryDSN          string        `mapstructure:"SENTRY_DSN"`
	BodyLimit          string        `mapstructure:"BODY_LIMIT"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("MONGODB_DATABASE", "medirx")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("REQUEST_TIMEOUT", "30s")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("STORE_DRIVER")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("MONGODB_URI")
	v.BindEnv("MONGODB_DATABASE")
	v.BindEnv("REDIS_URL")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("HIPAA_ENCRYPTION_KEY")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("SENTRY_DSN")
	v.BindEnv("BODY_LIMIT")
	v.BindEnv("REQUEST_TIMEOUT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.IsDev() {
		log.Println("WARNING: server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: PHI encryption is optional and short JWT secrets are accepted.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run: the selected store
// must have a connection string, a signing secret must be present, and the
// HIPAA key (required in production) must decode to 32 bytes.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is %q", StoreDriverPostgres)
		}
	case StoreDriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORE_DRIVER is %q", StoreDriverMongo)
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMongo, c.StoreDriver)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < minProductionSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes in production, got %d", minProductionSecretLen, len(c.JWTSecret))
	}

	// HIPAA encryption key validation
	if c.IsProduction() && c.HIPAAEncryptionKey == "" {
		return fmt.Errorf("HIPAA_ENCRYPTION_KEY is required in production")
	}
	if c.HIPAAEncryptionKey != "" {
		keyBytes, err := hex.DecodeString(c.HIPAAEncryptionKey)
		if err != nil {
			return fmt.Errorf("HIPAA_ENCRYPTION_KEY is not valid hex: %w", err)
		}
		if len(keyBytes) != 32 {
			return fmt.Errorf("HIPAA_ENCRYPTION_KEY must be 32 bytes (64 hex chars), got %d bytes", len(keyBytes))
		}
	}

	return nil
}
