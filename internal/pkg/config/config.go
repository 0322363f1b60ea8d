package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,       default=8080"`
	Env       string        `env:"ENV,        default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,    default=24h"`
	LogLevel  string        `env:"LOG_LEVEL,  default=info"`
	LogPretty bool          `env:"LOG_PRETTY, default=false"`

	Mongo      MongoConfig
	Redis      RedisConfig
	Mail       MailConfig
	Moderation ModerationConfig
	Suggest    SuggestConfig
	RateLimit  RateLimitConfig
	Reconcile  ReconcileConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=whisperbox"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// MailConfig selects the verification mail transport. Provider "log" writes
// the email to the application log instead of sending it.
type MailConfig struct {
	Provider string `env:"MAIL_PROVIDER, default=log"`
	APIKey   string `env:"MAIL_API_KEY"`
	From     string `env:"MAIL_FROM,     default=WhisperBox <onboarding@resend.dev>"`
	BaseURL  string `env:"MAIL_BASE_URL"`
}

type ModerationConfig struct {
	Enabled  bool   `env:"MODERATION_ENABLED,   default=false"`
	APIKey   string `env:"MODERATION_API_KEY"`
	BaseURL  string `env:"MODERATION_BASE_URL"`
	FailOpen bool   `env:"MODERATION_FAIL_OPEN, default=false"`
}

type SuggestConfig struct {
	APIKey string `env:"GEMINI_API_KEY"`
	Model  string `env:"GEMINI_MODEL"`
}

// RateLimitConfig holds ulule/limiter formatted rates such as "20-M".
type RateLimitConfig struct {
	Auth     string `env:"RATE_LIMIT_AUTH,     default=20-M"`
	Messages string `env:"RATE_LIMIT_MESSAGES, default=30-M"`
}

type ReconcileConfig struct {
	Interval time.Duration `env:"RECONCILE_INTERVAL, default=1m"`
	Grace    time.Duration `env:"RECONCILE_GRACE,    default=30s"`
	Workers  int           `env:"RECONCILE_WORKERS,  default=4"`
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.Mail.Provider {
	case "log":
	case "resend":
		if c.Mail.APIKey == "" {
			errs = append(errs, errors.New("MAIL_API_KEY is required for the resend provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_PROVIDER %q", c.Mail.Provider))
	}
	if c.Moderation.Enabled && c.Moderation.APIKey == "" {
		errs = append(errs, errors.New("MODERATION_API_KEY is required when moderation is enabled"))
	}
	if c.Reconcile.Workers < 1 {
		errs = append(errs, errors.New("RECONCILE_WORKERS must be at least 1"))
	}
	return errors.Join(errs...)
}
