package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	Port     string `envconfig:"APP_PORT" default:"8082"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DBDriver      string `envconfig:"DB_DRIVER" default:"postgres"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	DBHost        string `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string `envconfig:"DB_PORT" default:"5432"`
	DBUser        string `envconfig:"DB_USER" default:"postgres"`
	DBPassword    string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName        string `envconfig:"DB_NAME" default:"dz_fellah"`
	DBSSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns    int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"true"`
	MigrationsDir string `envconfig:"MIGRATIONS_DIR" default:"database/migration"`

	RedisURL      string `envconfig:"REDIS_URL"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	OrderSequence string `envconfig:"ORDER_SEQUENCE" default:"db"`
	OrderPrefix   string `envconfig:"ORDER_PREFIX" default:"DZF"`

	JWTSecret      string `envconfig:"JWT_SECRET" default:"secret"`
	CronSecretHash string `envconfig:"CRON_SECRET_HASH"`

	AntiGaspiCategories []string        `envconfig:"ANTI_GASPI_CATEGORIES" default:"Vegetables,Fruits,Dairy"`
	AntiGaspiMinAgeDays int             `envconfig:"ANTI_GASPI_MIN_AGE_DAYS" default:"2"`
	AntiGaspiMinStock   decimal.Decimal `envconfig:"ANTI_GASPI_MIN_STOCK" default:"3"`
	AdjustmentTolerance decimal.Decimal `envconfig:"ADJUSTMENT_TOLERANCE" default:"0.30"`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"marketplace-orders"`

	// caps how long a request waits on the broker after commit
	KafkaPublishTimeout time.Duration `envconfig:"KAFKA_PUBLISH_TIMEOUT" default:"2s"`

	SMTPHost string `envconfig:"SMTP_HOST"`
	SMTPPort int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser string `envconfig:"SMTP_USER"`
	SMTPPass string `envconfig:"SMTP_PASS"`
	SMTPFrom string `envconfig:"SMTP_FROM" default:"no-reply@dz-fellah.local"`

	OriginURL string `envconfig:"ORIGIN_URL"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if os.Getenv("VERCEL") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using system environment variables")
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or memory, got %q", c.DBDriver)
	}
	switch c.OrderSequence {
	case "db", "redis":
	default:
		return fmt.Errorf("ORDER_SEQUENCE must be db or redis, got %q", c.OrderSequence)
	}
	if c.AdjustmentTolerance.IsNegative() || c.AdjustmentTolerance.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("ADJUSTMENT_TOLERANCE must be in [0, 1), got %s", c.AdjustmentTolerance)
	}
	if c.AntiGaspiMinAgeDays < 0 {
		return fmt.Errorf("ANTI_GASPI_MIN_AGE_DAYS must not be negative")
	}
	for i, cat := range c.AntiGaspiCategories {
		c.AntiGaspiCategories[i] = strings.TrimSpace(cat)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// DSN prefers DATABASE_URL and falls back to the individual DB_* variables.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != ""
}

func (c *Config) KafkaBrokerList() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
