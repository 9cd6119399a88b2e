package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/configor"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Telegram TelegramConfig
	Storage  StorageConfig
	API      APIConfig
	Checker  CheckerConfig
	Web      WebConfig
}

type TelegramConfig struct {
	Token    string `required:"true" env:"TELEGRAM_BOT_TOKEN"`
	Username string `env:"TELEGRAM_BOT_USERNAME"`
}

type StorageConfig struct {
	Driver        string `default:"sqlite" env:"STORAGE_DRIVER"`
	DatabasePath  string `default:"data.sqlite" env:"DATABASE_PATH"`
	DatabaseDSN   string `env:"DATABASE_DSN"`
	MongoURI      string `env:"MONGODB_URI"`
	MongoDatabase string `default:"dota2_notify" env:"MONGODB_DATABASE"`
}

// DSN returns what the SQL backend connects to
func (c StorageConfig) DSN() string {
	if c.Driver == DriverSQLite {
		return c.DatabasePath
	}

	return c.DatabaseDSN
}

type APIConfig struct {
	SteamKey           string `env:"STEAM_API_KEY"`
	OpenDotaBaseURL    string `env:"OPENDOTA_BASE_URL"`
	MatchDetailsURL    string `default:"https://www.dotabuff.com" env:"MATCH_DETAILS_BASE_URL"`
	HTTPTimeoutSeconds int    `default:"10" env:"HTTP_TIMEOUT_SECONDS"`
}

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

type CheckerConfig struct {
	// kept as text so an explicit "false" is not replaced by the default
	EnabledString   string `default:"true" env:"CHECKER_ENABLED"`
	IntervalMinutes int    `default:"5" env:"CHECKER_INTERVAL_MINUTES"`
}

func (c CheckerConfig) Enabled() bool {
	enabled, err := strconv.ParseBool(strings.TrimSpace(c.EnabledString))
	if err != nil {
		slog.Warn("config: Cannot parse CHECKER_ENABLED, checker stays enabled", "value", c.EnabledString)
		return true
	}

	return enabled
}

func (c CheckerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

type WebConfig struct {
	Addr          string `default:":8080" env:"HTTP_ADDR"`
	PublicBaseURL string `default:"http://localhost:8080" env:"PUBLIC_BASE_URL"`
	JWTSecret     string `required:"true" env:"JWT_COOKIES_SECRET"`
	CookieSecure  bool   `env:"COOKIE_SECURE"`
}

// Load reads .env (when present) and the environment, then validates the result
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("config: No .env file loaded", "error", err)
	} else {
		slog.Debug("config: Environment variables loaded from .env file")
	}

	var cfg Config
	if err := configor.Load(&cfg, files...); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Storage.DatabaseDSN == "" {
			return fmt.Errorf("%w: DATABASE_DSN is required for the postgres driver", ErrInvalid)
		}
	case DriverMongo:
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("%w: MONGODB_URI is required for the mongo driver", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown STORAGE_DRIVER %q", ErrInvalid, c.Storage.Driver)
	}

	if c.API.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: HTTP_TIMEOUT_SECONDS must be positive", ErrInvalid)
	}
	if c.Checker.IntervalMinutes <= 0 {
		return fmt.Errorf("%w: CHECKER_INTERVAL_MINUTES must be positive", ErrInvalid)
	}

	c.Web.PublicBaseURL = strings.TrimRight(c.Web.PublicBaseURL, "/")

	return nil
}
