// Package config reads the server settings from command-line flags, falling
// back to environment variables and then to defaults.
//
// A .env file in the working directory is loaded into the environment first
// (godotenv/autoload), without overriding variables that are already set.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	DefaultPort         = 8080
	DefaultDatabasePath = "data/db.json"
	DefaultBcryptCost   = 10
	MinSecretLength     = 16

	// DevSessionSecret is used when no secret is configured outside
	// production. Anyone who knows it can forge sessions.
	DevSessionSecret = "dev-secret-change-in-production"
)

// Config holds server configuration.
type Config struct {
	Port          int
	DatabasePath  string
	SessionSecret string
	Env           string
	BcryptCost    int
	VoteTimezone  string
	LogLevel      string
}

// Production reports whether APP_ENV is "production". It turns on the Secure
// cookie flag and makes SESSION_SECRET mandatory.
func (c Config) Production() bool {
	return c.Env == "production"
}

// UsingDevSecret reports whether the built-in development secret is in use.
func (c Config) UsingDevSecret() bool {
	return c.SessionSecret == DevSessionSecret
}

// Location resolves VoteTimezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.VoteTimezone)
	if err != nil {
		return nil, fmt.Errorf("config: VOTE_TIMEZONE %q: %w", c.VoteTimezone, err)
	}
	return loc, nil
}

// Load parses args (os.Args[1:] in main). Flags win over environment
// variables, which win over defaults.
//
//	-port     PORT            (8080)
//	-data     DATABASE_PATH   (data/db.json)
//	-secret   SESSION_SECRET  (development secret; required in production)
//	-env      APP_ENV
//	-bcrypt-cost BCRYPT_COST  (10)
//	-tz       VOTE_TIMEZONE   (UTC)
//	-log-level LOG_LEVEL      (info)
func Load(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("queridometro", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", 0, "HTTP port")
	fs.StringVar(&cfg.DatabasePath, "data", "", "path of the JSON data file")
	fs.StringVar(&cfg.SessionSecret, "secret", "", "session signing secret (prefer env)")
	fs.StringVar(&cfg.Env, "env", "", "environment name (production enables secure cookies)")
	fs.IntVar(&cfg.BcryptCost, "bcrypt-cost", 0, "bcrypt cost for new password hashes")
	fs.StringVar(&cfg.VoteTimezone, "tz", "", "IANA time zone that defines the vote day")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		port, err := envInt("PORT", DefaultPort)
		if err != nil {
			return Config{}, err
		}
		cfg.Port = port
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("config: port %d out of range", cfg.Port)
	}

	if cfg.BcryptCost == 0 {
		cost, err := envInt("BCRYPT_COST", DefaultBcryptCost)
		if err != nil {
			return Config{}, err
		}
		cfg.BcryptCost = cost
	}

	cfg.DatabasePath = firstNonEmpty(cfg.DatabasePath, os.Getenv("DATABASE_PATH"), DefaultDatabasePath)
	cfg.Env = firstNonEmpty(cfg.Env, os.Getenv("APP_ENV"))
	cfg.VoteTimezone = firstNonEmpty(cfg.VoteTimezone, os.Getenv("VOTE_TIMEZONE"), "UTC")
	cfg.LogLevel = firstNonEmpty(cfg.LogLevel, os.Getenv("LOG_LEVEL"), "info")

	cfg.SessionSecret = firstNonEmpty(cfg.SessionSecret, os.Getenv("SESSION_SECRET"))
	if cfg.SessionSecret == "" {
		if cfg.Production() {
			return Config{}, errors.New("config: SESSION_SECRET required in production")
		}
		cfg.SessionSecret = DevSessionSecret
	}
	if len(cfg.SessionSecret) < MinSecretLength {
		return Config{}, fmt.Errorf("config: SESSION_SECRET must be at least %d characters", MinSecretLength)
	}

	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q", key, raw)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
