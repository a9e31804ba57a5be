// Package config loads server settings from flags, an optional YAML file and
// the environment.
//
// Precedence, highest first:
//
//  1. flags set explicitly on the command line
//  2. keys in the YAML file given with --config
//  3. environment variables, which become the flag defaults
//  4. built-in defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
)

// Store backends accepted by db-driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Built-in defaults.
const (
	DefaultPort       = 8080
	DefaultDBDriver   = DriverSQLite
	DefaultDBPath     = "data/scoreboard.db"
	DefaultBcryptCost = 12
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

// Config is the resolved server configuration.
type Config struct {
	Port        int    `koanf:"port"`
	DBDriver    string `koanf:"db-driver"`
	DBPath      string `koanf:"db-path"`
	DatabaseURL string `koanf:"database-url"`
	AutoMigrate bool   `koanf:"auto-migrate"`
	JWTSecret   string `koanf:"jwt-secret"`
	BcryptCost  int    `koanf:"bcrypt-cost"`
	LogLevel    string `koanf:"log-level"`
	LogFormat   string `koanf:"log-format"`
}

// RegisterFlags adds every config key to fs. Defaults come from the
// environment when the matching variable is set.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("port", envInt("PORT", DefaultPort), "HTTP listen port [$PORT]")
	fs.String("db-driver", envString("DB_DRIVER", DefaultDBDriver), "store backend: sqlite, postgres or memory [$DB_DRIVER]")
	fs.String("db-path", envString("DB_PATH", DefaultDBPath), "SQLite database file [$DB_PATH]")
	fs.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL [$DATABASE_URL]")
	fs.Bool("auto-migrate", envBool("AUTO_MIGRATE", true), "apply PostgreSQL migrations on start [$AUTO_MIGRATE]")
	fs.String("jwt-secret", os.Getenv("JWT_SECRET"), "token signing secret [$JWT_SECRET]")
	fs.Int("bcrypt-cost", envInt("BCRYPT_COST", DefaultBcryptCost), "bcrypt work factor [$BCRYPT_COST]")
	fs.String("log-level", envString("LOG_LEVEL", DefaultLogLevel), "debug, info, warn or error [$LOG_LEVEL]")
	fs.String("log-format", envString("LOG_FORMAT", DefaultLogFormat), "text or json [$LOG_FORMAT]")
}

// Load resolves the configuration. path may be empty, in which case only
// flags and their defaults are used.
func Load(fs *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	// Unchanged flags only fill keys the file left out.
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("reading flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("db-path is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("database-url is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown db-driver %q", c.DBDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt-secret is required (set JWT_SECRET)"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt-cost %d outside [%d, %d]", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown log-format %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt and envBool ignore unparsable values; the flag default wins.
func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}
