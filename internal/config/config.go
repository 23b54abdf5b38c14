// Package config loads the client's configuration.
//
// Sources are layered, later ones winning:
//
//  1. Default()
//  2. a YAML file (--config or BILLED_CONFIG)
//  3. environment variables, after loading a .env file (--env-file)
//  4. command-line flags
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// DefaultExcludedEmails are the seeded test accounts kept off the dashboard.
var DefaultExcludedEmails = []string{
	"employee@test.tld",
	"employee@company.tld",
	"admin@test.tld",
	"admin@company.tld",
}

// Config is the client configuration.
type Config struct {
	// API configures the Billed backend.
	API APIConfig `yaml:"api"`

	// Server configures the browser-facing HTTP server.
	Server ServerConfig `yaml:"server"`

	// Storage configures where session keys live.
	Storage StorageConfig `yaml:"storage"`

	// Log configures logging.
	Log LogConfig `yaml:"log"`

	// Dashboard configures the administrator's triage page.
	Dashboard DashboardConfig `yaml:"dashboard"`
}

type APIConfig struct {
	// BaseURL is the backend root.
	// Default: http://localhost:5678
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single backend call.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	// Port is the HTTP listen port.
	// Default: 8080
	Port int `yaml:"port"`

	// CookieSecret signs session cookies. Required, at least 16 bytes.
	CookieSecret string `yaml:"cookie_secret"`

	// SecureCookie marks the session cookie Secure (HTTPS only).
	SecureCookie bool `yaml:"secure_cookie"`

	// SessionLifetime is how long a session cookie stays valid.
	// Default: 24h
	SessionLifetime time.Duration `yaml:"session_lifetime"`

	// IdleTimeout is how long an unused browser session stays in memory.
	// Default: 30m
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	// Driver is "sqlite" or "memory".
	// Default: sqlite
	Driver string `yaml:"driver"`

	// Path is the SQLite database file.
	// Default: data/sessions.db
	Path string `yaml:"path"`
}

type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: info
	Level string `yaml:"level"`
}

type DashboardConfig struct {
	// ExcludedEmails are accounts whose bills never show up on the dashboard.
	// Default: the seeded test accounts.
	ExcludedEmails []string `yaml:"excluded_emails"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:5678",
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Port:            8080,
			SessionLifetime: 24 * time.Hour,
			IdleTimeout:     30 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver: StorageSQLite,
			Path:   "data/sessions.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Dashboard: DashboardConfig{
			ExcludedEmails: append([]string(nil), DefaultExcludedEmails...),
		},
	}
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the file
// keep their current value.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto c. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("API_BASE_URL", &c.API.BaseURL)
	duration("API_TIMEOUT", &c.API.Timeout)
	num("PORT", &c.Server.Port)
	str("COOKIE_SECRET", &c.Server.CookieSecret)
	boolean("COOKIE_SECURE", &c.Server.SecureCookie)
	duration("SESSION_LIFETIME", &c.Server.SessionLifetime)
	duration("SESSION_IDLE_TIMEOUT", &c.Server.IdleTimeout)
	str("SESSION_STORE", &c.Storage.Driver)
	str("SESSION_DB_PATH", &c.Storage.Path)
	str("LOG_LEVEL", &c.Log.Level)
	if v, ok := lookup("EXCLUDED_EMAILS"); ok {
		c.Dashboard.ExcludedEmails = splitList(v)
	}

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks that c can run the client.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url must be an http(s) URL, got %q", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if len(c.Server.CookieSecret) < 16 {
		errs = append(errs, errors.New("server.cookie_secret must be at least 16 bytes (set COOKIE_SECRET)"))
	}
	if c.Server.SessionLifetime <= 0 || c.Server.IdleTimeout <= 0 {
		errs = append(errs, errors.New("server.session_lifetime and server.idle_timeout must be positive"))
	}
	switch c.Storage.Driver {
	case StorageSQLite:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the sqlite driver"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log.level %q", c.Log.Level))
	}

	return errors.Join(errs...)
}

// Load builds the configuration from args (without the program name) and the
// process environment. It returns pflag.ErrHelp when help was requested.
func Load(args []string) (*Config, error) {
	flagSet := pflag.NewFlagSet("billed", pflag.ContinueOnError)
	configPath := flagSet.String("config", "", "path to a YAML config file (env: BILLED_CONFIG)")
	envFile := flagSet.String("env-file", ".env", "path to a .env file; a missing file is ignored")
	baseURL := flagSet.String("api-base-url", "", "Billed backend root URL")
	port := flagSet.IntP("port", "p", 0, "HTTP listen port")
	storageDriver := flagSet.String("session-store", "", "session storage driver: sqlite or memory")
	dbPath := flagSet.String("session-db", "", "SQLite session database path")
	logLevel := flagSet.String("log-level", "", "log level: debug, info, warn, error")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", *envFile, err)
	}

	cfg := Default()
	path := *configPath
	if path == "" {
		path = os.Getenv("BILLED_CONFIG")
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if flagSet.Changed("api-base-url") {
		cfg.API.BaseURL = *baseURL
	}
	if flagSet.Changed("port") {
		cfg.Server.Port = *port
	}
	if flagSet.Changed("session-store") {
		cfg.Storage.Driver = *storageDriver
	}
	if flagSet.Changed("session-db") {
		cfg.Storage.Path = *dbPath
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
