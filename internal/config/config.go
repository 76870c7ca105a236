// Package config loads phasehours settings. Precedence, lowest first:
// defaults, the YAML file, .env, process environment, command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "phasehours.yaml"

type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	HTTP          HTTPConfig         `yaml:"http"`
	Logging       LoggingConfig      `yaml:"logging"`
	GrowthTeam    []string           `yaml:"growth_team"`
	Expiration    ExpirationConfig   `yaml:"expiration"`
	Notifications NotificationConfig `yaml:"notifications"`
}

type DatabaseConfig struct {
	Path        string        `yaml:"path"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

type ExpirationConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

type NotificationConfig struct {
	QueueSize    int  `yaml:"queue_size"`
	InboxEnabled bool `yaml:"inbox_enabled"`
}

func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "phasehours.db", BusyTimeout: 5 * time.Second},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Logging:       LoggingConfig{Level: "info", Format: "json"},
		Expiration:    ExpirationConfig{Enabled: true, Schedule: "@hourly"},
		Notifications: NotificationConfig{QueueSize: 256, InboxEnabled: true},
	}
}

// Load builds the configuration. A missing file at the default path is not
// an error; an explicitly named one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("PHASEHOURS_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}
	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}

	// .env never overrides variables already set in the process.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("PHASEHOURS_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("PHASEHOURS_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("PHASEHOURS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PHASEHOURS_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("PHASEHOURS_GROWTH_TEAM"); v != "" {
		c.GrowthTeam = splitList(v)
	}
	if v := os.Getenv("PHASEHOURS_EXPIRATION_SCHEDULE"); v != "" {
		c.Expiration.Schedule = v
	}
	if v := os.Getenv("PHASEHOURS_EXPIRATION_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PHASEHOURS_EXPIRATION_ENABLED: %w", err)
		}
		c.Expiration.Enabled = enabled
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Flags holds the command-line values that override loaded settings.
type Flags struct {
	ConfigPath string
	DBPath     string
	Addr       string
	Verbose    bool
}

// BindFlags registers the global flags on fs.
func (f *Flags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "path to phasehours.yaml (env PHASEHOURS_CONFIG)")
	fs.StringVar(&f.DBPath, "db", "", "SQLite database path (env PHASEHOURS_DB)")
	fs.BoolVarP(&f.Verbose, "verbose", "v", false, "enable debug logging")
}

// Apply copies every flag the user actually set onto c. fs is the executing
// command's flag set, so command-local flags such as --addr are seen too.
func (f *Flags) Apply(c *Config, fs *pflag.FlagSet) {
	if fs.Changed("db") {
		c.Database.Path = f.DBPath
	}
	if fs.Changed("addr") {
		c.HTTP.Addr = f.Addr
	}
	if f.Verbose {
		c.Logging.Level = "debug"
	}
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Database.BusyTimeout < 0 {
		errs = append(errs, errors.New("database.busy_timeout must not be negative"))
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level))
	}
	if f := strings.ToLower(c.Logging.Format); f != "json" && f != "console" {
		errs = append(errs, fmt.Errorf("logging.format %q must be json or console", c.Logging.Format))
	}
	if len(c.GrowthTeam) == 0 {
		errs = append(errs, errors.New("growth_team must list at least one user"))
	}
	if c.Expiration.Enabled {
		if _, err := cron.ParseStandard(c.Expiration.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("expiration.schedule %q: %w", c.Expiration.Schedule, err))
		}
	}
	if c.Notifications.QueueSize <= 0 {
		errs = append(errs, errors.New("notifications.queue_size must be positive"))
	}
	return errors.Join(errs...)
}
