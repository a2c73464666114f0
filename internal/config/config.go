// Package config loads process configuration for the modlist-cleaner
// command from MODLIST_CLEANER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/fileops"
	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/record"
)

// Config is the command configuration. Flags override these values.
type Config struct {
	Profile string `env:"MODLIST_CLEANER_PROFILE" envDefault:"kcd2"`
	Root    string `env:"MODLIST_CLEANER_ROOT"`

	// Layout overrides the profile's layout when set.
	Layout    string `env:"MODLIST_CLEANER_LAYOUT"`
	Extension string `env:"MODLIST_CLEANER_EXTENSION" envDefault:".whs"`

	Settle        time.Duration `env:"MODLIST_CLEANER_SETTLE" envDefault:"1s"`
	PollInterval  time.Duration `env:"MODLIST_CLEANER_POLL_INTERVAL" envDefault:"200ms"`
	StableTimeout time.Duration `env:"MODLIST_CLEANER_STABLE_TIMEOUT" envDefault:"5s"`
	Workers       int           `env:"MODLIST_CLEANER_WORKERS" envDefault:"2"`
	QueueSize     int           `env:"MODLIST_CLEANER_QUEUE_SIZE" envDefault:"64"`
	MaxSize       uint64        `env:"MODLIST_CLEANER_MAX_SIZE"`

	BackupDir    string `env:"MODLIST_CLEANER_BACKUP_DIR"`
	DryRun       bool   `env:"MODLIST_CLEANER_DRY_RUN"`
	InPlace      bool   `env:"MODLIST_CLEANER_IN_PLACE"`
	CleanOnStart bool   `env:"MODLIST_CLEANER_CLEAN_ON_START"`
	SweepOnEvent bool   `env:"MODLIST_CLEANER_SWEEP_ON_EVENT"`
	Paused       bool   `env:"MODLIST_CLEANER_PAUSED"`

	LogFile     string     `env:"MODLIST_CLEANER_LOG_FILE"`
	LogLevel    slog.Level `env:"MODLIST_CLEANER_LOG_LEVEL" envDefault:"info"`
	MetricsAddr string     `env:"MODLIST_CLEANER_METRICS_ADDR"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = fileops.DefaultMaxSize
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if _, err := LookupProfile(c.Profile); err != nil {
		return err
	}
	if _, err := record.ParseLayout(c.Layout); err != nil {
		return err
	}
	if c.Extension == "" {
		return errors.New("extension is empty")
	}
	if c.Settle <= 0 || c.PollInterval <= 0 || c.StableTimeout <= 0 {
		return errors.New("settle, poll interval and stable timeout must be positive")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue size must be >= 1, got %d", c.QueueSize)
	}
	return nil
}

// ResolveProfile returns the selected profile.
func (c *Config) ResolveProfile() (Profile, error) {
	return LookupProfile(c.Profile)
}

// ResolveLayout returns the explicit layout, or the profile's when unset.
func (c *Config) ResolveLayout() (record.Layout, error) {
	if c.Layout != "" {
		return record.ParseLayout(c.Layout)
	}
	p, err := c.ResolveProfile()
	if err != nil {
		return record.LayoutAuto, err
	}
	return p.Layout, nil
}

// ResolveRoot returns the explicit root, or the profile's default below the
// user's home directory.
func (c *Config) ResolveRoot() (string, error) {
	if c.Root != "" {
		return c.Root, nil
	}
	p, err := c.ResolveProfile()
	if err != nil {
		return "", err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve save root: %w", err)
	}
	return p.DefaultRoot(home), nil
}
