package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teemow/outlookctl/internal/availability"
	"github.com/teemow/outlookctl/internal/logging"
)

// EnvPrefix prefixes environment overrides, e.g. OUTLOOKCTL_FIXTURE_PATH.
const EnvPrefix = "OUTLOOKCTL"

// Backend names.
const (
	BackendOLE     = "ole"
	BackendFixture = "fixture"
)

// Output formats.
const (
	OutputJSON = "json"
	OutputText = "text"
)

// FixtureConfig configures the file backed mailbox.
type FixtureConfig struct {
	Path           string `mapstructure:"path"`
	Writeback      bool   `mapstructure:"writeback"`
	MaxOpenHandles int    `mapstructure:"max_open_handles"`
}

// AvailabilityConfig configures free/busy queries and slot search.
type AvailabilityConfig struct {
	IntervalMinutes int `mapstructure:"interval_minutes"`
	DayStartHour    int `mapstructure:"day_start_hour"`
	DayEndHour      int `mapstructure:"day_end_hour"`
}

// LogConfig configures the default logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the complete configuration.
type Config struct {
	Backend      string             `mapstructure:"backend"`
	Fixture      FixtureConfig      `mapstructure:"fixture"`
	Availability AvailabilityConfig `mapstructure:"availability"`
	Log          LogConfig          `mapstructure:"log"`
	Output       string             `mapstructure:"output"`

	// File is the configuration file that was read, if any.
	File string `mapstructure:"-"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"backend":    "backend",
	"fixture":    "fixture.path",
	"writeback":  "fixture.writeback",
	"output":     "output",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// DefaultBackend returns the backend used when none is configured.
func DefaultBackend() string {
	if runtime.GOOS == "windows" {
		return BackendOLE
	}
	return BackendFixture
}

// DefaultPath returns the default configuration file,
// $XDG_CONFIG_HOME/outlookctl/config.yaml on Linux.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "outlookctl", "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend", DefaultBackend())
	v.SetDefault("fixture.path", "")
	v.SetDefault("fixture.writeback", false)
	v.SetDefault("fixture.max_open_handles", 256)
	v.SetDefault("availability.interval_minutes", 30)
	v.SetDefault("availability.day_start_hour", availability.DefaultBusinessHours.StartHour)
	v.SetDefault("availability.day_end_hour", availability.DefaultBusinessHours.EndHour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatText)
	v.SetDefault("output", OutputJSON)
}

// Load reads the configuration from defaults, the YAML file at path,
// OUTLOOKCTL_* environment variables and flags, in increasing order of
// precedence. An empty path reads DefaultPath if it exists. An
// explicitly named file must exist. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	var file string
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		err := v.ReadInConfig()
		var notFound viper.ConfigFileNotFoundError
		switch {
		case err == nil:
			file = path
		case !explicit && (errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)):
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.File = file
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Output = strings.ToLower(strings.TrimSpace(cfg.Output))
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendOLE:
	case BackendFixture:
		if c.Fixture.Path == "" {
			return errors.New("fixture.path is required for the fixture backend")
		}
		if c.Fixture.MaxOpenHandles < 0 {
			return fmt.Errorf("fixture.max_open_handles must not be negative, got %d", c.Fixture.MaxOpenHandles)
		}
	default:
		return fmt.Errorf("unknown backend %q (expected %s or %s)", c.Backend, BackendOLE, BackendFixture)
	}
	if c.Availability.IntervalMinutes <= 0 {
		return fmt.Errorf("%w: availability.interval_minutes must be positive, got %d",
			availability.ErrInvalidDuration, c.Availability.IntervalMinutes)
	}
	if err := c.Hours().Validate(); err != nil {
		return err
	}
	switch c.Output {
	case OutputJSON, OutputText:
	default:
		return fmt.Errorf("unknown output format %q (expected %s or %s)", c.Output, OutputJSON, OutputText)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q (expected %s or %s)", c.Log.Format, logging.FormatText, logging.FormatJSON)
	}
	return nil
}

// Interval returns the free/busy granularity.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Availability.IntervalMinutes) * time.Minute
}

// Hours returns the business hours used by slot search.
func (c *Config) Hours() availability.BusinessHours {
	return availability.BusinessHours{
		StartHour: c.Availability.DayStartHour,
		EndHour:   c.Availability.DayEndHour,
	}
}
