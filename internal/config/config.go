// Package config loads ustreamerd's settings from the environment (and
// an optional .env file), the way BrunoKrugel-snapshot2stream's config
// package does, then normalises and validates them the way the
// teacher's cmd/driver/config.Config.Check does.
package config

import (
	"errors"
	"strconv"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Config holds every knob ustreamerd needs. Fields are populated from
// environment variables (USTREAMERD_ prefix) with sane defaults, then
// normalised by Check.
type Config struct {
	Host string `env:"USTREAMERD_HOST" envDefault:"localhost"`
	Port int    `env:"USTREAMERD_PORT" envDefault:"8080"`

	ReadTimeoutSeconds  int `env:"USTREAMERD_READ_TIMEOUT_SECONDS" envDefault:"10"`
	WriteTimeoutSeconds int `env:"USTREAMERD_WRITE_TIMEOUT_SECONDS" envDefault:"0"`

	// RefreshIntervalMicros mirrors spec.md §6's microsecond unit for the
	// refresh scheduler's tick interval.
	RefreshIntervalMicros int `env:"USTREAMERD_REFRESH_INTERVAL_MICROS" envDefault:"30000"`

	ConfigFile string `env:"USTREAMERD_CONFIG_FILE" envDefault:""`
	LogFile    string `env:"USTREAMERD_LOG_FILE" envDefault:""`
	Debug      bool   `env:"USTREAMERD_DEBUG" envDefault:"false"`

	// Demo, when set, runs the bundled synthetic frame producer instead
	// of waiting for an external one (see internal/demo).
	Demo bool `env:"USTREAMERD_DEMO" envDefault:"false"`

	// FrameDir, when set, runs internal/dirsource instead: every JPEG
	// dropped into this folder is republished as the current frame.
	FrameDir    string `env:"USTREAMERD_FRAME_DIR" envDefault:""`
	FrameWidth  int    `env:"USTREAMERD_FRAME_WIDTH" envDefault:"0"`
	FrameHeight int    `env:"USTREAMERD_FRAME_HEIGHT" envDefault:"0"`
}

// Load first loads envFile into the environment when envFile is
// non-empty (a missing or unreadable file is returned as an error;
// variables already set in the environment are not overridden), then
// parses the environment into a Config and runs Check.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, err
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Check()
	return cfg, nil
}

// Check normalises fields and fills in defaults a bare struct literal
// would otherwise leave at the zero value.
func (c *Config) Check() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port < 1 || c.Port > 65535 {
		c.Port = 8080
	}
	if c.ReadTimeoutSeconds < 1 {
		c.ReadTimeoutSeconds = 10
	}
	if c.RefreshIntervalMicros < 1000 {
		c.RefreshIntervalMicros = 30000
	}
}

// RefreshInterval converts RefreshIntervalMicros to a time.Duration for
// the hub's ticker.
func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMicros) * time.Microsecond
}

// ReadTimeout converts ReadTimeoutSeconds to a time.Duration.
func (c Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// ErrNoListenAddress is returned when Host and Port combine into an
// unusable listen address.
var ErrNoListenAddress = errors.New("config: empty listen address")

// Addr returns the host:port pair net/http.Server listens on.
func (c Config) Addr() (string, error) {
	if c.Port == 0 {
		return "", ErrNoListenAddress
	}
	return c.Host + ":" + strconv.Itoa(c.Port), nil
}
