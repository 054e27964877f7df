package fskit

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gobeaver/beaver-kit/config"
)

type Config struct {
	// Driver selects the provider (local, memory)
	Driver string `env:"FSKIT_DRIVER,default:local"`

	// Lock behavior
	LockTimeoutMS      int `env:"FSKIT_LOCK_TIMEOUT_MS,default:1500"`
	LockPollIntervalMS int `env:"FSKIT_LOCK_POLL_INTERVAL_MS,default:10"`

	// RenameOrCopy fallback
	TempSuffix   string `env:"FSKIT_TEMP_SUFFIX,default:.tmp"`
	VerifyCopies bool   `env:"FSKIT_VERIFY_COPIES,default:true"`

	// ReadOnly wraps the provider in NewReadOnlyFileSystem
	ReadOnly bool `env:"FSKIT_READ_ONLY,default:false"`

	// Logging
	LogLevel  string `env:"FSKIT_LOG_LEVEL,default:info"`
	LogFormat string `env:"FSKIT_LOG_FORMAT,default:text"` // text or json
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg describes a usable provider.
func (c *Config) Validate() error {
	if c.Driver == "" {
		return fmt.Errorf("%w: driver is required", ErrInvalidArgument)
	}
	if c.LockTimeoutMS < 0 {
		return fmt.Errorf("%w: lock timeout must not be negative", ErrInvalidArgument)
	}
	if c.LockPollIntervalMS < 0 {
		return fmt.Errorf("%w: lock poll interval must not be negative", ErrInvalidArgument)
	}
	if HasInvalidChars(c.TempSuffix) {
		return fmt.Errorf("%w: temp suffix %q contains invalid characters", ErrInvalidArgument, c.TempSuffix)
	}
	return nil
}

// Options converts cfg into provider options, using logger for output.
func (c *Config) Options(logger *slog.Logger) []Option {
	return []Option{
		WithLogger(logger),
		WithLockTimeout(time.Duration(c.LockTimeoutMS) * time.Millisecond),
		WithLockPollInterval(time.Duration(c.LockPollIntervalMS) * time.Millisecond),
		WithVerifyCopies(c.VerifyCopies),
	}
}
