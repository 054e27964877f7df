package fskit

import (
	"fmt"

	"github.com/gobeaver/beaver-kit/config"
)

// There is no package-level instance. Construct a Filesystem once at
// program start and pass it to the code that needs it.

// Builder provides a way to create Filesystem instances with custom prefixes
type Builder struct {
	prefix string
	opts   []Option
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// WithOptions appends provider options applied after the config-derived ones.
func (b *Builder) WithOptions(opts ...Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// Config loads the configuration under the builder's prefix.
func (b *Builder) Config() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// New creates a new Filesystem instance using the builder's prefix
func (b *Builder) New() (Filesystem, error) {
	cfg, err := b.Config()
	if err != nil {
		return nil, err
	}
	return New(cfg, b.opts...)
}

// New creates a Filesystem from cfg through the driver registry. opts are
// applied after the ones derived from cfg, so they take precedence.
func New(cfg *Config, opts ...Option) (Filesystem, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	all := append(cfg.Options(NewLogger(cfg)), opts...)
	fsys, err := CreateDriver(cfg, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	if cfg.ReadOnly {
		fsys = NewReadOnlyFileSystem(fsys)
	}

	return fsys, nil
}

// NewFromEnv creates instance from environment variables (convenience constructor)
func NewFromEnv(opts ...Option) (Filesystem, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}
