package combustion

import (
	"log/slog"

	"github.com/meigma/combustion/cachefile"
)

// config holds conversion settings.
type config struct {
	logger     *slog.Logger
	engine     cachefile.Engine
	progress   ProgressFunc
	skipImport bool
}

func newConfig(opts []Option) *config {
	cfg := &config{engine: cachefile.EngineCustomEdition}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *config) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

func (c *config) report(ev ProgressEvent) {
	if c.progress != nil {
		c.progress(ev)
	}
}

// Option configures a conversion.
type Option func(*config)

// WithLogger sets a logger. Per-tag decisions are logged at Debug and a
// summary at Info. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithTargetEngine sets the engine marker written to the converted map.
// The default is [cachefile.EngineCustomEdition].
func WithTargetEngine(e cachefile.Engine) Option {
	return func(c *config) {
		c.engine = e
	}
}

// WithProgress sets a callback invoked as conversion advances through its
// stages and once per tag during resolution.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithSkipImport disables merging of the auxiliary map even when one is
// supplied.
func WithSkipImport(skip bool) Option {
	return func(c *config) {
		c.skipImport = skip
	}
}
