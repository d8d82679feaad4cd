package pack

import (
	"log/slog"

	"github.com/Frodo45127/rpfm-sub014/compression"
	"github.com/Frodo45127/rpfm-sub014/encryption"
	"github.com/Frodo45127/rpfm-sub014/games"
)

// DefaultMaxFileSize is the default limit for files inserted from disk (4GB,
// the largest payload a pack can index).
const DefaultMaxFileSize = 1<<32 - 1

// Option configures a Pack.
type Option func(*config)

type config struct {
	logger         *slog.Logger
	keys           encryption.KeySet
	lzma           compression.LZMAEncoder
	compression    compression.Scheme
	compressionSet bool
	deterministic  bool
	nullifyDates   bool
	eager          bool
	workers        int
	maxFileSize    uint64
	game           *games.Info
}

func newConfig(opts []Option) config {
	cfg := config{
		keys:        encryption.Default,
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// withConfig replaces the whole configuration. decode uses it to hand the
// caller's options to the pack it builds.
func withConfig(cfg config) Option {
	return func(c *config) {
		*c = cfg
	}
}

// WithLogger sets the logger for pack operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithKeys sets the cipher constants used for encrypted indexes and payloads
// (default: encryption.Default).
func WithKeys(keys encryption.KeySet) Option {
	return func(c *config) {
		c.keys = keys
	}
}

// WithLZMAEncoder sets the encoder used when saving LZMA-compressed files
// (default: the external 7z archiver).
func WithLZMAEncoder(enc compression.LZMAEncoder) Option {
	return func(c *config) {
		c.lzma = enc
	}
}

// WithCompression sets the scheme used for compressible files on save,
// regardless of what a decoded pack used. compression.None disables
// compression.
func WithCompression(s compression.Scheme) Option {
	return func(c *config) {
		c.compression = s
		c.compressionSet = true
	}
}

// WithDeterministic keeps the container timestamp as decoded instead of
// refreshing it on save, and skips writing the reserved notes and settings
// files unless the pack had them or they were edited. Encoding an unmodified
// pack then reproduces its input.
func WithDeterministic(enabled bool) Option {
	return func(c *config) {
		c.deterministic = enabled
	}
}

// WithNullifyDates writes zero for the container timestamp and every
// per-file timestamp.
func WithNullifyDates(enabled bool) Option {
	return func(c *config) {
		c.nullifyDates = enabled
	}
}

// WithEagerLoad reads every file into memory while opening instead of on
// first use.
func WithEagerLoad(enabled bool) Option {
	return func(c *config) {
		c.eager = enabled
	}
}

// WithWorkers limits how many files are compressed and encrypted in
// parallel while saving. Values < 1 use GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithMaxFileSize limits the size of files inserted from disk.
// Set limit to 0 to disable the limit.
func WithMaxFileSize(limit uint64) Option {
	return func(c *config) {
		c.maxFileSize = limit
	}
}

// WithGame applies a game's key set and compression support. New packs
// also take the game's mod pack version.
func WithGame(info games.Info) Option {
	return func(c *config) {
		c.game = &info
		c.keys = info.Keys()
	}
}

func (c *config) compressionOpts() []compression.Option {
	if c.lzma == nil {
		return nil
	}
	return []compression.Option{compression.WithLZMAEncoder(c.lzma)}
}
