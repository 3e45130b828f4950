package bgzf

import (
	"runtime"

	"github.com/klauspost/compress/flate"
)

// Options is the effective, fully-defaulted configuration of a Stream, as
// returned by Stream.Options. It mirrors the four knobs a Stream accepts:
// worker count, compression level, memory level, strategy.
type Options struct {
	Workers          int
	CompressionLevel int

	// MemLevel and Strategy are accepted for compatibility with the
	// configuration surface this package exposes, but
	// github.com/klauspost/compress/flate — like the standard library's
	// compress/flate — does not expose zlib's memLevel/strategy knobs.
	// They are recorded and readable back via Stream.Options but do not
	// currently change codec behavior; see SPEC_FULL.md §4.H.
	MemLevel int
	Strategy int
}

// Option configures a Stream at construction time.
type Option func(*Options)

// WithWorkers sets the read-pipeline parallelism P. Values below 1 are
// ignored, leaving the default in place; P is never resized after Open.
func WithWorkers(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Workers = n
		}
	}
}

// WithCompressionLevel sets the deflate compression level used by the
// write pipeline.
func WithCompressionLevel(level int) Option {
	return func(o *Options) { o.CompressionLevel = level }
}

// WithMemLevel records a memory-level hint; see the Options.MemLevel
// doc comment for why it is currently inert.
func WithMemLevel(level int) Option {
	return func(o *Options) { o.MemLevel = level }
}

// WithStrategy records a compression-strategy hint; see the
// Options.Strategy doc comment for why it is currently inert.
func WithStrategy(strategy int) Option {
	return func(o *Options) { o.Strategy = strategy }
}

func defaultOptions() Options {
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	return Options{
		Workers:          workers,
		CompressionLevel: flate.DefaultCompression,
		MemLevel:         8,
		Strategy:         0,
	}
}

func resolveOptions(opts []Option) Options {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
