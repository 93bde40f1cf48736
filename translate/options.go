package translate

import (
	"runtime"

	"github.com/rs/zerolog"
)

const (
	// DefaultMaxStackDepth bounds the emulated operand stack of a method.
	DefaultMaxStackDepth = 1024

	// DefaultMaxOffsetVisits bounds how many times a join point may be
	// reached before translation of the method is abandoned.
	DefaultMaxOffsetVisits = 256
)

// UnfinishedRecorder receives the methods whose translation was abandoned.
// *diag.Recorder implements it.
type UnfinishedRecorder interface {
	RecordUnfinishedMethod(name string, remaining int)
}

// Option is a configuration function for method and module translation.
type Option func(*config)

type config struct {
	logger          zerolog.Logger
	observer        Observer
	recorder        UnfinishedRecorder
	parallelism     int
	maxStackDepth   int
	maxOffsetVisits int
}

func newConfig(opts []Option) *config {
	cfg := &config{
		logger:          zerolog.Nop(),
		observer:        NoOpObserver{},
		parallelism:     runtime.GOMAXPROCS(0),
		maxStackDepth:   DefaultMaxStackDepth,
		maxOffsetVisits: DefaultMaxOffsetVisits,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLogger sets the logger that receives node creation, handler entry and
// unfinished method events. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithObserver sets an observer for translation events.
//
// Observer methods are called synchronously from the goroutine translating
// the method. When a module is translated in parallel the observer must be
// safe for concurrent use.
func WithObserver(observer Observer) Option {
	return func(cfg *config) {
		if observer == nil {
			observer = NoOpObserver{}
		}
		cfg.observer = observer
	}
}

// WithRecorder sets where abandoned methods are recorded.
func WithRecorder(recorder UnfinishedRecorder) Option {
	return func(cfg *config) {
		cfg.recorder = recorder
	}
}

// WithParallelism sets how many methods TranslateModule translates at once.
// Values below one are treated as one.
func WithParallelism(n int) Option {
	return func(cfg *config) {
		if n < 1 {
			n = 1
		}
		cfg.parallelism = n
	}
}

// WithMaxStackDepth bounds the emulated operand stack.
func WithMaxStackDepth(depth int) Option {
	return func(cfg *config) {
		cfg.maxStackDepth = depth
	}
}

// WithMaxOffsetVisits bounds how often a single offset may be reached.
func WithMaxOffsetVisits(visits int) Option {
	return func(cfg *config) {
		cfg.maxOffsetVisits = visits
	}
}
