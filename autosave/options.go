package autosave

import (
	"log/slog"
	"time"
)

const (
	// DefaultQuietPeriod is how long the buffer must stay untouched before it is saved.
	DefaultQuietPeriod = 1000 * time.Millisecond

	defaultSaveTimeout = 10 * time.Second
	defaultLoadTimeout = 10 * time.Second
)

type options struct {
	clock       Clock
	quietPeriod time.Duration
	saveTimeout time.Duration
	loadTimeout time.Duration
	retry       bool
	logger      *slog.Logger
	onChange    func(Event, Snapshot)
}

// Option configures a Synchronizer.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		clock:       realClock{},
		quietPeriod: DefaultQuietPeriod,
		saveTimeout: defaultSaveTimeout,
		loadTimeout: defaultLoadTimeout,
		retry:       true,
	}
}

// WithClock replaces the wall clock used for the flush timer.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithQuietPeriod sets the debounce window. Non-positive values keep the default.
func WithQuietPeriod(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.quietPeriod = d
		}
	}
}

// WithSaveTimeout bounds each individual save call.
func WithSaveTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.saveTimeout = d
		}
	}
}

// WithLoadTimeout bounds each individual load call.
func WithLoadTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.loadTimeout = d
		}
	}
}

// WithRetryOnFailure controls whether a failed save marks the buffer dirty
// again. Enabled by default.
func WithRetryOnFailure(retry bool) Option {
	return func(o *options) {
		o.retry = retry
	}
}

// WithLogger sets the logger for the synchronizer.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithOnChange registers a callback invoked after every state transition
// with the state at delivery time. Calls are serialized but may come from the
// timer, loader and writer goroutines. fn must not call back into the
// Synchronizer.
func WithOnChange(fn func(Event, Snapshot)) Option {
	return func(o *options) {
		o.onChange = fn
	}
}
