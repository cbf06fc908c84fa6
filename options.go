package evpoll

// Config holds the two values read at init: maxsock (hard cap on
// concurrent fds) and maxpollevents (kernel wait batch size). Both
// must be positive.
type Config struct {
	MaxSock       int
	MaxPollEvents int
}

// pollerOptions holds the remaining configuration, applied via
// functional options.
type pollerOptions struct {
	logger              Logger
	metricsEnabled      bool
	runQueueNonEmpty    func() bool
	signalQueueNonEmpty func() bool
	clock               Clock
	maxDelayMs          int
}

// DefaultMaxDelayMs is the wait-time ceiling used when no expiry is
// given and nothing else is pending.
const DefaultMaxDelayMs = 1000

// WithMaxDelayMs overrides DefaultMaxDelayMs.
func WithMaxDelayMs(ms int) PollerOption {
	return pollerOptionFunc(func(o *pollerOptions) { o.maxDelayMs = ms })
}

// PollerOption configures a Poller at construction time.
type PollerOption interface {
	apply(*pollerOptions)
}

type pollerOptionFunc func(*pollerOptions)

func (f pollerOptionFunc) apply(o *pollerOptions) { f(o) }

// WithLogger sets the Logger used for recoverable-error reporting.
// Defaults to NoOpLogger.
func WithLogger(l Logger) PollerOption {
	return pollerOptionFunc(func(o *pollerOptions) { o.logger = l })
}

// WithMetrics enables Metrics collection on the Poller, retrievable via
// Poller.Metrics().
func WithMetrics(enabled bool) PollerOption {
	return pollerOptionFunc(func(o *pollerOptions) { o.metricsEnabled = enabled })
}

// WithRunQueueProbe supplies the "task scheduler has runnable work"
// flag folded into the wait-time computation. Defaults to a probe that
// always reports empty.
func WithRunQueueProbe(probe func() bool) PollerOption {
	return pollerOptionFunc(func(o *pollerOptions) { o.runQueueNonEmpty = probe })
}

// WithSignalQueueProbe supplies the "signal queue... non-empty" flag,
// analogous to WithRunQueueProbe.
func WithSignalQueueProbe(probe func() bool) PollerOption {
	return pollerOptionFunc(func(o *pollerOptions) { o.signalQueueNonEmpty = probe })
}

// WithClock overrides the Clock used for wait-time computation and
// idle-time metrics. Intended for deterministic tests.
func WithClock(c Clock) PollerOption {
	return pollerOptionFunc(func(o *pollerOptions) { o.clock = c })
}

func resolvePollerOptions(opts []PollerOption) *pollerOptions {
	o := &pollerOptions{
		logger:              NoOpLogger{},
		runQueueNonEmpty:    func() bool { return false },
		signalQueueNonEmpty: func() bool { return false },
		clock:               newRealClock(),
		maxDelayMs:          DefaultMaxDelayMs,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(o)
	}
	return o
}
