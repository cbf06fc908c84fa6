package evpoll

import "sync"

// maxRegisteredPollers bounds the plug-in table. No concrete limit is
// mandated; a handful of backends (epoll, kqueue, a portable select/poll
// fallback, a test double) is the most any single process plausibly
// registers.
const maxRegisteredPollers = 8

// PollerFactory is one entry in the Registry: a named poller backend,
// its self-reported preference, and the two functions a registry user
// needs to pick and build it.
type PollerFactory struct {
	Name       string
	Preference int
	// Test probes whether this backend can run at all on the current
	// platform/kernel, without allocating any poller state.
	Test func() error
	// Init builds and initializes a ready-to-use Poller for cfg.
	Init func(cfg Config, opts ...PollerOption) (*Poller, error)
}

// Registry is the pack-wide plug-in table callers select a poller
// backend from: a mutex-guarded table, mutated from outside the poll
// loop, of named backends ranked by self-reported preference.
type Registry struct {
	mu      sync.Mutex
	entries []PollerFactory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make([]PollerFactory, 0, maxRegisteredPollers)}
}

// Register adds f to the table. A full registry is not a hard error at
// the call site — the registration is silently droppable by the caller
// so that a process built with one more backend than
// maxRegisteredPollers still starts, just without that backend
// available. Callers that want to detect the condition can check the
// returned error, which is ErrRegistryFull in that case.
func (r *Registry) Register(f PollerFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) >= maxRegisteredPollers {
		return ErrRegistryFull
	}
	r.entries = append(r.entries, f)
	return nil
}

// Best returns the highest-preference factory whose Test call
// succeeds, or false if none do. Ties are broken by registration
// order (first registered wins).
func (r *Registry) Best() (PollerFactory, bool) {
	r.mu.Lock()
	entries := append([]PollerFactory(nil), r.entries...)
	r.mu.Unlock()

	var (
		best     PollerFactory
		found    bool
		bestPref = -1
	)
	for _, f := range entries {
		if f.Preference <= bestPref {
			continue
		}
		if f.Test != nil {
			if err := f.Test(); err != nil {
				continue
			}
		}
		best, bestPref, found = f, f.Preference, true
	}
	return best, found
}

// Factories returns a snapshot of every registered factory, in
// registration order.
func (r *Registry) Factories() []PollerFactory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PollerFactory(nil), r.entries...)
}

// DefaultRegistry is the process-wide Registry that the epoll backend
// registers itself with at package init.
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Register(PollerFactory{
		Name:       "epoll",
		Preference: defaultPreference,
		Test: func() error {
			p := &Poller{}
			return p.Test()
		},
		Init: func(cfg Config, opts ...PollerOption) (*Poller, error) {
			p := New(cfg, opts...)
			if err := p.Init(); err != nil {
				return nil, err
			}
			return p, nil
		},
	})
}
