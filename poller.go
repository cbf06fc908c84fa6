package evpoll

import (
	"sync/atomic"
)

// Poller is the speculative, epoll-backed readiness poller. It is not
// safe for concurrent use: the poll loop and every FdState mutation are
// expected to run from a single goroutine. A *Poller handle is passed
// around explicitly rather than kept as a package-level singleton,
// which is friendlier to testing.
type Poller struct {
	cfg     Config
	table   *fdTable
	kernel  KernelInterestSet
	clock   Clock
	logger  Logger
	metrics *Metrics

	runQueueNonEmpty    func() bool
	signalQueueNonEmpty func() bool
	maxDelayMs          int

	eventBuf []RawEvent
	wake     *wakeFd

	inPollLoop atomic.Bool
	preference atomic.Int32
}

// New builds an unselectable Poller from cfg and opts without touching
// the kernel. The FdState table, UpdateList, SpecList, and event buffer
// are allocated later by Init, keeping construction cheap and
// side-effect free.
func New(cfg Config, opts ...PollerOption) *Poller {
	o := resolvePollerOptions(opts)

	var m *Metrics
	if o.metricsEnabled {
		m = &Metrics{}
	}

	p := &Poller{
		cfg:                 cfg,
		clock:               o.clock,
		logger:              o.logger,
		metrics:             m,
		runQueueNonEmpty:    o.runQueueNonEmpty,
		signalQueueNonEmpty: o.signalQueueNonEmpty,
		maxDelayMs:          o.maxDelayMs,
	}
	// Unselectable until Init succeeds.
	p.preference.Store(0)
	return p
}

// InPollLoop reports whether Poll is currently in its dispatch phase
// (kernel-event dispatch and SpecList drive). It is a debugging/asserting signal only — callbacks
// must never invoke Poll recursively.
func (p *Poller) InPollLoop() bool { return p.inPollLoop.Load() }

// MaxPollEvents returns the configured kernel wait batch size.
func (p *Poller) MaxPollEvents() int { return p.cfg.MaxPollEvents }

// Preference returns the poller's current registry preference. It is 0
// until Init succeeds, and is reset to 0 by Term and by a failed Init
// or Fork, marking the poller unselectable.
func (p *Poller) Preference() int { return int(p.preference.Load()) }

// Metrics returns a snapshot of the poller's runtime counters. Safe to
// call at any time, including concurrently with Poll.
func (p *Poller) Metrics() MetricsSnapshot { return p.metrics.Snapshot() }

// Attach registers fd with callback cb.
func (p *Poller) Attach(fd int32, cb Callback) error {
	if p.table == nil {
		return ErrPollerClosed
	}
	return p.table.Attach(fd, cb)
}

// Detach is the close notification counterpart to Attach.
func (p *Poller) Detach(fd int32) error {
	if p.table == nil {
		return ErrPollerClosed
	}
	return p.table.Detach(fd)
}

// IsSet, SetActive, SetPolled, Clear, and Remove are the remaining
// FdState primitives.
func (p *Poller) IsSet(fd int32, dir Direction) Status  { return p.table.IsSet(fd, dir) }
func (p *Poller) SetActive(fd int32, dir Direction)     { p.table.SetActive(fd, dir) }
func (p *Poller) SetPolled(fd int32, dir Direction)     { p.table.SetPolled(fd, dir) }
func (p *Poller) Clear(fd int32, dir Direction)         { p.table.Clear(fd, dir) }
func (p *Poller) Remove(fd int32)                       { p.table.Remove(fd) }

// waitTimeMs computes how long the kernel wait should block, in
// milliseconds.
func (p *Poller) waitTimeMs(expiry int64) int {
	if p.table.spec.len() > 0 || p.runQueueNonEmpty() || p.signalQueueNonEmpty() {
		return 0
	}
	if expiry == 0 {
		return p.maxDelayMs
	}
	now := p.clock.NowMs()
	if p.clock.TickIsExpired(expiry, now) {
		return 0
	}
	remain := p.clock.TickRemainMs(expiry, now)
	w := int(remain) + 1
	if w > p.maxDelayMs {
		return p.maxDelayMs
	}
	return w
}

// Poll runs one tick of the poll loop: apply updates, compute the wait
// time, block in the kernel wait, dispatch returned events (driving
// the nested new-fd drain per event), then drive the SpecList for fds
// still carrying ACTIVE directions.
func (p *Poller) Poll(expiry int64) error {
	if p.table == nil {
		return ErrPollerClosed
	}
	p.table.drain(p.logger)

	waitMs := p.waitTimeMs(expiry)
	batch := len(p.eventBuf)
	if batch > p.cfg.MaxPollEvents {
		batch = p.cfg.MaxPollEvents
	}

	start := p.clock.NowMs()
	n, err := p.kernel.Wait(p.eventBuf[:batch], waitMs)
	idle := p.clock.NowMs() - start
	if err != nil {
		// Kernel wait failure: treated as a zero-event return, proceed
		// straight to SpecList drive.
		p.logger.Log(LogEntry{Level: LevelDebug, Category: "poll", Message: "kernel wait failed", Err: err})
		n = 0
	}
	p.metrics.recordTick(idle, n)

	p.inPollLoop.Store(true)
	defer p.inPollLoop.Store(false)

	for i := 0; i < n; i++ {
		p.dispatch(p.eventBuf[i])
	}

	p.specDrive()
	return nil
}

// dispatch handles one kernel-returned event: updates the fd's sticky
// event bits, marks the directions it implies ACTIVE, then invokes the
// owner's callback and drives any fd the callback newly created.
func (p *Poller) dispatch(raw RawEvent) {
	fd := raw.Fd
	if p.drainWake(fd) {
		return
	}
	rec := &p.table.records[fd]
	if !rec.owner {
		// fd was closed concurrently within this batch; skip silently.
		return
	}

	rec.ev = (rec.ev & EvSticky) | raw.Events

	if rec.callback == nil || rec.ev == 0 {
		return
	}

	if rec.ev&(EvIn|EvHup|EvErr) != 0 {
		p.table.SetActive(fd, Read)
	}
	if rec.ev&(EvOut|EvErr) != 0 {
		p.table.SetActive(fd, Write)
	}

	newUpdtStart := p.table.updates.len()
	rec.callback(fd, rec.ev)
	p.nestedDrain(newUpdtStart)
}

// nestedDrain drives fds created during the callback just invoked. It
// walks UpdateList backwards from its current tail down to
// newUpdtStart, driving every entry whose isNew flag is still set, and
// popping the trailing entry if it ends the tick fully IDLE.
func (p *Poller) nestedDrain(newUpdtStart int) {
	for idx := p.table.updates.len() - 1; idx >= newUpdtStart; idx-- {
		fd := p.table.updates.items[idx]
		rec := &p.table.records[fd]
		if !rec.isNew {
			continue
		}
		rec.isNew = false
		rec.ev &= EvSticky

		if rec.state.CurrentDir(Read) == StatusActive {
			rec.ev |= EvIn
		}
		if rec.state.CurrentDir(Write) == StatusActive {
			rec.ev |= EvOut
		}

		if rec.ev != 0 && rec.callback != nil {
			rec.callback(fd, rec.ev)
		}

		if rec.state.current() == 0 {
			p.table.updates.popTrailing(idx, rec)
		}
	}
}

// specDrive iterates SpecList in increasing index order, invoking
// every fd whose status is exactly ACTIVE in some direction. Unlike
// dispatch's SetActive calls (whose SpecList membership changes are
// deferred to the next tick's drain), an fd's own departure from
// SpecList during its own specDrive turn is applied immediately here:
// it is already being iterated, so there is nothing to defer. New
// activations triggered by a specDrive callback still wait for the
// next drain, same as everywhere else.
func (p *Poller) specDrive() {
	idx := 0
	for idx < p.table.spec.len() {
		fd := p.table.spec.items[idx]
		rec := &p.table.records[fd]

		rec.ev &= EvSticky
		if rec.state.CurrentDir(Read) == StatusActive {
			rec.ev |= EvIn
		}
		if rec.state.CurrentDir(Write) == StatusActive {
			rec.ev |= EvOut
		}

		if rec.ev != 0 && rec.callback != nil {
			p.metrics.recordSpecDrive()
			rec.callback(fd, rec.ev)
		}

		if rec.state.current()&activeMask == 0 && rec.specIndex >= 0 {
			p.table.spec.release(fd, rec, p.table.records)
		}

		// Index advancement rule: if the slot at idx no longer holds
		// fd, a swap-filled successor must be examined without
		// advancing.
		if idx < p.table.spec.len() && p.table.spec.items[idx] == fd {
			idx++
		}
	}
}
