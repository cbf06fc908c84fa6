package evpoll

import "fmt"

// defaultPreference is the registry preference the epoll poller
// registers itself with, chosen so a select(2)-style fallback
// registered at a lower preference is only picked when epoll's own
// Test fails.
const defaultPreference = 400

// Init brings up the kernel side of the poller: it creates the
// KernelInterestSet, allocates the FdState table and event buffer, and
// only then makes the poller selectable. Init is expected to run once,
// before the first Poll call; calling it twice on an
// already-initialized Poller returns ErrPollerUnselectable rather than
// leaking the old kernel object.
func (p *Poller) Init() error {
	if p.table != nil {
		return ErrPollerUnselectable
	}

	kernel, err := newEpollInterestSet()
	if err != nil {
		p.preference.Store(0)
		return fmt.Errorf("%w: %w", ErrPollerUnselectable, err)
	}

	p.kernel = kernel
	p.table = newFdTable(p.cfg.MaxSock, kernel)

	// Event buffer sized max(maxpollevents, maxsock): a single tick can
	// in principle return as many events as there are fds, independent
	// of the maxpollevents batch-size knob.
	bufSize := p.cfg.MaxPollEvents
	if p.cfg.MaxSock > bufSize {
		bufSize = p.cfg.MaxSock
	}
	p.eventBuf = make([]RawEvent, bufSize)

	p.preference.Store(defaultPreference)
	return nil
}

// Term tears down the kernel object and releases the FdState table,
// resetting the poller to its pre-Init zero state. A poller that fails
// Term is left unselectable; callers are expected to discard it rather
// than retry.
func (p *Poller) Term() error {
	if p.table == nil {
		return nil
	}
	if p.wake != nil {
		_ = p.wake.close()
		p.wake = nil
	}
	err := p.kernel.Close()
	p.kernel = nil
	p.table = nil
	p.eventBuf = nil
	p.preference.Store(0)
	return err
}

// Test performs a throwaway capability probe: it creates and
// immediately closes a kernel interest set, without touching this
// Poller's own state. Registries use this to decide whether a poller
// backend is usable on the current platform before Init is ever
// called; init-time failures are reported through an error return,
// never a panic.
func (p *Poller) Test() error {
	k, err := newEpollInterestSet()
	if err != nil {
		return err
	}
	return k.Close()
}

// Fork recreates the kernel interest set in place, for the benefit of
// a process that re-exec'd after a raw fork and wants a fresh epoll
// instance rather than whatever got inherited across the fork. FdState,
// UpdateList, and SpecList are untouched; the kernel object is
// replaced, and every currently-POLLED fd (plus the wake fd, if
// EnableWake was called) is re-added to it before Fork returns, since such an fd's state nibbles won't change and so
// would never reach drain's ADD/MOD/DEL branch on their own.
func (p *Poller) Fork() error {
	if p.table == nil {
		return ErrPollerUnselectable
	}
	if err := p.kernel.Close(); err != nil {
		return err
	}
	kernel, err := newEpollInterestSet()
	if err != nil {
		p.preference.Store(0)
		return err
	}
	p.kernel = kernel
	p.table.kernel = kernel

	for fd := range p.table.records {
		rec := &p.table.records[fd]
		if !rec.owner {
			continue
		}
		polled := rec.state.current() & polledMask
		if polled == 0 {
			continue
		}
		if err := kernel.Add(int32(fd), pollMaskToEvents(polled)); err != nil {
			p.logger.Log(LogEntry{Level: LevelDebug, Category: "lifecycle", Message: "fork re-add failed", Err: err})
		}
	}
	if p.wake != nil {
		if err := kernel.Add(p.wake.fd, EvIn); err != nil {
			p.logger.Log(LogEntry{Level: LevelDebug, Category: "lifecycle", Message: "fork wake re-add failed", Err: err})
		}
	}
	return nil
}
