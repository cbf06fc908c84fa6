//go:build linux

package evpoll

import (
	"golang.org/x/sys/unix"
)

// wakeFd is an eventfd registered into the epoll interest set so an
// external goroutine can force Poll's kernel wait to return early. A
// single eventfd does the job of a read/write pipe pair, since it is
// already bidirectional.
type wakeFd struct {
	fd int32
}

func newWakeFd() (*wakeFd, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &wakeFd{fd: int32(fd)}, nil
}

func (w *wakeFd) signal() error {
	var buf [8]byte
	buf[7] = 1
	_, err := unix.Write(int(w.fd), buf[:])
	return err
}

func (w *wakeFd) drain() {
	var buf [8]byte
	for {
		if _, err := unix.Read(int(w.fd), buf[:]); err != nil {
			return
		}
	}
}

func (w *wakeFd) close() error {
	return unix.Close(int(w.fd))
}

// EnableWake registers a wake fd with the poller's kernel interest
// set, letting Wake() be called safely from any goroutine once this
// returns. It is a no-op, returning nil, if already enabled.
func (p *Poller) EnableWake() error {
	if p.wake != nil {
		return nil
	}
	w, err := newWakeFd()
	if err != nil {
		return err
	}
	if err := p.kernel.Add(w.fd, EvIn); err != nil {
		_ = w.close()
		return err
	}
	p.wake = w
	return nil
}

// Wake forces a blocked (or about-to-block) Poll call to return
// early, without waiting out its computed wait time. Safe to call
// concurrently with Poll — the single-goroutine rule applies to
// FdState mutation, not to Wake.
// Returns ErrPollerUnselectable if EnableWake was never called.
func (p *Poller) Wake() error {
	if p.wake == nil {
		return ErrPollerUnselectable
	}
	return p.wake.signal()
}

// drainWake is called from dispatch when the wake fd itself is the
// event source: it just drains the eventfd counter so the next signal
// raises EPOLLIN again, producing no callback invocation of its own.
func (p *Poller) drainWake(fd int32) bool {
	if p.wake == nil || fd != p.wake.fd {
		return false
	}
	p.wake.drain()
	return true
}
