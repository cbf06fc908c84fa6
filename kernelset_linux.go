//go:build linux

package evpoll

import (
	"golang.org/x/sys/unix"
)

// epollInterestSet is the Linux KernelInterestSet, backed by epoll:
// plain level-triggered semantics (no edge-trigger flags, no
// version-counter fast path), since the speculation layer above this
// one already does the "don't re-ask the kernel" work in user space
// rather than in epoll itself.
type epollInterestSet struct {
	epfd int
	raw  []unix.EpollEvent
}

// newEpollInterestSet creates the epoll fd. The nominal size hint
// epoll_create(2) used to take is obsolete on modern kernels;
// EpollCreate1 takes none.
func newEpollInterestSet() (*epollInterestSet, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollInterestSet{epfd: epfd}, nil
}

func (k *epollInterestSet) Add(fd int32, events Events) error {
	ev := &unix.EpollEvent{Events: eventsToEpoll(events), Fd: fd}
	return unix.EpollCtl(k.epfd, unix.EPOLL_CTL_ADD, int(fd), ev)
}

func (k *epollInterestSet) Mod(fd int32, events Events) error {
	ev := &unix.EpollEvent{Events: eventsToEpoll(events), Fd: fd}
	return unix.EpollCtl(k.epfd, unix.EPOLL_CTL_MOD, int(fd), ev)
}

func (k *epollInterestSet) Del(fd int32) error {
	return unix.EpollCtl(k.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
}

func (k *epollInterestSet) Close() error {
	return unix.Close(k.epfd)
}

// Wait blocks in epoll_wait. An EINTR is treated as a zero-event
// return rather than an error. The raw EpollEvent buffer is a field on
// k, reused across calls rather than reallocated per tick.
func (k *epollInterestSet) Wait(buf []RawEvent, timeoutMs int) (int, error) {
	if cap(k.raw) < len(buf) {
		k.raw = make([]unix.EpollEvent, len(buf))
	}
	raw := k.raw[:len(buf)]
	n, err := unix.EpollWait(k.epfd, raw, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		buf[i] = RawEvent{Fd: raw[i].Fd, Events: epollToEvents(raw[i].Events)}
	}
	return n, nil
}

// eventsToEpoll converts evpoll's Events into epoll registration flags.
// Only EvIn/EvOut are meaningful for EpollCtl; EvErr/EvHup are always
// reported by the kernel regardless of registration. EPOLLPRI is never
// registered here.
func eventsToEpoll(events Events) uint32 {
	var e uint32
	if events&EvIn != 0 {
		e |= unix.EPOLLIN
	}
	if events&EvOut != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

// epollToEvents translates a returned epoll event mask into evpoll's
// Events bits: readable/priority/writable/error/hangup map onto
// IN/PRI/OUT/ERR/HUP respectively.
func epollToEvents(mask uint32) Events {
	var ev Events
	if mask&unix.EPOLLIN != 0 {
		ev |= EvIn
	}
	if mask&unix.EPOLLPRI != 0 {
		ev |= EvPri
	}
	if mask&unix.EPOLLOUT != 0 {
		ev |= EvOut
	}
	if mask&unix.EPOLLERR != 0 {
		ev |= EvErr
	}
	if mask&unix.EPOLLHUP != 0 {
		ev |= EvHup
	}
	return ev
}
