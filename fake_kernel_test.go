package evpoll

import "errors"

// fakeKernel is an in-memory KernelInterestSet double, letting tests
// drive specific event sequences and failure injections without a
// real epoll fd.
type fakeKernel struct {
	registered map[int32]Events
	queue      [][]RawEvent

	addErr, modErr, delErr, waitErr error
	closed                          bool

	addCalls, modCalls, delCalls int
}

func newFakeKernel() *fakeKernel {
	return &fakeKernel{registered: make(map[int32]Events)}
}

func (k *fakeKernel) Add(fd int32, events Events) error {
	k.addCalls++
	if k.addErr != nil {
		return k.addErr
	}
	k.registered[fd] = events
	return nil
}

func (k *fakeKernel) Mod(fd int32, events Events) error {
	k.modCalls++
	if k.modErr != nil {
		return k.modErr
	}
	k.registered[fd] = events
	return nil
}

func (k *fakeKernel) Del(fd int32) error {
	k.delCalls++
	if k.delErr != nil {
		return k.delErr
	}
	delete(k.registered, fd)
	return nil
}

func (k *fakeKernel) Close() error {
	k.closed = true
	return nil
}

// Wait pops the next queued batch of events, ignoring timeoutMs (tests
// drive ticks explicitly rather than racing a real clock).
func (k *fakeKernel) Wait(buf []RawEvent, timeoutMs int) (int, error) {
	if k.waitErr != nil {
		return 0, k.waitErr
	}
	if len(k.queue) == 0 {
		return 0, nil
	}
	batch := k.queue[0]
	k.queue = k.queue[1:]
	n := copy(buf, batch)
	return n, nil
}

// enqueue schedules a batch of events to be returned by the next Wait.
func (k *fakeKernel) enqueue(events ...RawEvent) {
	k.queue = append(k.queue, events)
}

var errFakeKernel = errors.New("fake kernel failure")
