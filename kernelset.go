package evpoll

// KernelInterestSet wraps the OS readiness primitive with add/mod/del
// operations keyed by fd. It is mutated only from the update-drain
// phase of a tick and is otherwise opaque to the rest of the poller.
type KernelInterestSet interface {
	// Add registers fd for the given Events (only EvIn/EvOut are
	// meaningful here; POLLED is the only status that ever reaches
	// the kernel set).
	Add(fd int32, events Events) error
	// Mod updates the Events fd is registered for.
	Mod(fd int32, events Events) error
	// Del removes fd from the interest set.
	Del(fd int32) error
	// Wait blocks for up to timeoutMs milliseconds (0 = return
	// immediately, negative = block indefinitely... though the poll
	// loop never passes a negative value, see waitTimeMs) and returns
	// events into buf, returning the number filled.
	Wait(buf []RawEvent, timeoutMs int) (int, error)
	// Close releases the underlying kernel object.
	Close() error
}

// RawEvent is one event as returned by KernelInterestSet.Wait: the fd
// and its readiness, already translated from the kernel's own bit
// layout into Events.
type RawEvent struct {
	Fd     int32
	Events Events // already translated to evpoll's Events bits
}
