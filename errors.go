package evpoll

import "errors"

// Standard errors, as package-level vars.
var (
	// ErrFDOutOfRange is returned when an fd is outside the range
	// Config.MaxSock allows.
	ErrFDOutOfRange = errors.New("evpoll: fd out of range")

	// ErrFDAlreadyRegistered is returned by Attach on an fd that
	// already has an owner.
	ErrFDAlreadyRegistered = errors.New("evpoll: fd already registered")

	// ErrFDNotRegistered is returned by Detach on an fd with no owner.
	ErrFDNotRegistered = errors.New("evpoll: fd not registered")

	// ErrPollerClosed is returned by Attach, Detach, and Poll when the
	// poller has not been initialized with Init, or has been shut down
	// with Term.
	ErrPollerClosed = errors.New("evpoll: poller closed")

	// ErrPollerUnselectable is returned by Init when kernel-object
	// creation failed; the caller should consult the Registry and try
	// a different poller.
	ErrPollerUnselectable = errors.New("evpoll: poller init failed, preference reset to 0")

	// ErrRegistryFull is returned by Registry.Register when the
	// plug-in table has no free slots.
	ErrRegistryFull = errors.New("evpoll: poller registry is full")
)
