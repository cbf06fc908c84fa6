// Package evpoll implements a speculative, level-triggered readiness
// poller over epoll: a kernel-backed interest set (KernelInterestSet)
// layered under a user-space speculative set (SpecList) so that an fd
// an owner knows will make further progress can be revisited next tick
// without a fresh epoll_wait round-trip.
//
// A Poller is constructed with New, brought up against the kernel with
// Init, and driven one tick at a time with Poll. Fd owners attach via
// Attach and control per-direction interest with SetActive, SetPolled,
// Clear, and Remove.
package evpoll
