package evpoll

// fdTable holds the per-fd bookkeeping plus the two lists that drive
// the poll loop: UpdateList and SpecList, owned process-wide by the
// poller. All of it is accessed from a single goroutine.
type fdTable struct {
	records []fdRecord
	updates *updateList
	spec    *specList
	kernel  KernelInterestSet
}

func newFdTable(maxsock int, kernel KernelInterestSet) *fdTable {
	t := &fdTable{
		records: make([]fdRecord, maxsock),
		updates: newUpdateList(maxsock),
		spec:    newSpecList(maxsock),
		kernel:  kernel,
	}
	for i := range t.records {
		t.records[i].specIndex = -1
	}
	return t
}

// Attach registers cb as fd's owner and callback. A freshly attached
// fd starts IDLE in both directions and is marked new so the nested
// drain will drive it once within the tick it was created in, if any.
func (t *fdTable) Attach(fd int32, cb Callback) error {
	if fd < 0 || int(fd) >= len(t.records) {
		return ErrFDOutOfRange
	}
	rec := &t.records[fd]
	if rec.owner {
		return ErrFDAlreadyRegistered
	}
	*rec = fdRecord{owner: true, callback: cb, isNew: true, specIndex: -1}
	return nil
}

// Detach is the dual of Attach: a close notification. It releases the
// SpecList entry if present and zeros both nibbles of the fd's state;
// the OS removes a closed fd from the interest set on its own, so no
// DEL syscall is issued here.
func (t *fdTable) Detach(fd int32) error {
	if fd < 0 || int(fd) >= len(t.records) {
		return ErrFDOutOfRange
	}
	rec := &t.records[fd]
	if !rec.owner {
		return ErrFDNotRegistered
	}
	if rec.specIndex >= 0 {
		t.spec.release(fd, rec, t.records)
	}
	rec.owner = false
	rec.callback = nil
	rec.state = 0
	return nil
}

// IsSet returns the current status of (fd, dir). Any nonzero value
// means the callback has interest in that direction.
func (t *fdTable) IsSet(fd int32, dir Direction) Status {
	return t.records[fd].state.CurrentDir(dir)
}

// SetActive marks (fd, dir) ACTIVE: the callback wants a speculative
// invocation next tick without a kernel round-trip. It is a no-op if
// ACTIVE is already set, and never clears a POLLED bit that happens to
// be set, since an fd ready now will typically stay ready and clearing
// would cost a syscall for no gain.
func (t *fdTable) SetActive(fd int32, dir Direction) {
	rec := &t.records[fd]
	if rec.state.CurrentDir(dir)&StatusActive != 0 {
		return
	}
	t.updates.push(fd, rec)
	cur := rec.state.current()
	cur |= byte(StatusActive) << dir.shift()
	rec.state = packFdState(cur, rec.state.previous())
}

// SetPolled marks (fd, dir) exactly POLLED, clearing any ACTIVE bit
// for that direction. It is a no-op if the direction is already
// exactly POLLED.
func (t *fdTable) SetPolled(fd int32, dir Direction) {
	rec := &t.records[fd]
	if rec.state.CurrentDir(dir) == StatusPolled {
		return
	}
	t.updates.push(fd, rec)
	mask := byte(statusMask) << dir.shift()
	cur := rec.state.current()&^mask | byte(StatusPolled)<<dir.shift()
	rec.state = packFdState(cur, rec.state.previous())
}

// Clear sets (fd, dir) to IDLE. No-op if already IDLE.
func (t *fdTable) Clear(fd int32, dir Direction) {
	rec := &t.records[fd]
	if rec.state.CurrentDir(dir) == StatusIdle {
		return
	}
	t.updates.push(fd, rec)
	mask := byte(statusMask) << dir.shift()
	cur := rec.state.current() &^ mask
	rec.state = packFdState(cur, rec.state.previous())
}

// Remove clears both directions of fd.
func (t *fdTable) Remove(fd int32) {
	t.Clear(fd, Read)
	t.Clear(fd, Write)
}

// drain implements the update-list drain: it runs once at the start of
// each tick, synchronizing the KernelInterestSet and SpecList
// membership with every fd whose state changed since the previous
// drain.
func (t *fdTable) drain(log Logger) {
	for _, fd := range t.updates.items {
		rec := &t.records[fd]
		newN := rec.state.current()
		oldN := rec.state.previous()

		if rec.owner && newN != oldN {
			diff := newN ^ oldN
			if diff&polledMask != 0 {
				t.syncKernel(fd, oldN, newN, log)
			}
			rec.state = packFdState(newN, newN)
		}

		// SpecList membership always runs off the new/old nibbles
		// captured above, even when the kernel-sync branch above was
		// skipped — this is what lets Remove()/close-adjacent state
		// changes get reconciled out of SpecList even if the owner
		// was cleared concurrently.
		newActive := newN & activeMask
		oldActive := oldN & activeMask
		switch {
		case newActive == 0:
			if rec.specIndex >= 0 {
				t.spec.release(fd, rec, t.records)
			}
		case newActive&^oldActive != 0:
			if rec.specIndex < 0 {
				t.spec.acquire(fd, rec)
			}
		}

		rec.updated = false
		rec.isNew = false
	}
	t.updates.reset()
}

// syncKernel applies the ADD/MOD/DEL implied by a POLLED-bit
// transition. Failures are logged at debug level and otherwise
// ignored: the fd may already have been closed, and the next drain
// will reconcile.
func (t *fdTable) syncKernel(fd int32, oldN, newN byte, log Logger) {
	oldPolled := oldN & polledMask
	newPolled := newN & polledMask

	var err error
	switch {
	case newPolled == 0:
		err = t.kernel.Del(fd)
	case oldPolled == 0:
		err = t.kernel.Add(fd, pollMaskToEvents(newPolled))
	default:
		err = t.kernel.Mod(fd, pollMaskToEvents(newPolled))
	}
	if err != nil {
		log.Log(LogEntry{Level: LevelDebug, Category: "kernelset", Message: "interest-set mutation failed", Err: err})
	}
}

// pollMaskToEvents converts a polledMask-shaped nibble (bits 1 and 3,
// READ's and WRITE's POLLED bit) into the Events a KernelInterestSet
// should register interest for.
func pollMaskToEvents(polled byte) Events {
	var ev Events
	if polled&(byte(StatusPolled)<<Read.shift()) != 0 {
		ev |= EvIn
	}
	if polled&(byte(StatusPolled)<<Write.shift()) != 0 {
		ev |= EvOut
	}
	return ev
}
