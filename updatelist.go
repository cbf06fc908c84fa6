package evpoll

// updateList is the ordered, deduplicated sequence of fds whose state
// changed since the last drain. Deduplication is via each fd's
// fdRecord.updated flag rather than a set lookup: direct indexing
// instead of map lookups on the hot path.
type updateList struct {
	items []int32
}

// newUpdateList preallocates capacity for up to maxsock entries, since
// the list is bounded by the maximum fd count.
func newUpdateList(maxsock int) *updateList {
	return &updateList{items: make([]int32, 0, maxsock)}
}

// push appends fd iff it is not already enqueued (updated == false),
// and marks it enqueued. This is the hook fd owners call whenever they
// mutate an fd's status.
func (u *updateList) push(fd int32, rec *fdRecord) {
	if rec.updated {
		return
	}
	rec.updated = true
	u.items = append(u.items, fd)
}

// len returns the number of entries currently enqueued.
func (u *updateList) len() int { return len(u.items) }

// reset empties the list. Called once, after a full drain.
func (u *updateList) reset() { u.items = u.items[:0] }

// popTrailing removes the last entry if it is still at index idx,
// clearing its owning fdRecord's updated flag. Used by the nested
// new-fd drain, which only ever pops the trailing entry.
func (u *updateList) popTrailing(idx int, rec *fdRecord) {
	if idx != len(u.items)-1 {
		return
	}
	u.items = u.items[:idx]
	rec.updated = false
}
