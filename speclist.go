package evpoll

// specList is the dense, swap-remove list of fds currently carrying at
// least one ACTIVE (speculative) direction. Each member's index is
// cached on its fdRecord (fdRecord.specIndex) so removal is O(1) — a
// linear scan here would turn the hot path quadratic.
type specList struct {
	items []int32
}

func newSpecList(maxsock int) *specList {
	return &specList{items: make([]int32, 0, maxsock)}
}

func (s *specList) len() int { return len(s.items) }

// acquire adds fd to the list if it isn't already a member.
func (s *specList) acquire(fd int32, rec *fdRecord) {
	if rec.specIndex >= 0 {
		return
	}
	rec.specIndex = int32(len(s.items))
	s.items = append(s.items, fd)
}

// release removes fd from the list via swap-with-last, re-pointing the
// swapped-in successor's back-pointer. table is the owning Poller's
// per-fd record array, indexed by fd.
func (s *specList) release(fd int32, rec *fdRecord, table []fdRecord) {
	idx := rec.specIndex
	if idx < 0 {
		return
	}
	last := int32(len(s.items) - 1)
	lastFd := s.items[last]
	if idx != last {
		s.items[idx] = lastFd
		table[lastFd].specIndex = idx
	}
	s.items = s.items[:last]
	rec.specIndex = -1
}
