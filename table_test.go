package evpoll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T) (*fdTable, *fakeKernel) {
	t.Helper()
	k := newFakeKernel()
	return newFdTable(16, k), k
}

func TestTable_AttachDetach(t *testing.T) {
	tbl, _ := newTestTable(t)

	require.NoError(t, tbl.Attach(5, func(int32, Events) {}))
	assert.ErrorIs(t, tbl.Attach(5, func(int32, Events) {}), ErrFDAlreadyRegistered)

	require.NoError(t, tbl.Detach(5))
	assert.ErrorIs(t, tbl.Detach(5), ErrFDNotRegistered)
}

func TestTable_AttachOutOfRange(t *testing.T) {
	tbl, _ := newTestTable(t)
	assert.ErrorIs(t, tbl.Attach(100, func(int32, Events) {}), ErrFDOutOfRange)
}

// A second SetActive on the same direction performs no additional
// UpdateList enqueue.
func TestTable_SetActive_Idempotent(t *testing.T) {
	tbl, _ := newTestTable(t)
	require.NoError(t, tbl.Attach(1, func(int32, Events) {}))

	tbl.SetActive(1, Read)
	require.Equal(t, 1, tbl.updates.len())

	tbl.SetActive(1, Read)
	assert.Equal(t, 1, tbl.updates.len())
}

// At the end of a drain, previous == current for every processed fd.
func TestTable_Drain_PreviousEqualsCurrent(t *testing.T) {
	tbl, _ := newTestTable(t)
	require.NoError(t, tbl.Attach(1, func(int32, Events) {}))

	tbl.SetPolled(1, Read)
	tbl.drain(NoOpLogger{})

	rec := &tbl.records[1]
	assert.Equal(t, rec.state.current(), rec.state.previous())
}

// SpecList membership reflects any ACTIVE bit, post-drain.
func TestTable_Drain_SpecListMembership(t *testing.T) {
	tbl, _ := newTestTable(t)
	require.NoError(t, tbl.Attach(1, func(int32, Events) {}))

	tbl.SetActive(1, Write)
	tbl.drain(NoOpLogger{})

	assert.GreaterOrEqual(t, tbl.records[1].specIndex, int32(0))
	assert.Equal(t, 1, tbl.spec.len())

	tbl.Clear(1, Write)
	tbl.drain(NoOpLogger{})

	assert.Equal(t, int32(-1), tbl.records[1].specIndex)
	assert.Equal(t, 0, tbl.spec.len())
}

// KernelInterestSet membership reflects any POLLED bit after drain.
func TestTable_Drain_KernelMembership(t *testing.T) {
	tbl, k := newTestTable(t)
	require.NoError(t, tbl.Attach(1, func(int32, Events) {}))

	tbl.SetPolled(1, Read)
	tbl.drain(NoOpLogger{})
	assert.Contains(t, k.registered, int32(1))
	assert.Equal(t, 1, k.addCalls)

	tbl.Clear(1, Read)
	tbl.drain(NoOpLogger{})
	assert.NotContains(t, k.registered, int32(1))
	assert.Equal(t, 1, k.delCalls)
}

// POLLED -> ACTIVE -> IDLE within a single tick results in at most one
// DEL against the kernel interest set on the next drain.
func TestTable_Drain_PolledActiveIdleSingleTick(t *testing.T) {
	tbl, k := newTestTable(t)
	require.NoError(t, tbl.Attach(1, func(int32, Events) {}))

	tbl.SetPolled(1, Read)
	tbl.drain(NoOpLogger{})
	require.Equal(t, 1, k.addCalls)

	tbl.SetActive(1, Read)
	tbl.Clear(1, Read)
	tbl.drain(NoOpLogger{})

	assert.Equal(t, 1, k.delCalls)
	assert.Equal(t, 0, k.modCalls)
}

// After Detach (close notification), fd is absent from SpecList and
// both nibbles are zero.
func TestTable_Detach_ClearsState(t *testing.T) {
	tbl, _ := newTestTable(t)
	require.NoError(t, tbl.Attach(1, func(int32, Events) {}))
	tbl.SetActive(1, Read)
	tbl.drain(NoOpLogger{})
	require.Equal(t, 1, tbl.spec.len())

	require.NoError(t, tbl.Detach(1))

	assert.Equal(t, int32(-1), tbl.records[1].specIndex)
	assert.Equal(t, 0, tbl.spec.len())
	assert.Equal(t, FdState(0), tbl.records[1].state)
}

func TestTable_SetPolled_NoOpIfAlreadyPolled(t *testing.T) {
	tbl, _ := newTestTable(t)
	require.NoError(t, tbl.Attach(1, func(int32, Events) {}))

	tbl.SetPolled(1, Read)
	tbl.drain(NoOpLogger{})
	before := tbl.updates.len()

	tbl.SetPolled(1, Read)
	assert.Equal(t, before, tbl.updates.len())
}

func TestTable_Clear_NoOpIfAlreadyIdle(t *testing.T) {
	tbl, _ := newTestTable(t)
	require.NoError(t, tbl.Attach(1, func(int32, Events) {}))

	tbl.Clear(1, Read)
	assert.Equal(t, 0, tbl.updates.len())
}

// recordingLogger keeps every entry it is given.
type recordingLogger struct{ entries []LogEntry }

func (l *recordingLogger) Log(e LogEntry)          { l.entries = append(l.entries, e) }
func (l *recordingLogger) IsEnabled(LogLevel) bool { return true }

func TestTable_KernelMutationFailure_Logged(t *testing.T) {
	tbl, k := newTestTable(t)
	k.addErr = errFakeKernel
	require.NoError(t, tbl.Attach(1, func(int32, Events) {}))

	tbl.SetPolled(1, Read)
	// Must not panic; the failure is reported via the logger and
	// otherwise ignored.
	rl := &recordingLogger{}
	tbl.drain(rl)
	assert.NotContains(t, k.registered, int32(1))
	require.Len(t, rl.entries, 1)
	assert.Equal(t, "kernelset", rl.entries[0].Category)
	assert.ErrorIs(t, rl.entries[0].Err, errFakeKernel)
}
