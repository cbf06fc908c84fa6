package evpoll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFdState_PackUnpack(t *testing.T) {
	s := packFdState(0x5, 0xA)
	assert.Equal(t, byte(0x5), s.current())
	assert.Equal(t, byte(0xA), s.previous())
}

func TestFdState_CurrentDir(t *testing.T) {
	// READ active, WRITE polled.
	s := packFdState(byte(StatusActive)|byte(StatusPolled)<<2, 0)
	assert.Equal(t, StatusActive, s.CurrentDir(Read))
	assert.Equal(t, StatusPolled, s.CurrentDir(Write))
}

func TestFdState_PreviousDir(t *testing.T) {
	s := packFdState(0, byte(StatusActive)<<2)
	assert.Equal(t, StatusIdle, s.PreviousDir(Read))
	assert.Equal(t, StatusActive, s.PreviousDir(Write))
}

func TestHasActiveHasPolled(t *testing.T) {
	require.True(t, hasActive(byte(StatusActive)))
	require.True(t, hasActive(byte(StatusActive)<<2))
	require.False(t, hasActive(byte(StatusPolled)))

	require.True(t, hasPolled(byte(StatusPolled)))
	require.True(t, hasPolled(byte(StatusPolled)<<2))
	require.False(t, hasPolled(byte(StatusActive)))
}

func TestDirection_Shift(t *testing.T) {
	assert.Equal(t, uint(0), Read.shift())
	assert.Equal(t, uint(2), Write.shift())
}

func TestDirection_String(t *testing.T) {
	assert.Equal(t, "read", Read.String())
	assert.Equal(t, "write", Write.String())
}
