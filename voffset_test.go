package bgzf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVirtualOffsetPacking(t *testing.T) {
	v, err := MakeVirtualOffset(12345, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), v.FileOffset())
	assert.Equal(t, 100, v.BlockOffset())
}

func TestVirtualOffsetOrdering(t *testing.T) {
	a, err := MakeVirtualOffset(10, 5)
	require.NoError(t, err)
	b, err := MakeVirtualOffset(10, 6)
	require.NoError(t, err)
	c, err := MakeVirtualOffset(11, 0)
	require.NoError(t, err)

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.True(t, a.Less(c))
	assert.False(t, b.Less(a))
}

func TestVirtualOffsetAdd(t *testing.T) {
	v, err := MakeVirtualOffset(10, 5)
	require.NoError(t, err)
	v = v.Add(7)
	assert.Equal(t, int64(10), v.FileOffset())
	assert.Equal(t, 12, v.BlockOffset())
}

func TestMakeVirtualOffsetRejectsOutOfRange(t *testing.T) {
	_, err := MakeVirtualOffset(-1, 0)
	assert.Error(t, err)

	_, err = MakeVirtualOffset(0, BGZFMaxBlockSize)
	assert.Error(t, err)

	_, err = MakeVirtualOffset(0, -1)
	assert.Error(t, err)
}

func TestVirtualOffsetTextRoundTrip(t *testing.T) {
	v, err := MakeVirtualOffset(98765, 42)
	require.NoError(t, err)

	s := v.String()
	assert.Equal(t, "98765:42", s)

	parsed, err := ParseOffset(s)
	require.NoError(t, err)
	assert.Equal(t, v, parsed)
}

func TestParseOffsetRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "noseparator", "abc:123", "123:abc", "123:"} {
		_, err := ParseOffset(s)
		assert.Error(t, err, "expected error for %q", s)
	}
}
