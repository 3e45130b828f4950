package bgzf

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAppendResumesAfterStrippingEOFMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bgzf")

	s, err := Open(path, "w")
	require.NoError(t, err)
	_, err = s.Write([]byte("first "))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := Open(path, "a")
	require.NoError(t, err)
	assert.Equal(t, ModeAppend, s2.mode)
	_, err = s2.Write([]byte("second"))
	require.NoError(t, err)
	require.NoError(t, s2.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, eofMarker[:], raw[len(raw)-len(eofMarker):])

	rd, err := Open(path, "r")
	require.NoError(t, err)
	got, err := io.ReadAll(rd)
	require.NoError(t, err)
	require.NoError(t, rd.Close())
	assert.Equal(t, []byte("first second"), got)
}

// TestAppendVirtualOffsetAccountsForExistingFile guards against regressing
// the append path back to starting its encoder's VirtualOffset accounting
// from 0: Tell() right after opening for append must reflect the real
// on-disk length of the file being appended to (minus the stripped EOF
// marker), not the length of bytes written in this process alone.
func TestAppendVirtualOffsetAccountsForExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bgzf")

	s, err := Open(path, "w")
	require.NoError(t, err)
	_, err = s.Write(bytes.Repeat([]byte{0x41}, 100))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	fi, err := os.Stat(path)
	require.NoError(t, err)
	wantOffset := fi.Size() - int64(len(eofMarker))

	s2, err := Open(path, "a")
	require.NoError(t, err)
	defer s2.Close()

	assert.Equal(t, wantOffset, s2.Tell().FileOffset())
}

func TestOpenAppendToFreshFileBehavesLikeWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.bgzf")

	s, err := Open(path, "a")
	require.NoError(t, err)
	_, err = s.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	rd, err := Open(path, "r")
	require.NoError(t, err)
	got, err := io.ReadAll(rd)
	require.NoError(t, err)
	require.NoError(t, rd.Close())
	assert.Equal(t, []byte("hello"), got)
}
