package bgzf

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyFile(t *testing.T) {
	var buf bytes.Buffer
	s, err := OpenWrite(&buf)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Equal(t, eofMarker[:], buf.Bytes())

	rd, err := OpenRead(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, rd.Eof())
	_, err = rd.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
	require.NoError(t, rd.Close())
}

func TestSingleSmallPayload(t *testing.T) {
	want := []byte{0x41, 0x42, 0x43}

	var buf bytes.Buffer
	s, err := OpenWrite(&buf)
	require.NoError(t, err)
	n, err := s.Write(want)
	require.NoError(t, err)
	require.Equal(t, len(want), n)
	require.NoError(t, s.Close())

	rd, err := OpenRead(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	got := make([]byte, 3)
	_, err = rd.ReadFull(got)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = rd.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
	require.NoError(t, rd.Close())
}

func TestCrossBlockPayload(t *testing.T) {
	const size = 65280 + 5
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}

	var buf bytes.Buffer
	s, err := OpenWrite(&buf)
	require.NoError(t, err)
	_, err = s.Write(data)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	blocks := countBlocks(t, buf.Bytes())
	assert.Equal(t, 3, blocks) // two data blocks + the EOF marker block

	rd, err := OpenRead(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	got, err := io.ReadAll(rd)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	require.NoError(t, rd.Close())
}

// countBlocks walks raw BGZF framing without going through the decoder, so
// the cross-block scenario can assert on block count independent of the
// read pipeline under test.
func countBlocks(t *testing.T, raw []byte) int {
	t.Helper()
	r := bytes.NewReader(raw)
	buf := make([]byte, BGZFMaxBlockSize)
	n := 0
	for {
		size, _, _, err := readRawBlock(r, buf)
		if err == io.EOF {
			return n
		}
		require.NoError(t, err)
		n++
		if isEOFMarker(buf[:size]) {
			return n
		}
	}
}

func TestSeekRoundTrip(t *testing.T) {
	const (
		total     = 200000
		chunk     = 1000
		boundary  = 10000
		sampleLen = 100
	)
	data := make([]byte, total)
	for i := range data {
		data[i] = byte(i % 251)
	}

	type recorded struct {
		v   VirtualOffset
		pos int
	}
	var recs []recorded

	var buf bytes.Buffer
	s, err := OpenWrite(&buf)
	require.NoError(t, err)
	for pos := 0; pos < total; pos += chunk {
		if pos%boundary == 0 {
			recs = append(recs, recorded{v: s.Tell(), pos: pos})
		}
		end := pos + chunk
		if end > total {
			end = total
		}
		_, err := s.Write(data[pos:end])
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	rd, err := OpenRead(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	for _, r := range recs {
		require.NoError(t, rd.Seek(r.v))
		got := make([]byte, sampleLen)
		_, err := rd.ReadFull(got)
		require.NoError(t, err)
		assert.Equal(t, data[r.pos:r.pos+sampleLen], got, "mismatch at recorded pos %d", r.pos)
	}
	require.NoError(t, rd.Close())
}

func TestFramingRejection(t *testing.T) {
	var buf bytes.Buffer
	s, err := OpenWrite(&buf)
	require.NoError(t, err)
	_, err = s.Write([]byte("hello, bgzf"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	corrupt := append([]byte{}, buf.Bytes()...)
	corrupt[0] = 0x00 // clobber ID1

	rd, err := OpenRead(bytes.NewReader(corrupt))
	require.NoError(t, err)
	_, err = io.ReadAll(rd)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFraming))
}

func TestTruncationDetection(t *testing.T) {
	data := make([]byte, 100000)
	for i := range data {
		data[i] = byte(i)
	}

	var buf bytes.Buffer
	s, err := OpenWrite(&buf)
	require.NoError(t, err)
	_, err = s.Write(data)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	truncated := buf.Bytes()[:buf.Len()-len(eofMarker)]

	rd, err := OpenRead(bytes.NewReader(truncated))
	require.NoError(t, err)
	_, err = io.ReadAll(rd)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncatedFile))
}

func TestParallelDecodeCorrectness(t *testing.T) {
	data := make([]byte, 4*BGZFSafeBlockSize)
	rand.New(rand.NewSource(42)).Read(data)

	var buf bytes.Buffer
	s, err := OpenWrite(&buf)
	require.NoError(t, err)
	_, err = s.Write(data)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	for _, workers := range []int{1, 2, 4, 8} {
		rd, err := OpenRead(bytes.NewReader(buf.Bytes()), WithWorkers(workers))
		require.NoError(t, err)
		got, err := io.ReadAll(rd)
		require.NoError(t, err)
		assert.Equal(t, data, got, "mismatch with %d workers", workers)
		require.NoError(t, rd.Close())
	}
}

func TestBlockBoundNeverExceeded(t *testing.T) {
	data := make([]byte, 3*BGZFSafeBlockSize)
	rand.New(rand.NewSource(7)).Read(data) // incompressible, worst case for deflate expansion

	var buf bytes.Buffer
	s, err := OpenWrite(&buf)
	require.NoError(t, err)
	_, err = s.Write(data)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	r := bytes.NewReader(buf.Bytes())
	rawBuf := make([]byte, BGZFMaxBlockSize)
	for {
		size, _, _, err := readRawBlock(r, rawBuf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.LessOrEqual(t, size, BGZFMaxBlockSize)
	}
}

func TestWriteToReadStreamIsUsageError(t *testing.T) {
	rd, err := OpenRead(bytes.NewReader(eofMarker[:]))
	require.NoError(t, err)
	_, err = rd.Write([]byte("x"))
	assert.True(t, errors.Is(err, ErrNotWritable))
}

func TestSeekOnWriteStreamIsUsageError(t *testing.T) {
	var buf bytes.Buffer
	s, err := OpenWrite(&buf)
	require.NoError(t, err)
	err = s.Seek(0)
	assert.True(t, errors.Is(err, ErrNotSeekable))
}

func TestOperationOnClosedStreamIsUsageError(t *testing.T) {
	var buf bytes.Buffer
	s, err := OpenWrite(&buf)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Write([]byte("x"))
	assert.True(t, errors.Is(err, ErrStreamClosed))

	var usageErr *UsageError
	require.True(t, errors.As(err, &usageErr))
	assert.Equal(t, "write", usageErr.Op)
}

func TestFramingRejectionRecoversKindAndMsg(t *testing.T) {
	var buf bytes.Buffer
	s, err := OpenWrite(&buf)
	require.NoError(t, err)
	_, err = s.Write([]byte("hello, bgzf"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	corrupt := append([]byte{}, buf.Bytes()...)
	corrupt[0] = 0x00 // clobber ID1

	rd, err := OpenRead(bytes.NewReader(corrupt))
	require.NoError(t, err)
	_, err = io.ReadAll(rd)
	require.Error(t, err)

	var dataErr *DataError
	require.True(t, errors.As(err, &dataErr))
	assert.Equal(t, KindFraming, dataErr.Kind)
	assert.Equal(t, "bad magic", dataErr.Msg)
}

func TestTruncationRecoversKind(t *testing.T) {
	data := make([]byte, 1000)
	var buf bytes.Buffer
	s, err := OpenWrite(&buf)
	require.NoError(t, err)
	_, err = s.Write(data)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	truncated := buf.Bytes()[:buf.Len()-len(eofMarker)]
	rd, err := OpenRead(bytes.NewReader(truncated))
	require.NoError(t, err)
	_, err = io.ReadAll(rd)
	require.Error(t, err)

	var dataErr *DataError
	require.True(t, errors.As(err, &dataErr))
	assert.Equal(t, KindTruncated, dataErr.Kind)
}
