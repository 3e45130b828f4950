package bgzf

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/klauspost/compress/flate"
)

// block is a unit of work owned exclusively by either the read pipeline or
// the write pipeline for its whole life: a pair of full-capacity buffers
// plus one reusable codec context. Fields touched by the read pipeline
// (inflate, deflateOff/deflateLen) and the write pipeline
// (deflate) are disjoint, so concurrent inflate of distinct blocks never
// shares mutable state.
type block struct {
	compressed   []byte // capacity BGZFMaxBlockSize; raw on-disk bytes in read mode
	decompressed []byte // capacity BGZFMaxBlockSize

	offset VirtualOffset
	size   int // read mode: valid decompressed bytes; write mode: BGZFSafeBlockSize

	// deflateOff/deflateLen locate the raw DEFLATE stream within
	// compressed, set by readRawBlock on every refill.
	deflateOff int
	deflateLen int

	inflate io.ReadCloser // lazily created, reused via flate.Resetter
	deflate *flate.Writer // lazily created, reused via (*flate.Writer).Reset
}

func newBlock() *block {
	return &block{
		compressed:   make([]byte, BGZFMaxBlockSize),
		decompressed: make([]byte, BGZFMaxBlockSize),
	}
}

// resetForWrite prepares a freshly flushed block to accept new bytes.
func (b *block) resetForWrite(fileOffset int64) error {
	off, err := MakeVirtualOffset(fileOffset, 0)
	if err != nil {
		return err
	}
	b.offset = off
	b.size = BGZFSafeBlockSize
	return nil
}

// end releases this block's codec contexts. Called exactly once, from
// Stream.Close, on every exit path.
func (b *block) end() {
	if b.inflate != nil {
		b.inflate.Close()
		b.inflate = nil
	}
	if b.deflate != nil {
		b.deflate = nil
	}
}

// resetInflate (re)initializes the block's inflate codec context to read
// from src, reusing the underlying decompressor state instead of
// reallocating it on every block.
func (b *block) resetInflate(src io.Reader) error {
	if b.inflate == nil {
		b.inflate = flate.NewReader(src)
		return nil
	}
	r, ok := b.inflate.(flate.Resetter)
	if !ok {
		return errors.New("bgzf: inflate codec does not support reset")
	}
	return r.Reset(src, nil)
}

// boundedWriter is the fixed-capacity destination deflate writes into,
// modeling zlib's avail_out: a write that would exceed the reserved
// capacity fails instead of growing, surfacing as ErrBlockTooLarge instead
// of silently overrunning the reserved block buffer.
type boundedWriter struct {
	buf []byte
	n   int
}

func (w *boundedWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > len(w.buf) {
		return 0, usageError(ErrBlockTooLarge, "write")
	}
	n := copy(w.buf[w.n:], p)
	w.n += n
	return n, nil
}
