package bgzf

import (
	"bufio"
	"bytes"
	"io"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"
)

// countingReader wraps a buffered reader and tracks how many bytes have
// been consumed from it, giving the decoder a tell(underlying) without
// calling Seek on the underlying stream for every block read — only the
// seek path uses the io.Seeker.
type countingReader struct {
	br  *bufio.Reader
	pos int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.br.Read(p)
	c.pos += int64(n)
	return n, err
}

// decoder is the read pipeline: a pool of P blocks refilled
// and inflated in lockstep, consumed in file-offset order.
type decoder struct {
	rs  io.ReadSeeker
	src *countingReader

	blocks     []*block
	blockIndex int
	filled     int

	done         bool // true once the EOF marker has been consumed
	sawEOFMarker bool
}

func newDecoder(rs io.ReadSeeker, workers int) *decoder {
	if workers < 1 {
		workers = 1
	}
	blocks := make([]*block, workers)
	for i := range blocks {
		blocks[i] = newBlock()
	}
	return &decoder{
		rs:     rs,
		src:    &countingReader{br: bufio.NewReaderSize(rs, BGZFMaxBlockSize)},
		blocks: blocks,
	}
}

// readBlocks implements the refill protocol: read up to P
// framed blocks sequentially (preserving on-disk order), then inflate all
// of them in a bounded parallel fork-join region.
func (d *decoder) readBlocks() error {
	n := 0
	for n < len(d.blocks) {
		fileOfs := d.src.pos
		b := d.blocks[n]
		raw, deflateOff, deflateLen, err := readRawBlock(d.src, b.compressed)
		if err == io.EOF {
			if !d.sawEOFMarker {
				return dataError(KindTruncated, "stream ended without an EOF marker")
			}
			d.done = true
			break
		}
		if err != nil {
			return err
		}

		off, err := MakeVirtualOffset(fileOfs, 0)
		if err != nil {
			return err
		}
		b.offset = off
		b.deflateOff = deflateOff
		b.deflateLen = deflateLen
		n++

		if isEOFMarker(b.compressed[:raw]) {
			d.sawEOFMarker = true
			d.done = true
			break
		}
	}

	if n == 0 {
		d.filled = 0
		d.blockIndex = 0
		return io.EOF
	}

	g := new(errgroup.Group)
	for i := 0; i < n; i++ {
		b := d.blocks[i]
		g.Go(func() error { return d.inflateBlock(b) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	d.filled = n
	d.blockIndex = 0
	return nil
}

// inflateBlock runs b's codec context to completion against its
// compressed buffer's DEFLATE region in one pass.
func (d *decoder) inflateBlock(b *block) error {
	src := bytes.NewReader(b.compressed[b.deflateOff : b.deflateOff+b.deflateLen])
	if err := b.resetInflate(src); err != nil {
		return wrapDataError(KindCodecFailure, "reset inflate", err)
	}

	n, err := io.ReadFull(b.inflate, b.decompressed)
	switch err {
	case nil:
		return dataError(KindCodecFailure, "decompressed block reached 65536 bytes")
	case io.ErrUnexpectedEOF, io.EOF:
		// Expected: the deflate stream ended before filling the buffer.
	default:
		return wrapDataError(KindCodecFailure, "inflate", err)
	}

	b.size = n
	if b.size >= BGZFMaxBlockSize {
		return dataError(KindCodecFailure, "decompressed block size out of range")
	}
	return nil
}

// ensureBuffered implements the consumption protocol: skip
// fully-consumed blocks, refill if the pool is exhausted and the
// underlying stream has more, or report the EOF sentinel.
func (d *decoder) ensureBuffered() (*block, error) {
	for d.blockIndex < d.filled && d.blocks[d.blockIndex].offset.BlockOffset() == d.blocks[d.blockIndex].size {
		d.blockIndex++
	}
	if d.blockIndex < d.filled {
		return d.blocks[d.blockIndex], nil
	}
	if d.done {
		return nil, io.EOF
	}
	if err := d.readBlocks(); err != nil {
		return nil, err
	}
	return d.ensureBuffered()
}

// readByte reads a single decompressed byte.
func (d *decoder) readByte() (byte, error) {
	b, err := d.ensureBuffered()
	if err != nil {
		return 0, err
	}
	off := b.offset.BlockOffset()
	c := b.decompressed[off]
	b.offset = b.offset.Add(1)
	if b.offset.BlockOffset() == b.size {
		if _, err := d.ensureBuffered(); err != nil && err != io.EOF {
			return c, err
		}
	}
	return c, nil
}

// readFull implements read_exact semantics,
// failing with an unexpected-EOF wrapper if the sentinel is reached before
// dst is filled.
func (d *decoder) readFull(dst []byte) (int, error) {
	read := 0
	for read < len(dst) {
		b, err := d.ensureBuffered()
		if err != nil {
			if err == io.EOF {
				return read, errors.Wrap(io.ErrUnexpectedEOF, "bgzf: unexpected EOF")
			}
			return read, err
		}
		off := b.offset.BlockOffset()
		n := b.size - off
		if want := len(dst) - read; n > want {
			n = want
		}
		copy(dst[read:read+n], b.decompressed[off:off+n])
		b.offset = b.offset.Add(n)
		read += n
		if b.offset.BlockOffset() == b.size {
			if _, err := d.ensureBuffered(); err != nil && err != io.EOF {
				return read, err
			}
		}
	}
	return read, nil
}

// read implements io.Reader-style partial reads for Stream.Read: fills at
// most len(dst) bytes from the current block without crossing into a
// refill unless the current block is already exhausted.
func (d *decoder) read(dst []byte) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	b, err := d.ensureBuffered()
	if err != nil {
		return 0, err
	}
	off := b.offset.BlockOffset()
	n := b.size - off
	if n > len(dst) {
		n = len(dst)
	}
	copy(dst[:n], b.decompressed[off:off+n])
	b.offset = b.offset.Add(n)
	if b.offset.BlockOffset() == b.size {
		if _, err := d.ensureBuffered(); err != nil && err != io.EOF {
			return n, err
		}
	}
	return n, nil
}

// seek implements the seek protocol. Legal only in read mode.
func (d *decoder) seek(v VirtualOffset) error {
	if _, err := d.rs.Seek(v.FileOffset(), io.SeekStart); err != nil {
		return errors.Wrap(err, "seek")
	}
	d.src.br.Reset(d.rs)
	d.src.pos = v.FileOffset()
	d.done = false
	d.sawEOFMarker = false

	if err := d.readBlocks(); err != nil {
		if err == io.EOF {
			return usageErrorf(ErrInvalidOffset, "seek", "seek target past end of stream")
		}
		return err
	}
	if d.filled == 0 {
		return usageErrorf(ErrInvalidOffset, "seek", "no block at seek target")
	}

	blockOff := v.BlockOffset()
	first := d.blocks[0]
	if blockOff >= first.size {
		return usageErrorf(ErrInvalidOffset, "seek", "in-block offset beyond block size")
	}
	newOff, err := MakeVirtualOffset(first.offset.FileOffset(), blockOff)
	if err != nil {
		return err
	}
	first.offset = newOff
	d.blockIndex = 0
	return nil
}

// tell returns the virtual offset of the block
// currently being consumed, or the last block read if the pool has been
// fully drained.
func (d *decoder) tell() VirtualOffset {
	idx := d.blockIndex
	if idx >= d.filled {
		idx = d.filled - 1
	}
	if idx < 0 {
		return 0
	}
	return d.blocks[idx].offset
}

// eof reports whether the decoder has no more bytes to offer.
func (d *decoder) eof() bool {
	_, err := d.ensureBuffered()
	return errors.Is(err, io.EOF)
}
