package bgzf

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/go-faster/errors"
	"github.com/klauspost/compress/flate"
)

// encoder is the write pipeline: a single active block,
// flushed to the underlying stream whenever it fills, plus the final EOF
// block appended on close.
type encoder struct {
	dst   io.Writer
	level int
	pos   int64

	blk *block
}

func newEncoder(w io.Writer, level int, startOffset int64) (*encoder, error) {
	b := newBlock()
	if err := b.resetForWrite(startOffset); err != nil {
		return nil, err
	}
	return &encoder{dst: w, level: level, pos: startOffset, blk: b}, nil
}

// writeByte buffers a single byte, flushing a block when it fills.
func (e *encoder) writeByte(c byte) error {
	b := e.blk
	off := b.offset.BlockOffset()
	b.decompressed[off] = c
	b.offset = b.offset.Add(1)
	if b.offset.BlockOffset() == b.size {
		return e.writeBlock()
	}
	return nil
}

// write buffers p, flushing blocks as they fill.
func (e *encoder) write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		b := e.blk
		off := b.offset.BlockOffset()
		n := copy(b.decompressed[off:b.size], p)
		b.offset = b.offset.Add(n)
		p = p[n:]
		written += n
		if b.offset.BlockOffset() == b.size {
			if err := e.writeBlock(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// writeBlock deflates the buffered payload into the compressed buffer
// starting past the pre-reserved 18-byte prologue, backpatches BSIZE, and
// emits the block.
func (e *encoder) writeBlock() error {
	b := e.blk
	payload := b.offset.BlockOffset()
	if payload == 0 {
		return nil
	}

	writePrologue(b.compressed)
	bw := &boundedWriter{buf: b.compressed[prologueSize:]}

	if b.deflate == nil {
		dw, err := flate.NewWriter(bw, e.level)
		if err != nil {
			return errors.Wrap(err, "new deflate writer")
		}
		b.deflate = dw
	} else {
		b.deflate.Reset(bw)
	}

	if _, err := b.deflate.Write(b.decompressed[:payload]); err != nil {
		return e.wrapDeflateErr(err)
	}
	if err := b.deflate.Close(); err != nil {
		return e.wrapDeflateErr(err)
	}

	deflateLen := bw.n
	trailerOff := prologueSize + deflateLen
	total := trailerOff + blockTrailerSize
	if total > BGZFMaxBlockSize {
		return usageError(ErrBlockTooLarge, "write")
	}

	crc := crc32.ChecksumIEEE(b.decompressed[:payload])
	binary.LittleEndian.PutUint32(b.compressed[trailerOff:trailerOff+4], crc)
	binary.LittleEndian.PutUint32(b.compressed[trailerOff+4:trailerOff+8], uint32(payload))
	backpatchBSIZE(b.compressed, total)

	if _, err := e.dst.Write(b.compressed[:total]); err != nil {
		return errors.Wrap(err, "write block")
	}
	e.pos += int64(total)

	return b.resetForWrite(e.pos)
}

func (e *encoder) wrapDeflateErr(err error) error {
	if errors.Is(err, ErrBlockTooLarge) {
		return err
	}
	return wrapDataError(KindCodecFailure, "deflate", err)
}

// close flushes a partial final block (if any) and unconditionally appends
// the literal EOF block.
func (e *encoder) close() error {
	if e.blk.offset.BlockOffset() > 0 {
		if err := e.writeBlock(); err != nil {
			return err
		}
	}
	if _, err := e.dst.Write(eofMarker[:]); err != nil {
		return errors.Wrap(err, "write eof marker")
	}
	e.pos += int64(len(eofMarker))
	e.blk.end()
	return nil
}
