package bgzf

import (
	"bytes"
	"io"
	"os"

	"github.com/go-faster/errors"
)

// Mode names the lifecycle state a Stream is fixed into at construction.
type Mode int

const (
	ModeRead Mode = iota
	ModeWrite
	ModeAppend
)

// Stream is the byte-oriented facade built on the read
// pipeline (decoder) and write pipeline (encoder). It is not safe for
// concurrent use by multiple goroutines without external synchronization.
type Stream struct {
	mode   Mode
	closed bool
	err    error

	opts Options

	dec *decoder
	enc *encoder

	closer  io.Closer
	onClose func(io.Closer) error
}

// closeUnderlying is the onClose callback Open installs for every mode: it
// just closes the handle it's handed. A caller building a Stream directly
// over an io.Reader/io.Writer that isn't an io.Closer never gets an
// onClose at all, so Close never calls this with a nil Closer.
func closeUnderlying(c io.Closer) error { return c.Close() }

// OpenRead opens rs for BGZF decoding.
func OpenRead(rs io.ReadSeeker, opts ...Option) (*Stream, error) {
	cfg := resolveOptions(opts)
	return &Stream{mode: ModeRead, opts: cfg, dec: newDecoder(rs, cfg.Workers)}, nil
}

// OpenWrite opens w for BGZF encoding.
func OpenWrite(w io.Writer, opts ...Option) (*Stream, error) {
	return openWriteAt(w, 0, opts...)
}

// openWriteAt is OpenWrite generalized to a nonzero starting file offset,
// needed by Open's append path: the encoder's VirtualOffset accounting
// must start from where the underlying file already stood, not from 0.
func openWriteAt(w io.Writer, startOffset int64, opts ...Option) (*Stream, error) {
	cfg := resolveOptions(opts)
	enc, err := newEncoder(w, cfg.CompressionLevel, startOffset)
	if err != nil {
		return nil, err
	}
	return &Stream{mode: ModeWrite, opts: cfg, enc: enc}, nil
}

// Open is the path-based convenience constructor.
// flag is "r" (read), "w" (write, truncating), or "a" (append).
//
// Append strips a pre-existing trailing EOF marker before resuming writes
// and re-emits it on Close — see DESIGN.md's resolution of the
// open question.
func Open(path string, flag string, opts ...Option) (*Stream, error) {
	switch flag {
	case "r":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		s, err := OpenRead(f, opts...)
		if err != nil {
			f.Close()
			return nil, err
		}
		s.closer = f
		s.onClose = closeUnderlying
		return s, nil

	case "w":
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		s, err := OpenWrite(f, opts...)
		if err != nil {
			f.Close()
			return nil, err
		}
		s.closer = f
		s.onClose = closeUnderlying
		return s, nil

	case "a":
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			return nil, err
		}
		if err := stripTrailingEOFMarker(f); err != nil {
			f.Close()
			return nil, err
		}
		end, err := f.Seek(0, io.SeekEnd)
		if err != nil {
			f.Close()
			return nil, err
		}
		s, err := openWriteAt(f, end, opts...)
		if err != nil {
			f.Close()
			return nil, err
		}
		s.mode = ModeAppend
		s.closer = f
		s.onClose = closeUnderlying
		return s, nil

	default:
		return nil, errors.Errorf("bgzf: invalid open mode %q", flag)
	}
}

// stripTrailingEOFMarker removes the EOF block a well-formed BGZF file
// ends with, so append mode can resume the deflate block sequence instead
// of leaving a stray EOF marker in the middle of the file.
func stripTrailingEOFMarker(f *os.File) error {
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	if fi.Size() < int64(len(eofMarker)) {
		return nil
	}
	var tail [len(eofMarker)]byte
	if _, err := f.ReadAt(tail[:], fi.Size()-int64(len(eofMarker))); err != nil {
		return err
	}
	if !bytes.Equal(tail[:], eofMarker[:]) {
		return nil
	}
	return f.Truncate(fi.Size() - int64(len(eofMarker)))
}

// Options returns the effective configuration this Stream was opened
// with.
func (s *Stream) Options() Options { return s.opts }

// IsOpen reports whether Close has not yet been called.
func (s *Stream) IsOpen() bool { return !s.closed }

// ReadByte implements read_byte.
func (s *Stream) ReadByte() (byte, error) {
	if err := s.checkReadable(); err != nil {
		return 0, err
	}
	c, err := s.dec.readByte()
	s.latch(err)
	return c, err
}

// ReadFull implements read_exact.
func (s *Stream) ReadFull(dst []byte) (int, error) {
	if err := s.checkReadable(); err != nil {
		return 0, err
	}
	n, err := s.dec.readFull(dst)
	s.latch(err)
	return n, err
}

// Read implements io.Reader with ordinary partial-read semantics, for
// ergonomic use with io.Copy and friends.
func (s *Stream) Read(p []byte) (int, error) {
	if err := s.checkReadable(); err != nil {
		return 0, err
	}
	n, err := s.dec.read(p)
	s.latch(err)
	return n, err
}

// WriteByte implements write_byte.
func (s *Stream) WriteByte(c byte) error {
	if err := s.checkWritable(); err != nil {
		return err
	}
	err := s.enc.writeByte(c)
	s.latch(err)
	return err
}

// Write implements write_all and io.Writer.
func (s *Stream) Write(p []byte) (int, error) {
	if err := s.checkWritable(); err != nil {
		return 0, err
	}
	n, err := s.enc.write(p)
	s.latch(err)
	return n, err
}

// Eof reports whether the stream is exhausted. Write-mode streams always
// report true.
func (s *Stream) Eof() bool {
	if s.closed || s.mode != ModeRead {
		return true
	}
	return s.dec.eof()
}

// Tell returns the current virtual offset.
func (s *Stream) Tell() VirtualOffset {
	if s.mode == ModeRead {
		return s.dec.tell()
	}
	return s.enc.blk.offset
}

// Seek repositions a read-mode stream to a previously recorded virtual
// offset. Legal only for read-mode streams.
func (s *Stream) Seek(v VirtualOffset) error {
	if s.closed {
		return usageError(ErrStreamClosed, "seek")
	}
	if s.mode != ModeRead {
		return usageError(ErrNotSeekable, "seek")
	}
	err := s.dec.seek(v)
	s.latch(err)
	return err
}

// Flush flushes the underlying stream only. A buffered partial block is
// deliberately left unflushed — forcing it out would emit an undersized
// block and break downstream seek semantics. Callers needing a durable
// checkpoint must Close.
func (s *Stream) Flush() error {
	if s.closed {
		return usageError(ErrStreamClosed, "flush")
	}
	if s.mode == ModeRead {
		return usageError(ErrNotWritable, "flush")
	}
	switch f := s.enc.dst.(type) {
	case interface{ Sync() error }:
		return f.Sync()
	case interface{ Flush() error }:
		return f.Flush()
	}
	return nil
}

// Close releases the stream's resources. Call exactly once; idempotence not
// required.
func (s *Stream) Close() error {
	if s.closed {
		return usageError(ErrStreamClosed, "close")
	}
	s.closed = true

	var err error
	if s.mode == ModeRead {
		for _, b := range s.dec.blocks {
			b.end()
		}
	} else {
		err = s.enc.close()
	}

	if s.onClose != nil {
		if closeErr := s.onClose(s.closer); err == nil {
			err = closeErr
		}
	}
	return err
}

func (s *Stream) checkReadable() error {
	if s.closed {
		return usageError(ErrStreamClosed, "read")
	}
	if s.mode != ModeRead {
		return usageError(ErrNotReadable, "read")
	}
	if s.err != nil {
		return s.err
	}
	return nil
}

func (s *Stream) checkWritable() error {
	if s.closed {
		return usageError(ErrStreamClosed, "write")
	}
	if s.mode == ModeRead {
		return usageError(ErrNotWritable, "write")
	}
	if s.err != nil {
		return s.err
	}
	return nil
}

// latch records the first error encountered (data, I/O or usage error
// alike) so that every subsequent read or write on a failed stream returns
// the same error instead of retrying. io.EOF and io.ErrUnexpectedEOF are not
// latched: a read-mode stream that has reached EOF is not broken, just
// exhausted.
func (s *Stream) latch(err error) {
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return
	}
	if s.err == nil {
		s.err = err
	}
}
