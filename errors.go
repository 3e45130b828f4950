package bgzf

import "github.com/go-faster/errors"

// Sentinel errors for the usage-error family: caller-contract violations
// that are always programmer mistakes, never a property of the bytes on
// the wire. Callers compare against these with errors.Is, or recover the
// attempted operation by doing errors.As into a *UsageError.
var (
	ErrStreamClosed  = errors.New("bgzf: stream closed")
	ErrNotReadable   = errors.New("bgzf: stream not readable")
	ErrNotWritable   = errors.New("bgzf: stream not writable")
	ErrNotSeekable   = errors.New("bgzf: stream not seekable")
	ErrInvalidOffset = errors.New("bgzf: invalid in-block offset")
	ErrBlockTooLarge = errors.New("bgzf: block too large")
)

// Sentinel errors for the data-error family: failures caused by untrusted
// input. A stream that returns one of these from a read latches into a
// failed state; no retry is attempted at this layer. Callers recover the
// specific Kind and, where one exists, the underlying cause by doing
// errors.As into a *DataError.
var (
	ErrFraming       = errors.New("bgzf: framing error")
	ErrTruncatedFile = errors.New("bgzf: truncated file")
	ErrCodecFailure  = errors.New("bgzf: codec failure")
)

// Kind classifies a DataError by which on-wire invariant it violated.
type Kind int

const (
	KindFraming Kind = iota
	KindTruncated
	KindCodecFailure
)

func (k Kind) sentinel() error {
	switch k {
	case KindFraming:
		return ErrFraming
	case KindTruncated:
		return ErrTruncatedFile
	case KindCodecFailure:
		return ErrCodecFailure
	default:
		return nil
	}
}

func (k Kind) String() string {
	switch k {
	case KindFraming:
		return "framing"
	case KindTruncated:
		return "truncated"
	case KindCodecFailure:
		return "codec"
	default:
		return "unknown"
	}
}

// DataError reports a failure caused by the bytes read from the
// underlying stream, as opposed to a caller contract violation: a
// malformed block header, a stream missing its EOF marker, or a failure
// from the DEFLATE/INFLATE primitive. Kind identifies which of those and
// Msg carries the specific reason. Err is the underlying I/O or codec
// error, when the failure was caused by one rather than by a framing
// mismatch detected directly against the bytes read.
type DataError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *DataError) Error() string {
	cause := e.Err
	if cause == nil {
		cause = e.Kind.sentinel()
	}
	return errors.Wrap(cause, e.Msg).Error()
}

// Unwrap exposes the underlying I/O/codec error, when this DataError was
// built from one; nil otherwise.
func (e *DataError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFraming) (and friends) keep working against a
// *DataError without depending on Err being non-nil.
func (e *DataError) Is(target error) bool { return target == e.Kind.sentinel() }

func dataError(kind Kind, msg string) *DataError {
	return &DataError{Kind: kind, Msg: msg}
}

func wrapDataError(kind Kind, msg string, cause error) *DataError {
	return &DataError{Kind: kind, Msg: msg, Err: cause}
}

// framingError builds a DataError for the bad-magic/bad-flag/
// bad-subfield-length/missing-BSIZE taxonomy of the on-wire format.
func framingError(reason string) error {
	return dataError(KindFraming, reason)
}

// UsageError reports a caller contract violation: an operation attempted
// on a Stream whose mode or lifecycle state forbids it. Op names the
// attempted operation ("read", "write", "seek", "close", "flush", ...).
type UsageError struct {
	Op  string
	err error
}

func (e *UsageError) Error() string { return e.err.Error() }

// Unwrap exposes the wrapped sentinel (ErrStreamClosed, ErrNotReadable,
// ErrNotWritable, ErrNotSeekable, ErrInvalidOffset, or ErrBlockTooLarge)
// so errors.Is keeps working against it.
func (e *UsageError) Unwrap() error { return e.err }

func usageError(sentinel error, op string) *UsageError {
	return &UsageError{Op: op, err: errors.Wrap(sentinel, op)}
}

// usageErrorf builds a UsageError whose message carries a more specific
// reason than the bare operation name, without changing what Op reports.
func usageErrorf(sentinel error, op, reason string) *UsageError {
	return &UsageError{Op: op, err: errors.Wrap(sentinel, reason)}
}
