package bgzf

import (
	"compress/gzip"
	"io"

	"github.com/go-faster/errors"
)

// Convert reads a plain (non-BGZF) gzip stream from src and re-emits it as
// BGZF-framed output on dst, splitting the payload into BGZFSafeBlockSize
// chunks. This is the one place this package deliberately crosses the
// "never accept non-BGZF gzip" boundary the normal read/write path
// otherwise draws: the whole point of Convert is to turn an ordinary gzip
// file into one, matching the recompress path real BGZF tooling exposes as
// `bgzip -b`/`blockCopy`.
func Convert(dst io.Writer, src io.Reader, opts ...Option) error {
	gz, err := gzip.NewReader(src)
	if err != nil {
		return errors.Wrap(err, "open source gzip")
	}
	defer gz.Close()

	out, err := OpenWrite(dst, opts...)
	if err != nil {
		return errors.Wrap(err, "open bgzf output")
	}

	if _, err := io.Copy(out, gz); err != nil {
		out.Close()
		return errors.Wrap(err, "recompress")
	}
	return out.Close()
}
