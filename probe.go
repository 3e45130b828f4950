package bgzf

import (
	"bufio"
	"io"
)

// Probably reports whether r begins with BGZF-framed blocks, as opposed to
// a single plain gzip member: it reads one block header and checks whether
// another gzip member header immediately follows.
//
// A BGZF file is, byte-for-byte, a valid plain gzip file to any
// gzip-unaware reader, so tools that accept either a BAM/VCF.gz or a plain
// .gz need this distinction before they can choose a decompression
// strategy.
func Probably(r io.Reader) bool {
	br := bufio.NewReaderSize(r, BGZFMaxBlockSize+blockTrailerSize)
	buf := make([]byte, BGZFMaxBlockSize)

	raw, _, _, err := readRawBlock(br, buf)
	if err != nil {
		return false
	}
	if isEOFMarker(buf[:raw]) {
		// A single-block file containing only the EOF marker is, by
		// definition, a (trivial) BGZF stream.
		return true
	}

	peek, err := br.Peek(4)
	if err != nil {
		// Exactly one non-EOF block then end-of-stream: no second
		// member header follows, so the stream is not reported as BGZF.
		return false
	}
	return peek[0] == gzipID1 && peek[1] == gzipID2 && peek[2] == gzipCM && peek[3]&gzipFlgExtra != 0
}
