package bgzf

import (
	"encoding/binary"
	"io"

	"github.com/go-faster/errors"
)

// BGZFMaxBlockSize is the hard ceiling on a BGZF block's size, both on disk
// and decompressed: 64 KiB.
const BGZFMaxBlockSize = 1 << 16

// BGZFSafeBlockSize is the largest payload write-mode will buffer before
// flushing a block. The 256-byte margin below BGZFMaxBlockSize absorbs the
// worst-case deflate expansion of incompressible input plus the 18-byte
// prologue and 8-byte trailer, guaranteeing every block emitted from a
// payload this size or smaller still fits in BGZFMaxBlockSize bytes on
// disk.
const BGZFSafeBlockSize = BGZFMaxBlockSize - 256

const (
	gzipID1      = 0x1f
	gzipID2      = 0x8b
	gzipCM       = 0x08
	gzipFlgExtra = 0x04

	bgzfSI1  = 'B'
	bgzfSI2  = 'C'
	bgzfSLen = 2

	fixedHeaderSize = 10 // ID1 ID2 CM FLG MTIME(4) XFL OS
	xlenFieldSize   = 2
	blockTrailerSize = 8 // CRC32(4) + ISIZE(4)

	// bgzfXLen is the XLEN of a block carrying exactly one BGZF marker
	// subfield and nothing else: SI1 SI2 SLEN(2) BSIZE(2).
	bgzfXLen = 6

	// prologueSize is the length of the fixed header + extra-field region
	// this package always emits: fixedHeaderSize + xlenFieldSize + bgzfXLen.
	prologueSize = fixedHeaderSize + xlenFieldSize + bgzfXLen

	// bsizeOffset is the byte offset of the little-endian BSIZE field
	// within the prologue.
	bsizeOffset = prologueSize - 2
)

// prologueTemplate is the 18-byte header this package writes for every
// block it produces, with the BSIZE field left as a zero placeholder to be
// backpatched once the compressed length is known:
//
//	1f 8b 08 04 00 00 00 00 00 ff 06 00 42 43 02 00 <BSIZE_lo> <BSIZE_hi>
var prologueTemplate = [prologueSize]byte{
	gzipID1, gzipID2, gzipCM, gzipFlgExtra,
	0x00, 0x00, 0x00, 0x00, // MTIME
	0x00,             // XFL
	0xff,             // OS (unknown)
	byte(bgzfXLen), 0, // XLEN, little-endian
	bgzfSI1, bgzfSI2,
	byte(bgzfSLen), 0, // SLEN, little-endian
	0x00, 0x00, // BSIZE placeholder
}

// eofMarker is the canonical empty BGZF block that terminates every
// well-formed BGZF stream. A reader must compare the raw bytes it read
// against this literal, not the (always-empty) decompressed payload, or it
// would accept any empty block as a valid end-of-file signal.
var eofMarker = [28]byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff,
	0x06, 0x00, 0x42, 0x43, 0x02, 0x00, 0x1b, 0x00,
	0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// writePrologue writes the fixed 18-byte header into the start of buf.
func writePrologue(buf []byte) {
	copy(buf, prologueTemplate[:])
}

// backpatchBSIZE writes BSIZE = totalSize-1 into a prologue already
// written by writePrologue.
func backpatchBSIZE(buf []byte, totalSize int) {
	binary.LittleEndian.PutUint16(buf[bsizeOffset:bsizeOffset+2], uint16(totalSize-1))
}

// readRawBlock reads exactly one on-wire BGZF block from r into buf and
// reports where within buf the raw DEFLATE stream starts and how long it
// is. buf must have capacity BGZFMaxBlockSize. Returns io.EOF (unwrapped)
// only when r is exhausted before any byte of a new block was read;
// any other short read is a framing error, never a silent EOF.
func readRawBlock(r io.Reader, buf []byte) (n, deflateOff, deflateLen int, err error) {
	var fixed [fixedHeaderSize + xlenFieldSize]byte
	if _, err = io.ReadFull(r, fixed[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return 0, 0, 0, framingError("truncated header")
		}
		return 0, 0, 0, err
	}
	if fixed[0] != gzipID1 || fixed[1] != gzipID2 || fixed[2] != gzipCM {
		return 0, 0, 0, framingError("bad magic")
	}
	if fixed[3]&gzipFlgExtra == 0 {
		return 0, 0, 0, framingError("bad flag")
	}

	xlen := int(binary.LittleEndian.Uint16(fixed[fixedHeaderSize:]))
	headerLen := fixedHeaderSize + xlenFieldSize + xlen
	if headerLen+blockTrailerSize > len(buf) {
		return 0, 0, 0, framingError("bad subfield length")
	}
	copy(buf, fixed[:])
	if _, err = io.ReadFull(r, buf[fixedHeaderSize+xlenFieldSize:headerLen]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, 0, 0, framingError("truncated extra field")
		}
		return 0, 0, 0, errors.Wrap(err, "read extra field")
	}

	bsize, err := parseBSIZE(buf[fixedHeaderSize+xlenFieldSize : headerLen])
	if err != nil {
		return 0, 0, 0, err
	}

	total := bsize + 1
	if total > len(buf) || total < headerLen+blockTrailerSize {
		return 0, 0, 0, framingError("bad subfield length")
	}
	if _, err = io.ReadFull(r, buf[headerLen:total]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, 0, 0, framingError("truncated block body")
		}
		return 0, 0, 0, errors.Wrap(err, "read block body")
	}

	return total, headerLen, total - headerLen - blockTrailerSize, nil
}

// parseBSIZE scans a gzip extra field for the BGZF marker subfield
// (SI1=0x42, SI2=0x43, SLEN=2) and returns its BSIZE payload. Unknown
// subfields are skipped.
func parseBSIZE(extra []byte) (int, error) {
	bsize := -1
	for i := 0; i+4 <= len(extra); {
		slen := int(binary.LittleEndian.Uint16(extra[i+2 : i+4]))
		if i+4+slen > len(extra) {
			return 0, framingError("bad subfield length")
		}
		if extra[i] == bgzfSI1 && extra[i+1] == bgzfSI2 {
			if slen != bgzfSLen {
				return 0, framingError("bad subfield length")
			}
			bsize = int(binary.LittleEndian.Uint16(extra[i+4 : i+6]))
		}
		i += 4 + slen
	}
	if bsize <= 0 {
		return 0, framingError("missing BSIZE")
	}
	return bsize, nil
}

// isEOFMarker reports whether the raw bytes of a just-read block are
// byte-for-byte the canonical EOF marker.
func isEOFMarker(raw []byte) bool {
	return len(raw) == len(eofMarker) && [28]byte(raw) == eofMarker
}
