package bgzf

import "github.com/go-faster/errors"

// blockOffsetBits is the width reserved for the in-block offset in a
// packed VirtualOffset; the remaining high bits hold the file offset.
const blockOffsetBits = 16

// VirtualOffset addresses a single byte within a BGZF stream: the file
// offset of the enclosing block's first byte packed into the high 48 bits,
// and a byte index into that block's decompressed payload packed into the
// low 16 bits. Because the packing puts file_offset above block_offset,
// plain numeric comparison of two VirtualOffsets already gives the total
// ordering by (file_offset, block_offset).
type VirtualOffset uint64

// MakeVirtualOffset packs a file offset and an in-block offset into a
// VirtualOffset. It fails if blockOffset does not fit in [0, 65536).
func MakeVirtualOffset(fileOffset int64, blockOffset int) (VirtualOffset, error) {
	if fileOffset < 0 {
		return 0, errors.Errorf("bgzf: negative file offset %d", fileOffset)
	}
	if blockOffset < 0 || blockOffset >= BGZFMaxBlockSize {
		return 0, errors.Errorf("bgzf: in-block offset %d out of range [0,%d)", blockOffset, BGZFMaxBlockSize)
	}
	return VirtualOffset(uint64(fileOffset)<<blockOffsetBits | uint64(blockOffset)), nil
}

// FileOffset returns the absolute byte position of v's enclosing block in
// the underlying stream.
func (v VirtualOffset) FileOffset() int64 {
	return int64(uint64(v) >> blockOffsetBits)
}

// BlockOffset returns the byte index into the enclosing block's
// decompressed payload.
func (v VirtualOffset) BlockOffset() int {
	return int(uint64(v) & (1<<blockOffsetBits - 1))
}

// Add returns v with its in-block offset incremented by n. The caller
// guarantees n never carries the result across a block boundary — Add
// never touches the high bits, so an oversized n silently corrupts the
// block offset rather than spilling into the file offset.
func (v VirtualOffset) Add(n int) VirtualOffset {
	const mask = 1<<blockOffsetBits - 1
	return v&^mask | (v+VirtualOffset(n))&mask
}

// Less reports whether v addresses an earlier byte than o.
func (v VirtualOffset) Less(o VirtualOffset) bool {
	return v < o
}
