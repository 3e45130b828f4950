// Package bgzf implements the BGZF (Blocked GZip Format) streaming codec
// used by bioinformatics file formats such as BAM and VCF.gz: a sequence
// of independently compressed, ≤64 KiB gzip members carrying a BSIZE
// subfield, addressable at byte granularity through virtual offsets.
//
// Abstract
//
// A Stream is opened for reading or writing and never both. Reading is
// parallelized across an internal pool of blocks (see Options.Workers):
// each refill reads P blocks sequentially off the underlying stream,
// preserving on-disk order, then inflates all P in a bounded fork-join
// region before any of their bytes become visible to the reader. Writing
// is single-block — BGZF's 64 KiB granularity makes per-block write
// parallelism a poor trade against the ordering bookkeeping it would add.
//
// How to use
//
// Most uses of seeking within a BGZF stream do not need arbitrary byte
// offsets into the underlying file, only the ability to get back to a
// point in the decompressed stream that was visited before. Stream.Tell
// returns an opaque VirtualOffset for exactly that point; Stream.Seek,
// called later on a Stream opened for reading over the same bytes, gets
// back to it with a single refill of the block pool (at most P blocks of
// decompression, starting at the target block). This is the
// same two-pass pattern BAM/CSI index builders use: index while writing
// (or while scanning an existing file), persist the VirtualOffsets, seek
// back to any of them later, even in a different process.
//
// Write-mode seeking and partial-block random access mid-decompression
// are not supported — both would require either buffering arbitrarily far
// back or exposing compressor internals BGZF's own format does not carry.
//
// Description of the on-wire format
//
// A BGZF stream is a concatenation of ordinary gzip members, each no more
// than 64 KiB on disk, each carrying a custom extra subfield
// (SI1=0x42 'B', SI2=0x43 'C') whose 16-bit payload is BSIZE: the on-disk
// size of that member minus one. Because every member is independently
// compressed and bounded in size, a reader can seek straight to any
// member's first byte and decompress at most 64 KiB to reach any byte
// inside it — the same trick gzip.Writer.Flush-per-member achieves for any
// format built on repeated small gzip members, just standardized here with
// a fixed marker subfield so every BGZF-aware tool can find block
// boundaries without guessing. A stream ends with a literal, fixed,
// zero-payload BGZF block (the "EOF marker"); its absence means the file
// was truncated, not that it legitimately ran out of data.
package bgzf
