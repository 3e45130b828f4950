package bgzf

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// String renders v in the "coffset:uoffset" form used for debug output and
// for persisting virtual offsets inside an on-disk index (the BAM/CSI
// index convention; samtools prints offsets the same way).
func (v VirtualOffset) String() string {
	return strconv.FormatInt(v.FileOffset(), 10) + ":" + strconv.Itoa(v.BlockOffset())
}

// ParseOffset parses the textual form produced by VirtualOffset.String.
func ParseOffset(s string) (VirtualOffset, error) {
	coffset, uoffset, ok := strings.Cut(s, ":")
	if !ok {
		return 0, errors.Errorf("bgzf: invalid virtual offset %q", s)
	}
	fo, err := strconv.ParseInt(coffset, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "file offset")
	}
	bo, err := strconv.Atoi(uoffset)
	if err != nil {
		return 0, errors.Wrap(err, "block offset")
	}
	return MakeVirtualOffset(fo, bo)
}
