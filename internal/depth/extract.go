// Package depth extracts per-sample read depth from VCF records and decides
// whether a record's samples all fall within a depth range.
package depth

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/inodb/vcf-dpfilter/internal/vcf"
)

// Key is the FORMAT key for read depth.
const Key = "DP"

// ErrNotFound is matched by every error Extract returns.
var ErrNotFound = errors.New("depth not found")

var (
	// ErrNoDepthKey means the FORMAT column has no DP key.
	ErrNoDepthKey = fmt.Errorf("%w: no %s key in FORMAT", ErrNotFound, Key)
	// ErrDepthMissing means the sample has fewer subfields than the DP position.
	ErrDepthMissing = fmt.Errorf("%w: sample has no %s subfield", ErrNotFound, Key)
	// ErrInvalidDepth means the DP subfield is not a base-10 integer.
	ErrInvalidDepth = fmt.Errorf("%w: %s is not an integer", ErrNotFound, Key)
)

// DepthIndex returns the position of the first DP key in a FORMAT value.
func DepthIndex(format string) (int, bool) {
	for i, key := range vcf.Split(format, vcf.SubfieldSep) {
		if key == Key {
			return i, true
		}
	}
	return -1, false
}

// SampleDepth parses the subfield at index idx of a sample value.
// The whole subfield must be a base-10 integer: values with a numeric
// prefix only, such as "15.0", "15x" or " 15", are rejected rather than
// read as 15.
func SampleDepth(sample string, idx int) (int, error) {
	if idx < 0 {
		return 0, ErrNoDepthKey
	}
	subfields := vcf.Split(sample, vcf.SubfieldSep)
	if idx >= len(subfields) {
		return 0, ErrDepthMissing
	}
	d, err := strconv.Atoi(subfields[idx])
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidDepth, err)
	}
	return d, nil
}

// Extract returns the DP value of sample as laid out by format.
// A missing key, a short sample, or an unparsable value all yield an
// error matching ErrNotFound. Negative values parse successfully.
func Extract(format, sample string) (int, error) {
	idx, ok := DepthIndex(format)
	if !ok {
		return 0, ErrNoDepthKey
	}
	return SampleDepth(sample, idx)
}
