package depth

import (
	"fmt"
	"math"
	"strconv"

	"github.com/samber/lo"

	"github.com/inodb/vcf-dpfilter/internal/vcf"
)

// Unbounded is the MaxDepth value meaning "no upper limit".
const Unbounded = math.MaxInt

// Config is an inclusive depth range.
type Config struct {
	MinDepth int
	MaxDepth int
}

// DefaultConfig returns the range [0, Unbounded].
func DefaultConfig() Config {
	return Config{MinDepth: 0, MaxDepth: Unbounded}
}

// Validate checks that the range is not empty.
func (c Config) Validate() error {
	if c.MinDepth > c.MaxDepth {
		return fmt.Errorf("min depth %d exceeds max depth %d", c.MinDepth, c.MaxDepth)
	}
	return nil
}

// Contains reports whether d lies within [MinDepth, MaxDepth].
func (c Config) Contains(d int) bool {
	return d >= c.MinDepth && d <= c.MaxDepth
}

// MaxString renders MaxDepth, using "unlimited" for Unbounded.
func (c Config) MaxString() string {
	if c.MaxDepth == Unbounded {
		return "unlimited"
	}
	return strconv.Itoa(c.MaxDepth)
}

// Reason explains a filter decision.
type Reason int

const (
	Pass Reason = iota
	TooFewFields
	DepthNotFound
	BelowMin
	AboveMax
)

// Reasons lists every Reason in declaration order.
var Reasons = []Reason{Pass, TooFewFields, DepthNotFound, BelowMin, AboveMax}

func (r Reason) String() string {
	switch r {
	case Pass:
		return "pass"
	case TooFewFields:
		return "too_few_fields"
	case DepthNotFound:
		return "depth_not_found"
	case BelowMin:
		return "below_min_depth"
	case AboveMax:
		return "above_max_depth"
	default:
		return "unknown"
	}
}

// Verdict is the outcome of evaluating one record.
type Verdict struct {
	Reason Reason
	Sample int   // 0-based sample index that failed, -1 otherwise
	Depth  int   // depth of the failing sample for BelowMin/AboveMax
	Err    error // extraction error for DepthNotFound
}

// Passed reports whether the record is kept.
func (v Verdict) Passed() bool {
	return v.Reason == Pass
}

var missingGenotypes = []string{"./.", ".|.", ""}

// IsMissingGenotype reports whether gt is a no-call that carries no depth signal.
func IsMissingGenotype(gt string) bool {
	return lo.Contains(missingGenotypes, gt)
}

// Filter applies a depth range to every genotyped sample of a record.
// It holds no mutable state and is safe for concurrent use.
type Filter struct {
	cfg Config
}

// NewFilter creates a filter for the given range.
func NewFilter(cfg Config) *Filter {
	return &Filter{cfg: cfg}
}

// Config returns the filter's depth range.
func (f *Filter) Config() Config {
	return f.cfg
}

// Passes reports whether a data line is kept.
func (f *Filter) Passes(line string) bool {
	return f.Evaluate(line).Passed()
}

// Evaluate decides whether a data line is kept.
//
// Records with fewer than 10 fields fail. Samples whose genotype is
// missing are skipped. The first genotyped sample with an unreadable or
// out-of-range depth fails the whole record. A record with no genotyped
// samples passes.
func (f *Filter) Evaluate(line string) Verdict {
	rec := vcf.ParseRecord(line)
	if !rec.HasSamples() {
		return Verdict{Reason: TooFewFields, Sample: -1}
	}

	idx, _ := DepthIndex(rec.Format())

	for i, sample := range rec.Samples() {
		if IsMissingGenotype(vcf.Genotype(sample)) {
			continue
		}

		d, err := SampleDepth(sample, idx)
		if err != nil {
			return Verdict{Reason: DepthNotFound, Sample: i, Err: err}
		}
		if !f.cfg.Contains(d) {
			if d < f.cfg.MinDepth {
				return Verdict{Reason: BelowMin, Sample: i, Depth: d}
			}
			return Verdict{Reason: AboveMax, Sample: i, Depth: d}
		}
	}

	return Verdict{Reason: Pass, Sample: -1}
}
