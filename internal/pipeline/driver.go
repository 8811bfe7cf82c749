// Package pipeline streams VCF lines through the depth filter, copying
// header lines and surviving records to the output in input order.
package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/inodb/vcf-dpfilter/internal/depth"
	"github.com/inodb/vcf-dpfilter/internal/vcf"
)

// Evaluator decides whether a data line is kept.
type Evaluator interface {
	Evaluate(line string) depth.Verdict
}

// Summary holds the totals of a run.
type Summary struct {
	Total   int                  // data lines seen
	Passed  int                  // data lines written
	Headers int                  // header lines copied
	Reasons map[depth.Reason]int // rejected data lines by reason

	// Truncated is set when the input ended on a read error rather than EOF.
	Truncated bool
	ReadErr   error
}

// Failed returns the number of data lines dropped.
func (s Summary) Failed() int {
	return s.Total - s.Passed
}

// Driver reads lines from a source, filters data lines and writes survivors.
type Driver struct {
	eval    Evaluator
	logger  *zap.Logger
	workers int
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger for warning and debug messages.
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithWorkers sets the number of evaluation goroutines.
// Values of 1 or less process lines on the calling goroutine.
func WithWorkers(n int) Option {
	return func(d *Driver) {
		d.workers = n
	}
}

// New creates a driver that filters with eval.
func New(eval Evaluator, opts ...Option) *Driver {
	d := &Driver{
		eval:    eval,
		logger:  zap.NewNop(),
		workers: 1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Process copies header lines and records accepted by the evaluator from
// src to dst. A read error that ends src early is recorded in the summary
// and logged; it does not fail the run. Write errors and context
// cancellation stop processing and are returned.
func (d *Driver) Process(ctx context.Context, src vcf.LineSource, dst vcf.LineSink) (Summary, error) {
	s := Summary{Reasons: make(map[depth.Reason]int)}

	var err error
	if d.workers > 1 {
		err = d.processParallel(ctx, src, dst, &s)
	} else {
		err = d.processSequential(ctx, src, dst, &s)
	}
	if err != nil {
		return s, err
	}

	if rerr := src.Err(); rerr != nil {
		s.Truncated = true
		s.ReadErr = rerr
		d.logger.Warn("input ended early, keeping records read so far",
			zap.Int("lines", src.LineNumber()),
			zap.Error(rerr))
	}

	if s.Total == 0 {
		d.logger.Info("0 variants processed")
	}

	return s, nil
}

func (d *Driver) processSequential(ctx context.Context, src vcf.LineSource, dst vcf.LineSink, s *Summary) error {
	seq := 0
	for {
		if err := checkDone(ctx); err != nil {
			return err
		}
		line, ok := src.Next()
		if !ok {
			return nil
		}
		r := evaluate(d.eval, WorkItem{Seq: seq, LineNumber: src.LineNumber(), Line: line})
		seq++
		if err := d.apply(r, dst, s); err != nil {
			return err
		}
	}
}

func (d *Driver) processParallel(ctx context.Context, src vcf.LineSource, dst vcf.LineSink, s *Summary) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make(chan WorkItem, 2*runtime.NumCPU())

	go func() {
		defer close(items)
		seq := 0
		for {
			line, ok := src.Next()
			if !ok {
				return
			}
			select {
			case items <- WorkItem{Seq: seq, LineNumber: src.LineNumber(), Line: line}:
				seq++
			case <-ctx.Done():
				return
			}
		}
	}()

	results := ParallelEvaluate(d.eval, items, d.workers)

	err := OrderedCollect(results, func(r WorkResult) error {
		if err := checkDone(ctx); err != nil {
			cancel()
			return err
		}
		if err := d.apply(r, dst, s); err != nil {
			cancel()
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	return checkDone(ctx)
}

// apply writes a header or kept record and updates the counters.
func (d *Driver) apply(r WorkResult, dst vcf.LineSink, s *Summary) error {
	if r.Header {
		s.Headers++
		if err := dst.WriteLine(r.Line); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		return nil
	}

	s.Total++
	if r.Verdict.Passed() {
		if err := dst.WriteLine(r.Line); err != nil {
			return fmt.Errorf("write variant: %w", err)
		}
		s.Passed++
		return nil
	}

	s.Reasons[r.Verdict.Reason]++
	if ce := d.logger.Check(zap.DebugLevel, "variant filtered"); ce != nil {
		rec := vcf.ParseRecord(r.Line)
		ce.Write(
			zap.Int("line", r.LineNumber),
			zap.String("chrom", rec.Chrom()),
			zap.String("pos", rec.Pos()),
			zap.Stringer("reason", r.Verdict.Reason),
			zap.Int("sample", r.Verdict.Sample),
			zap.Int("depth", r.Verdict.Depth),
			zap.NamedError("cause", r.Verdict.Err))
	}
	return nil
}

func checkDone(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
