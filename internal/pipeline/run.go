package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/inodb/vcf-dpfilter/internal/depth"
	"github.com/inodb/vcf-dpfilter/internal/vcf"
)

// DefaultOutputPrefix is prepended to the input file name when no output is given.
const DefaultOutputPrefix = "filtered_"

// ErrInputRequired is returned when no input path is configured.
var ErrInputRequired = errors.New("input file is required")

// Config describes a single filtering run.
type Config struct {
	InputPath  string
	OutputPath string // empty means DefaultOutputPath(InputPath)
	Depth      depth.Config
	Workers    int

	// Stdin and Stdout back the "-" paths; nil means os.Stdin and os.Stdout.
	Stdin  io.Reader
	Stdout io.Writer
}

// DefaultOutputPath returns the output used when none is configured:
// the input's file name prefixed with "filtered_", in the same directory.
// Stdin input defaults to stdout.
func DefaultOutputPath(input string) string {
	if input == "-" {
		return "-"
	}
	dir, base := filepath.Split(input)
	return dir + DefaultOutputPrefix + base
}

// Output returns the configured output path or the default derived from the input.
func (c Config) Output() string {
	if c.OutputPath != "" {
		return c.OutputPath
	}
	return DefaultOutputPath(c.InputPath)
}

// Validate checks the configuration before any file is opened.
func (c Config) Validate() error {
	if c.InputPath == "" {
		return ErrInputRequired
	}
	if err := c.Depth.Validate(); err != nil {
		return err
	}
	if c.InputPath != "-" && filepath.Clean(c.InputPath) == filepath.Clean(c.Output()) {
		return fmt.Errorf("output file %s would overwrite the input", c.Output())
	}
	return nil
}

// Run opens the configured input and output, filters every line and closes
// both files on all paths. Open failures are returned as *vcf.OpenError.
func Run(ctx context.Context, cfg Config, opts ...Option) (s Summary, err error) {
	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}

	r, err := cfg.openInput()
	if err != nil {
		return Summary{}, err
	}
	defer closeInto(&err, r)

	w, err := cfg.openOutput()
	if err != nil {
		return Summary{}, err
	}
	defer closeInto(&err, w)

	opts = append([]Option{WithWorkers(cfg.Workers)}, opts...)
	d := New(depth.NewFilter(cfg.Depth), opts...)
	d.logger.Debug("filtering",
		zap.String("input", r.Path()),
		zap.String("output", w.Path()),
		zap.Bool("compressed_input", vcf.IsCompressed(r.Path())),
		zap.Bool("compressed_output", vcf.IsCompressed(w.Path())),
		zap.Int("workers", d.workers))

	return d.Process(ctx, r, w)
}

func (c Config) openInput() (*vcf.LineReader, error) {
	if c.InputPath == "-" && c.Stdin != nil {
		return vcf.NewLineReader(c.Stdin), nil
	}
	return vcf.OpenReader(c.InputPath)
}

func (c Config) openOutput() (*vcf.LineWriter, error) {
	if c.Output() == "-" && c.Stdout != nil {
		return vcf.NewLineWriter(c.Stdout), nil
	}
	return vcf.OpenWriter(c.Output())
}

// closeInto closes c and stores its error in *err unless *err is already set.
func closeInto(err *error, c io.Closer) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
