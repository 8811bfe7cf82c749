// Package output provides run banner and summary formatters.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/inodb/vcf-dpfilter/internal/depth"
	"github.com/inodb/vcf-dpfilter/internal/pipeline"
)

// WriteBanner writes the run settings shown before processing starts.
func WriteBanner(w io.Writer, cfg pipeline.Config) error {
	_, err := fmt.Fprintf(w, `VCF Depth Filter
Input file: %s
Output file: %s
Min depth: %d
Max depth: %s

Processing...
`, cfg.InputPath, cfg.Output(), cfg.Depth.MinDepth, cfg.Depth.MaxString())
	return err
}

// WriteSummary writes the human-readable totals of a completed run.
func WriteSummary(w io.Writer, s pipeline.Summary, outputPath string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Filtering complete:\n")
	fmt.Fprintf(bw, "Total variants: %d\n", s.Total)
	fmt.Fprintf(bw, "Passed variants: %d\n", s.Passed)
	fmt.Fprintf(bw, "Filtered variants: %d\n", s.Failed())
	fmt.Fprintf(bw, "Output written to: %s\n", outputPath)
	if s.Truncated {
		fmt.Fprintf(bw, "Warning: input ended early (%v); totals cover the lines read before the error\n", s.ReadErr)
	}
	return bw.Flush()
}

// StatsWriter writes run totals as two-column key/value TSV.
type StatsWriter struct {
	w *bufio.Writer
}

// NewStatsWriter creates a new TSV stats writer.
func NewStatsWriter(w io.Writer) *StatsWriter {
	return &StatsWriter{w: bufio.NewWriter(w)}
}

// Write writes one row per counter, including every filter reason.
func (sw *StatsWriter) Write(s pipeline.Summary) error {
	rows := [][2]string{
		{"total", strconv.Itoa(s.Total)},
		{"passed", strconv.Itoa(s.Passed)},
		{"failed", strconv.Itoa(s.Failed())},
		{"headers", strconv.Itoa(s.Headers)},
	}
	for _, r := range depth.Reasons {
		if r == depth.Pass {
			continue
		}
		rows = append(rows, [2]string{r.String(), strconv.Itoa(s.Reasons[r])})
	}
	rows = append(rows, [2]string{"truncated", strconv.FormatBool(s.Truncated)})

	if _, err := sw.w.WriteString("#key\tvalue\n"); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := sw.w.WriteString(r[0] + "\t" + r[1] + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data.
func (sw *StatsWriter) Flush() error {
	return sw.w.Flush()
}
