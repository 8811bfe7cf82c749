package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/vcf-dpfilter/internal/depth"
	"github.com/inodb/vcf-dpfilter/internal/vcf"
)

var sampleLines = []string{
	"##fileformat=VCFv4.2",
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1",
	"1\t100\t.\tA\tT\t50\tPASS\t.\tGT:DP\t0/1:15",
	"1\t200\t.\tA\tT\t50\tPASS\t.\tGT:DP\t0/1:5",
	"1\t300\t.\tA\tT\t50\tPASS\t.\tGT:DP\t./.:5",
	"1\t400\t.\tA\tT\t50\tPASS\t.\tGT\t0/1",
}

var wantLines = []string{sampleLines[0], sampleLines[1], sampleLines[2], sampleLines[4]}

func writeInput(t *testing.T, path string, lines []string) {
	t.Helper()
	w, err := vcf.OpenWriter(path)
	require.NoError(t, err)
	for _, line := range lines {
		require.NoError(t, w.WriteLine(line))
	}
	require.NoError(t, w.Close())
}

func readOutput(t *testing.T, path string) []string {
	t.Helper()
	r, err := vcf.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	var lines []string
	for {
		line, ok := r.Next()
		if !ok {
			break
		}
		lines = append(lines, line)
	}
	require.NoError(t, r.Err())
	return lines
}

func TestRun_CompressionCombinations(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"in.vcf", "out.vcf"},
		{"in.vcf", "out.vcf.gz"},
		{"in.vcf.gz", "out.vcf"},
		{"in.vcf.gz", "out.vcf.gz"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.in, tt.out), func(t *testing.T) {
			dir := t.TempDir()
			in := filepath.Join(dir, tt.in)
			out := filepath.Join(dir, tt.out)
			writeInput(t, in, sampleLines)

			s, err := Run(context.Background(), Config{
				InputPath:  in,
				OutputPath: out,
				Depth:      depth.Config{MinDepth: 10, MaxDepth: 20},
			})
			require.NoError(t, err)

			assert.Equal(t, 4, s.Total)
			assert.Equal(t, 2, s.Passed)
			assert.Equal(t, 2, s.Failed())
			assert.Equal(t, wantLines, readOutput(t, out))
		})
	}
}

func TestRun_Workers(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.vcf.gz")
	out := filepath.Join(dir, "out.vcf")
	writeInput(t, in, sampleLines)

	s, err := Run(context.Background(), Config{
		InputPath:  in,
		OutputPath: out,
		Depth:      depth.Config{MinDepth: 10, MaxDepth: 20},
		Workers:    4,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Passed)
	assert.Equal(t, wantLines, readOutput(t, out))
}

func TestRun_DefaultOutputPath(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "calls.vcf.gz")
	writeInput(t, in, sampleLines)

	_, err := Run(context.Background(), Config{InputPath: in, Depth: depth.DefaultConfig()})
	require.NoError(t, err)

	out := filepath.Join(dir, "filtered_calls.vcf.gz")
	assert.FileExists(t, out)
	// Default range keeps every record that has a readable depth.
	assert.Equal(t, sampleLines[:5], readOutput(t, out))
}

func TestRun_Stdio(t *testing.T) {
	in := strings.Join(sampleLines, "\n") + "\n"
	var out bytes.Buffer

	s, err := Run(context.Background(), Config{
		InputPath: "-",
		Depth:     depth.Config{MinDepth: 10, MaxDepth: 20},
		Stdin:     strings.NewReader(in),
		Stdout:    &out,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, strings.Join(wantLines, "\n")+"\n", out.String())
}

func TestRun_LogsStreams(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.vcf.gz")
	out := filepath.Join(dir, "out.vcf")
	writeInput(t, in, sampleLines)

	core, logs := observer.New(zapcore.DebugLevel)
	_, err := Run(context.Background(), Config{InputPath: in, OutputPath: out, Depth: depth.DefaultConfig(), Workers: 3},
		WithLogger(zap.New(core)))
	require.NoError(t, err)

	entries := logs.FilterMessage("filtering").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, in, fields["input"])
	assert.Equal(t, out, fields["output"])
	assert.Equal(t, true, fields["compressed_input"])
	assert.Equal(t, false, fields["compressed_output"])
	assert.Equal(t, int64(3), fields["workers"])
}

func TestRun_TruncatedInput(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "full.vcf.gz")

	lines := []string{"##fileformat=VCFv4.2"}
	for i := 0; i < 5000; i++ {
		lines = append(lines, fmt.Sprintf("%d\t%d\t.\tA\tT\t%d\tPASS\t.\tGT:DP\t0/1:%d", i%22+1, i*7919, i%97, i%211))
	}
	writeInput(t, full, lines)

	raw, err := os.ReadFile(full)
	require.NoError(t, err)
	in := filepath.Join(dir, "truncated.vcf.gz")
	require.NoError(t, os.WriteFile(in, raw[:len(raw)/2], 0644))

	out := filepath.Join(dir, "out.vcf")
	s, err := Run(context.Background(), Config{InputPath: in, OutputPath: out, Depth: depth.DefaultConfig()})
	require.NoError(t, err)

	assert.True(t, s.Truncated)
	assert.Error(t, s.ReadErr)
	assert.Greater(t, s.Total, 0)
	assert.Less(t, s.Total, 5000)
	assert.Equal(t, s.Total, s.Passed)

	got := readOutput(t, out)
	assert.Equal(t, lines[:len(got)], got)
}

func TestRun_InputRequired(t *testing.T) {
	_, err := Run(context.Background(), Config{Depth: depth.DefaultConfig()})
	assert.ErrorIs(t, err, ErrInputRequired)
}

func TestRun_InvalidRange(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.vcf")

	_, err := Run(context.Background(), Config{
		InputPath:  filepath.Join(dir, "in.vcf"),
		OutputPath: out,
		Depth:      depth.Config{MinDepth: 30, MaxDepth: 20},
	})
	require.Error(t, err)
	assert.NoFileExists(t, out)
}

func TestRun_MissingInput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.vcf")

	_, err := Run(context.Background(), Config{
		InputPath:  filepath.Join(dir, "missing.vcf"),
		OutputPath: out,
		Depth:      depth.DefaultConfig(),
	})
	require.Error(t, err)

	var oe *vcf.OpenError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "read", oe.Op)
	assert.NoFileExists(t, out)
}

func TestRun_UncreatableOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.vcf")
	writeInput(t, in, sampleLines)

	_, err := Run(context.Background(), Config{
		InputPath:  in,
		OutputPath: filepath.Join(dir, "missing", "out.vcf"),
		Depth:      depth.DefaultConfig(),
	})
	require.Error(t, err)

	var oe *vcf.OpenError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "write", oe.Op)
}

func TestRun_RefusesToOverwriteInput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.vcf")
	writeInput(t, in, sampleLines)

	_, err := Run(context.Background(), Config{
		InputPath:  in,
		OutputPath: filepath.Join(dir, ".", "in.vcf"),
		Depth:      depth.DefaultConfig(),
	})
	require.Error(t, err)
	assert.Equal(t, sampleLines, readOutput(t, in))
}

func TestDefaultOutputPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"variants.vcf", "filtered_variants.vcf"},
		{"variants.vcf.gz", "filtered_variants.vcf.gz"},
		{"/data/run1/variants.vcf", "/data/run1/filtered_variants.vcf"},
		{"run1/variants.vcf.gz", "run1/filtered_variants.vcf.gz"},
		{"-", "-"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultOutputPath(tt.in))
		})
	}
}

func TestConfig_Output(t *testing.T) {
	assert.Equal(t, "filtered_a.vcf", Config{InputPath: "a.vcf"}.Output())
	assert.Equal(t, "b.vcf.gz", Config{InputPath: "a.vcf", OutputPath: "b.vcf.gz"}.Output())
}
