// Package main provides the vcf-dpfilter command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vcf-dpfilter/internal/pipeline"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// usageError marks errors caused by bad flags or configuration.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	v := viper.New()
	root := newRootCmd(v)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)

	var ue *usageError
	if errors.As(err, &ue) || errors.Is(err, pipeline.ErrInputRequired) {
		fmt.Fprintf(stderr, "Run 'vcf-dpfilter --help' for usage.\n")
		return ExitUsage
	}
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, "Hint: Check that the file path is correct\n")
	}
	return ExitError
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "vcf-dpfilter",
		Short: "Filter VCF records by per-sample read depth",
		Long: `Keep only VCF records where every genotyped sample has a read depth (FORMAT DP)
within [min-depth, max-depth]. Header lines are copied unchanged. Input and output
may each be plain text or gzip-compressed (.gz), in any combination.`,
		Example: `  # Read compressed VCF, write compressed output
  vcf-dpfilter --input variants.vcf.gz --output filtered.vcf.gz --min-depth 10 --max-depth 100

  # Read compressed VCF, write uncompressed output
  vcf-dpfilter -i variants.vcf.gz -o filtered.vcf -d 10 -D 100

  # Read uncompressed VCF, write compressed output
  vcf-dpfilter -i variants.vcf -o filtered.vcf.gz -d 10`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return &usageError{err: err}
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilter(cmd, v)
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.vcf-dpfilter.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().String("history-db", "", "DuckDB file recording completed runs (disabled if empty)")

	addFilterFlags(cmd)
	bindFlags(v, cmd.PersistentFlags())
	bindFlags(v, cmd.Flags())

	cmd.AddCommand(newConfigCmd(v))
	cmd.AddCommand(newHistoryCmd(v))

	return cmd
}
