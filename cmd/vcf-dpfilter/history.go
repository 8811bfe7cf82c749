package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vcf-dpfilter/internal/depth"
	"github.com/inodb/vcf-dpfilter/internal/duckdb"
)

func newHistoryCmd(v *viper.Viper) *cobra.Command {
	var (
		limit int
		clearAll bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded filtering runs",
		Long:  "List runs recorded in the DuckDB database given by --history-db (or the history-db config key).",
		Example: `  vcf-dpfilter history --history-db ~/runs.duckdb
  vcf-dpfilter history --limit 5
  vcf-dpfilter history --clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, v.GetString("history-db"), limit, clearAll)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete all recorded runs")

	return cmd
}

func runHistory(cmd *cobra.Command, dbPath string, limit int, clearAll bool) error {
	if dbPath == "" {
		return &usageError{err: errors.New("no history database configured; use --history-db or 'vcf-dpfilter config set history-db <path>'")}
	}

	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	total, err := store.RunCount()
	if err != nil {
		return err
	}

	if clearAll {
		if err := store.ClearRuns(); err != nil {
			return fmt.Errorf("clear runs: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d runs from %s\n", total, store.Path())
		return nil
	}

	if total == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No runs recorded in %s\n", store.Path())
		return nil
	}

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tINPUT\tOUTPUT\tMIN\tMAX\tTOTAL\tPASSED\tFAILED\tELAPSED\tNOTE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime),
			r.Input.Path,
			r.OutputPath,
			r.MinDepth,
			formatMaxDepth(r.MaxDepth),
			r.Total,
			r.Passed,
			r.Failed,
			r.Duration().Round(time.Millisecond),
			lo.Ternary(r.Truncated, "truncated input", ""),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d runs in %s\n", len(runs), total, store.Path())
	return nil
}

func formatMaxDepth(d int64) string {
	if d == int64(depth.Unbounded) {
		return "unlimited"
	}
	return strconv.FormatInt(d, 10)
}
