package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/vcf-dpfilter/internal/depth"
	"github.com/inodb/vcf-dpfilter/internal/duckdb"
	"github.com/inodb/vcf-dpfilter/internal/output"
	"github.com/inodb/vcf-dpfilter/internal/pipeline"
)

const (
	envPrefix      = "VCF_DPFILTER"
	configFileName = ".vcf-dpfilter"
)

func addFilterFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringP("input", "i", "", "Input VCF file, plain or .gz (required; '-' for stdin)")
	fs.StringP("output", "o", "", "Output VCF file, .gz to compress (default: filtered_<input>)")
	fs.IntP("min-depth", "d", 0, "Minimum depth threshold")
	fs.IntP("max-depth", "D", -1, "Maximum depth threshold, negative for unlimited")
	fs.IntP("threads", "t", 1, "Goroutines evaluating records (output order is preserved)")
	fs.String("stats", "", "Write run totals as TSV to this file")
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		// BindPFlag only fails for a nil flag.
		_ = v.BindPFlag(f.Name, f)
	})
}

// initConfig loads the config file and environment overrides.
// Precedence: flags > VCF_DPFILTER_* env > config file > defaults.
func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &usageError{err: fmt.Errorf("read config: %w", err)}
	}
	return nil
}

// defaultConfigPath returns the config file written when none was loaded.
func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configFileName+".yaml"), nil
}

// loadFilterConfig builds the immutable run configuration from flags, env and file.
func loadFilterConfig(v *viper.Viper) (pipeline.Config, error) {
	dc := depth.DefaultConfig()
	dc.MinDepth = v.GetInt("min-depth")
	if maxDepth := v.GetInt("max-depth"); maxDepth >= 0 {
		dc.MaxDepth = maxDepth
	}

	cfg := pipeline.Config{
		InputPath:  v.GetString("input"),
		OutputPath: v.GetString("output"),
		Depth:      dc,
		Workers:    v.GetInt("threads"),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, &usageError{err: err}
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, &usageError{err: fmt.Errorf("invalid log level %q: %w", level, err)}
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func runFilter(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := loadFilterConfig(v)
	if err != nil {
		return err
	}

	logger, err := newLogger(v.GetString("log-level"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Keep stdout clean when the filtered VCF itself goes there.
	var info io.Writer = cmd.OutOrStdout()
	if cfg.Output() == "-" {
		info = cmd.ErrOrStderr()
	}

	if err := output.WriteBanner(info, cfg); err != nil {
		return err
	}

	cfg.Stdin = cmd.InOrStdin()
	cfg.Stdout = cmd.OutOrStdout()

	started := time.Now()
	summary, err := pipeline.Run(cmd.Context(), cfg, pipeline.WithLogger(logger))
	if err != nil {
		return err
	}
	finished := time.Now()

	logger.Debug("filtering finished",
		zap.Int("total", summary.Total),
		zap.Int("passed", summary.Passed),
		zap.Int("failed", summary.Failed()),
		zap.Duration("elapsed", finished.Sub(started)))

	if err := output.WriteSummary(info, summary, cfg.Output()); err != nil {
		return err
	}

	if path := v.GetString("stats"); path != "" {
		if err := writeStats(path, summary); err != nil {
			return err
		}
	}

	if path := v.GetString("history-db"); path != "" {
		if err := recordRun(path, duckdb.NewRunRecord(cfg, summary, started, finished)); err != nil {
			// Output is already written; history is best effort.
			logger.Warn("could not record run history", zap.String("db", path), zap.Error(err))
		}
	}

	return nil
}

func writeStats(path string, s pipeline.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create stats file: %w", err)
	}
	defer f.Close()

	sw := output.NewStatsWriter(f)
	if err := sw.Write(s); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return f.Close()
}

func recordRun(path string, r duckdb.RunRecord) error {
	store, err := duckdb.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.WriteRun(r)
}
