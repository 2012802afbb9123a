package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/recomb-window/internal/duckdb"
	"github.com/inodb/recomb-window/internal/interval"
	"github.com/inodb/recomb-window/internal/output"
	"github.com/inodb/recomb-window/internal/window"
)

type averageOptions struct {
	input  string
	output string
	dbPath string
}

func newAverageCmd() *cobra.Command {
	var opts averageOptions

	cmd := &cobra.Command{
		Use:   "average",
		Short: "Average recombination rates over genomic windows",
		Long: `Read a tab or whitespace delimited interval file (header line, then
chromosome, start, end, <unused>, rate) and write one CSV row per window:
chromosome,interval,mean_recomb_rate.

The output extension is always replaced by .csv.`,
		Example: `  recomb-window average -i rates.tsv -o rates
  recomb-window average -i rates.tsv.gz -o windows.csv -w 500000
  recomb-window average -i rates.tsv -o out.csv --duckdb windows.duckdb
  cat rates.tsv | recomb-window average -i - -o -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, map[string]string{
				keyWindowSize: "window-size",
				keyWorkers:    "workers",
			}); err != nil {
				return err
			}
			return runAverage(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Input interval file ('-' for stdin, gzip supported)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output CSV file (default: stdout)")
	cmd.Flags().Int64P("window-size", "w", window.DefaultSize, "Minimum window span in bases")
	cmd.Flags().Int("workers", 0, "Chromosomes aggregated concurrently (0 = number of CPUs)")
	cmd.Flags().StringVar(&opts.dbPath, "duckdb", "", "Also export windows to this DuckDB database")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runAverage(cmd *cobra.Command, opts averageOptions) error {
	size := viper.GetInt64(keyWindowSize)
	agg, err := window.NewAggregator(size)
	if err != nil {
		return &usageError{err}
	}
	agg.SetWorkers(viper.GetInt(keyWorkers))
	agg.SetLogger(logger)

	set, stats, err := interval.LoadFile(opts.input, logger)
	if err != nil {
		return err
	}

	cws, err := agg.Aggregate(cmd.Context(), set)
	if err != nil {
		return err
	}

	reportPath := output.ReportPath(opts.output)
	rows, err := writeReport(cmd.OutOrStdout(), reportPath, cws)
	if err != nil {
		return err
	}
	logger.Info("wrote report",
		zap.String("path", displayPath(reportPath)),
		zap.Int64("window_size", size),
		zap.Int("windows", rows))

	if opts.dbPath != "" {
		return exportWindows(opts, size, set.Count(), stats, rows, cws)
	}
	return nil
}

// writeReport writes the CSV report to path, or to stdout for "" and "-".
func writeReport(stdout io.Writer, path string, cws []window.ChromosomeWindows) (int, error) {
	out := stdout
	var f *os.File
	if path != "" && path != "-" {
		var err error
		f, err = os.Create(path)
		if err != nil {
			return 0, fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w := output.NewCSVWriter(out)
	if err := w.WriteHeader(); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(cws); err != nil {
		return 0, fmt.Errorf("write windows: %w", err)
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("flush output: %w", err)
	}
	if f != nil {
		if err := f.Close(); err != nil {
			return 0, fmt.Errorf("close output file: %w", err)
		}
	}
	return w.Rows(), nil
}

// exportWindows stores windows and run metadata in DuckDB. An export is
// skipped when the store already holds windows for the same input and size.
func exportWindows(opts averageOptions, size int64, kept int, stats interval.Stats, rows int, cws []window.ChromosomeWindows) error {
	store, err := duckdb.Open(opts.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	fp := duckdb.FileFingerprint{Path: opts.input}
	if opts.input != "-" {
		if fp, err = duckdb.StatFile(opts.input); err != nil {
			return fmt.Errorf("stat input: %w", err)
		}
		fresh, err := store.Fresh(fp, size)
		if err != nil {
			return err
		}
		if fresh {
			logger.Info("windows already exported for unchanged input",
				zap.String("db", opts.dbPath),
				zap.String("input", opts.input))
			return nil
		}
	}

	if err := store.WriteWindows(size, cws); err != nil {
		return fmt.Errorf("export windows: %w", err)
	}
	if err := store.RecordRun(duckdb.Run{
		Input:      fp,
		WindowSize: size,
		Intervals:  kept,
		Dropped:    stats.Dropped,
		Windows:    rows,
	}); err != nil {
		return err
	}

	logger.Info("exported windows",
		zap.String("db", opts.dbPath),
		zap.Int("windows", rows))
	return nil
}

func displayPath(path string) string {
	if path == "" || path == "-" {
		return "stdout"
	}
	return path
}
