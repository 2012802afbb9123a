package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/recomb-window/internal/duckdb"
	"github.com/inodb/recomb-window/internal/output"
	"github.com/inodb/recomb-window/internal/window"
)

type queryOptions struct {
	dbPath string
	chrom  string
	pos    int64
}

func newQueryCmd() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print windows previously exported to DuckDB",
		Long: `Print windows stored by 'average --duckdb' as CSV. Without --chrom every
chromosome is printed; with --pos only the window covering that position.`,
		Example: `  recomb-window query --duckdb windows.duckdb
  recomb-window query --duckdb windows.duckdb -c chr1
  recomb-window query --duckdb windows.duckdb -c chr1 -p 1500000 -w 500000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, map[string]string{keyWindowSize: "window-size"}); err != nil {
				return err
			}
			if cmd.Flags().Changed("pos") && opts.chrom == "" {
				return &usageError{fmt.Errorf("--pos requires --chrom")}
			}
			return runQuery(cmd, opts, cmd.Flags().Changed("pos"))
		},
	}

	cmd.Flags().StringVar(&opts.dbPath, "duckdb", "", "DuckDB database written by 'average --duckdb'")
	cmd.Flags().StringVarP(&opts.chrom, "chrom", "c", "", "Only print this chromosome")
	cmd.Flags().Int64VarP(&opts.pos, "pos", "p", 0, "Only print the window covering this position")
	cmd.Flags().Int64P("window-size", "w", window.DefaultSize, "Window size the windows were computed with")
	_ = cmd.MarkFlagRequired("duckdb")

	return cmd
}

func runQuery(cmd *cobra.Command, opts queryOptions, byPos bool) error {
	size := viper.GetInt64(keyWindowSize)

	if _, err := os.Stat(opts.dbPath); err != nil {
		return fmt.Errorf("open window database: %w", err)
	}
	store, err := duckdb.Open(opts.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var cws []window.ChromosomeWindows
	switch {
	case byPos:
		w, ok, err := store.WindowAt(opts.chrom, opts.pos, size)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no window of size %d covers %s:%d", size, opts.chrom, opts.pos)
		}
		cws = append(cws, window.ChromosomeWindows{Chrom: w.Chrom, Windows: []window.Window{w}})
	default:
		names := []string{opts.chrom}
		if opts.chrom == "" {
			if names, err = store.Chromosomes(size); err != nil {
				return err
			}
		}
		for _, name := range names {
			ws, err := store.LookupWindows(name, size)
			if err != nil {
				return err
			}
			cws = append(cws, window.ChromosomeWindows{Chrom: name, Windows: ws})
		}
	}

	w := output.NewCSVWriter(cmd.OutOrStdout())
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.WriteAll(cws); err != nil {
		return err
	}
	return w.Flush()
}
