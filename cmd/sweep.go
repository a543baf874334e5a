package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/psoswarm/internal/opt"
	"github.com/cwbudde/psoswarm/internal/pso"
	"github.com/cwbudde/psoswarm/internal/sweep"
)

var (
	sweepConcurrency int
	sweepBaseline    string
	sweepBaselinePop int
	sweepJSON        bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a parameter sweep over w, c1 and c2",
	Long: `Runs the base configuration once for every combination in the sweep grid
from --config (or the built-in grid) and prints the results in grid order.
With --baseline mayfly|pso one more optimizer runs on the same objective for comparison.`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().IntVar(&sweepConcurrency, "concurrency", 0, "Runs executed at once (0 = from config)")
	sweepCmd.Flags().StringVar(&sweepBaseline, "baseline", "", "Append a baseline run: mayfly, or pso at the configured coefficients")
	sweepCmd.Flags().IntVar(&sweepBaselinePop, "baseline-pop", 20, "Mayfly population size")
	sweepCmd.Flags().BoolVar(&sweepJSON, "json", false, "Print the report as JSON")
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadConfig()
	if err != nil {
		return err
	}
	base, err := fileCfg.RunConfig()
	if err != nil {
		return err
	}

	opts := sweep.Options{Concurrency: fileCfg.Sweep.Concurrency}
	if sweepConcurrency > 0 {
		opts.Concurrency = sweepConcurrency
	}
	baseline := fileCfg.Sweep.Baseline
	if sweepBaseline != "" {
		baseline = sweepBaseline
	}
	if opts.Baseline, err = newBaseline(baseline, base); err != nil {
		return err
	}

	grid := sweep.Grid{W: fileCfg.Sweep.W, C1: fileCfg.Sweep.C1, C2: fileCfg.Sweep.C2}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := sweep.Run(ctx, base, grid, opts)
	if err != nil {
		return err
	}

	if sweepJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(cmd.OutOrStdout(), report)
	return nil
}

// newBaseline returns the optimizer named by name, or nil for "".
func newBaseline(name string, base pso.Config) (opt.Optimizer, error) {
	switch name {
	case "":
		return nil, nil
	case "mayfly":
		return opt.NewMayfly(base.Iterations, sweepBaselinePop, base.Seed), nil
	case "pso":
		return opt.NewPSO(base), nil
	default:
		return nil, fmt.Errorf("unknown baseline %q (available: mayfly, pso)", name)
	}
}

func printReport(out io.Writer, report *sweep.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OPTIMIZER\tW\tC1\tC2\tBEST\tSTATUS\tITERATIONS")
	fmt.Fprintln(w, "---------\t-\t--\t--\t----\t------\t----------")

	row := func(e sweep.Entry, point bool) {
		w1, c1, c2 := "-", "-", "-"
		if point {
			w1 = fmt.Sprint(e.Point.W)
			c1 = fmt.Sprint(e.Point.C1)
			c2 = fmt.Sprint(e.Point.C2)
		}
		if e.Err != nil {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\terror\t%v\t-\n", e.Optimizer, w1, c1, c2, e.Err)
			return
		}
		status := string(e.Status)
		if status == "" {
			status = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.6g\t%s\t%d\n", e.Optimizer, w1, c1, c2, e.Best.Value, status, e.Iterations)
	}

	for _, e := range report.Entries {
		row(e, true)
	}
	if report.Baseline != nil {
		row(*report.Baseline, false)
	}
	w.Flush()

	if best, ok := report.Best(); ok {
		fmt.Fprintf(out, "\nBest: w=%v c1=%v c2=%v -> %.6g at (%v, %v)\n",
			best.Point.W, best.Point.C1, best.Point.C2,
			best.Best.Value, best.Best.Position.X, best.Best.Position.Y)
	} else {
		fmt.Fprintln(out, "\nEvery configuration failed.")
	}
}
