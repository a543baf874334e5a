package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cwbudde/psoswarm/internal/config"
	"github.com/cwbudde/psoswarm/internal/pso"
	"github.com/cwbudde/psoswarm/internal/store"
	"github.com/cwbudde/psoswarm/internal/viz"
)

// outputs selects the collaborators attached to a single run
type outputs struct {
	plotsDir string
	plotSize int
	traceDir string
	runID    string
	print    bool
	jsonOut  bool
}

var runOut outputs

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single optimization",
	Long: `Runs one particle swarm optimization. Flags override values from --config.
Optionally prints per-iteration progress, writes a JSONL trace and PNG snapshots.`,
	RunE: runOptimization,
}

func init() {
	registerRunFlags(runCmd)

	f := runCmd.Flags()
	f.StringVar(&runOut.plotsDir, "plots", "", "Write PNG snapshots to this directory")
	f.IntVar(&runOut.plotSize, "plot-size", viz.DefaultSize, "Snapshot size in pixels")
	f.StringVar(&runOut.traceDir, "trace-dir", "", "Write a JSONL trace under this directory")
	f.StringVar(&runOut.runID, "run-id", "", "Trace run ID (default: random UUID)")
	f.BoolVar(&runOut.print, "print", false, "Print 'Iteration i : value' after every step")
	f.BoolVar(&runOut.jsonOut, "json", false, "Print the result as JSON")

	rootCmd.AddCommand(runCmd)
}

// registerRunFlags defines the flags that override config values.
func registerRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("particles", 0, "Number of particles")
	f.Int("iterations", 0, "Maximum iterations")
	f.Float64("w", 0, "Inertia weight")
	f.Float64("c1", 0, "Cognitive coefficient")
	f.Float64("c2", 0, "Social coefficient")
	f.Int64("seed", 0, "Random seed")
	f.Float64("threshold", 0, "Stop once the global best is below this value")
	f.String("reseed", "", "Seed policy: once, per-iteration")
	f.String("objective", "", "Objective: "+fmt.Sprint(pso.ObjectiveNames()))
	f.Int("snapshot-every", 0, "Extra snapshot every N iterations (0 = checkpoints only)")
	f.Int("patience", 0, "Stop after N iterations without relative improvement (0 = off)")
}

// applyRunFlags overlays explicitly set flags on cfg.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error
	set := func(name string, fn func() error) {
		if err == nil && f.Changed(name) {
			err = fn()
		}
	}

	set("particles", func() (e error) { cfg.Particles, e = f.GetInt("particles"); return })
	set("iterations", func() (e error) { cfg.Iterations, e = f.GetInt("iterations"); return })
	set("w", func() (e error) { cfg.W, e = f.GetFloat64("w"); return })
	set("c1", func() (e error) { cfg.C1, e = f.GetFloat64("c1"); return })
	set("c2", func() (e error) { cfg.C2, e = f.GetFloat64("c2"); return })
	set("seed", func() (e error) { cfg.Seed, e = f.GetInt64("seed"); return })
	set("reseed", func() (e error) { cfg.Reseed, e = f.GetString("reseed"); return })
	set("objective", func() (e error) { cfg.Objective, e = f.GetString("objective"); return })
	set("snapshot-every", func() (e error) { cfg.SnapshotEvery, e = f.GetInt("snapshot-every"); return })
	set("threshold", func() error {
		v, e := f.GetFloat64("threshold")
		cfg.Threshold = &v
		return e
	})
	set("patience", func() error {
		v, e := f.GetInt("patience")
		cfg.Stagnation.Enabled = v > 0
		cfg.Stagnation.Patience = v
		if cfg.Stagnation.MinImprovement == 0 {
			cfg.Stagnation.MinImprovement = pso.DefaultStagnationConfig().MinImprovement
		}
		return e
	})

	if err != nil {
		return fmt.Errorf("invalid flag: %w", err)
	}
	return nil
}

func runOptimization(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, fileCfg); err != nil {
		return err
	}

	cfg, err := fileCfg.RunConfig()
	if err != nil {
		return err
	}

	result, err := execute(cfg, fileCfg.PositionBounds, runOut, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	return printResult(cmd.OutOrStdout(), result, runOut.jsonOut)
}

// execute runs cfg with the collaborators selected by o.
func execute(cfg pso.Config, domain pso.Bounds, o outputs, out io.Writer) (result *pso.Result, err error) {
	opts := []pso.Option{pso.WithReporter(pso.LogReporter{Logger: slog.Default()})}

	if o.print {
		opts = append(opts, pso.WithReporter(pso.PrintReporter{W: out}))
	}

	var tracer *store.TraceReporter
	if o.traceDir != "" {
		runID := o.runID
		if runID == "" {
			runID = uuid.New().String()
		}
		writer, werr := store.NewTraceWriter(o.traceDir, runID, false)
		if werr != nil {
			return nil, fmt.Errorf("failed to open trace: %w", werr)
		}
		// Most entries reach the file only when the writer is closed.
		defer func() {
			if cerr := writer.Close(); cerr != nil && err == nil {
				result, err = nil, fmt.Errorf("failed to write trace: %w", cerr)
			}
		}()

		tracer = store.NewTraceReporter(writer)
		opts = append(opts, pso.WithReporter(tracer))
		slog.Info("Tracing run", "run_id", runID, "path", writer.Path())
	}

	var sink *viz.PlotSink
	if o.plotsDir != "" {
		objective := cfg.Objective
		if objective == nil {
			objective = pso.Paraboloid
		}
		sink, err = viz.NewPlotSink(o.plotsDir, objective, domain)
		if err != nil {
			return nil, err
		}
		if o.plotSize > 0 {
			sink.Size = o.plotSize
		}
		opts = append(opts, pso.WithSnapshotSink(sink))
	}

	result, err = pso.Run(cfg, opts...)
	if err != nil {
		return nil, err
	}

	if tracer != nil {
		if err := tracer.Err(); err != nil {
			return nil, fmt.Errorf("failed to write trace: %w", err)
		}
	}
	if sink != nil {
		if err := sink.Err(); err != nil {
			return nil, fmt.Errorf("failed to write snapshots: %w", err)
		}
		slog.Info("Wrote snapshots", "dir", o.plotsDir, "count", len(sink.Written()))
	}

	return result, nil
}

func printResult(w io.Writer, result *pso.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(w, "Global best: %v at (%v, %v)\n", result.Best.Value, result.Best.Position.X, result.Best.Position.Y)
	fmt.Fprintf(w, "Status: %s after %d iteration(s) (last index %d, %s)\n",
		result.Status, result.Iterations, result.LastIteration, result.Elapsed.Round(time.Microsecond))
	return nil
}
