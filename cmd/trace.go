package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/psoswarm/internal/store"
)

var (
	traceDataDir  string
	keepLast      int
	olderThanDays int
	forceClean    bool
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect run traces",
	Long: `Inspect the JSONL traces written by 'run --trace-dir' and 'serve --data-dir'.
Traces record the global best value after every iteration.`,
}

var listTracesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all recorded traces",
	RunE:  runListTraces,
}

var showTraceCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the entries of a trace",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowTrace,
}

var deleteTraceCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete one trace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.DeleteRun(traceDataDir, args[0]); err != nil {
			return fmt.Errorf("failed to delete trace: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

var cleanTracesCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete old traces",
	Long: `Delete traces based on retention policy.
You can keep the newest N traces or delete traces older than N days.`,
	RunE: runCleanTraces,
}

func init() {
	rootCmd.AddCommand(traceCmd)

	traceCmd.AddCommand(listTracesCmd)
	traceCmd.AddCommand(showTraceCmd)
	traceCmd.AddCommand(deleteTraceCmd)
	traceCmd.AddCommand(cleanTracesCmd)

	traceCmd.PersistentFlags().StringVar(&traceDataDir, "data-dir", "./data", "Base directory of trace storage")

	cleanTracesCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the newest N traces (0 = keep all)")
	cleanTracesCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete traces older than N days (0 = no age limit)")
	cleanTracesCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func runListTraces(cmd *cobra.Command, args []string) error {
	infos, err := store.ListRuns(traceDataDir)
	if err != nil {
		return fmt.Errorf("failed to list traces: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No traces found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tMODIFIED\tSIZE")
	fmt.Fprintln(w, "------\t--------\t----")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			shortID(info.RunID),
			info.ModTime.Format("2006-01-02 15:04:05"),
			formatBytes(info.Size),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal traces: %d\n", len(infos))
	return nil
}

func runShowTrace(cmd *cobra.Command, args []string) error {
	reader, err := store.NewTraceReader(traceDataDir, args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("trace not found: %s", args[0])
	} else if err != nil {
		return err
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read trace: %w", err)
	}
	return printTrace(cmd.OutOrStdout(), entries)
}

func printTrace(out io.Writer, entries []store.TraceEntry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ITERATION\tBEST\tTIME")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%.9g\t%s\n", e.Iteration, e.Value, e.Timestamp.Format("15:04:05.000"))
	}
	return w.Flush()
}

func runCleanTraces(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	infos, err := store.ListRuns(traceDataDir)
	if err != nil {
		return fmt.Errorf("failed to list traces: %w", err)
	}

	out := cmd.OutOrStdout()
	toDelete := selectRunsForDeletion(infos, keepLast, olderThanDays, time.Now())
	if len(toDelete) == 0 {
		fmt.Fprintln(out, "No traces match deletion criteria.")
		return nil
	}

	fmt.Fprintf(out, "Found %d trace(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Fprintf(out, "  - %s (%s)\n", shortID(info.RunID), info.ModTime.Format("2006-01-02 15:04:05"))
	}

	if !forceClean {
		fmt.Fprint(out, "\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Fscanln(cmd.InOrStdin(), &response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	deleted, failed := 0, 0
	for _, info := range toDelete {
		if err := store.DeleteRun(traceDataDir, info.RunID); err != nil {
			slog.Error("Failed to delete trace", "run_id", info.RunID, "error", err)
			failed++
			continue
		}
		slog.Info("Deleted trace", "run_id", info.RunID)
		deleted++
	}

	fmt.Fprintf(out, "\nDeleted %d trace(s), %d failed.\n", deleted, failed)
	return nil
}

// selectRunsForDeletion applies the retention policy: runs older than
// olderThanDays, plus everything but the newest keepLast runs. Each run is
// selected at most once, oldest first.
func selectRunsForDeletion(infos []store.RunInfo, keepLast, olderThanDays int, now time.Time) []store.RunInfo {
	sorted := make([]store.RunInfo, len(infos))
	copy(sorted, infos)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ModTime.Before(sorted[j].ModTime) })

	var cutoff time.Time
	if olderThanDays > 0 {
		cutoff = now.AddDate(0, 0, -olderThanDays)
	}
	excess := 0
	if keepLast > 0 && len(sorted) > keepLast {
		excess = len(sorted) - keepLast
	}

	var toDelete []store.RunInfo
	for i, info := range sorted {
		tooOld := olderThanDays > 0 && info.ModTime.Before(cutoff)
		if tooOld || i < excess {
			toDelete = append(toDelete, info)
		}
	}
	return toDelete
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
