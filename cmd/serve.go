package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/psoswarm/internal/server"
)

var (
	serveAddr    string
	serveDataDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP job server",
	Long: `Starts an HTTP server that runs optimization jobs in the background and
streams their progress over server-sent events.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "Write per-job traces under this directory")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	s := server.NewServer(serveAddr, serveDataDir)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Received shutdown signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
