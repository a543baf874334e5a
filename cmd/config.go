package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/psoswarm/internal/config"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage config files",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration as YAML",
	Long: `Writes the built-in defaults, including the sweep grid, to path
(default psoswarm.yaml) as a starting point for --config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := "psoswarm.yaml"
	if len(args) == 1 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.Default()
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
