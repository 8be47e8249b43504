// main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LilVoxy/obeya_headcount/ETL/config"
	"github.com/LilVoxy/obeya_headcount/ETL/utils"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "obeya",
		Short:         "Headcount-by-store ETL and dashboard API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newServeCmd(),
		newRunCmd(),
		newExportCmd(),
		newTrendCmd(),
		newLayersCmd(),
		newKeygenCmd(),
	)
	return cmd
}

// bootstrap loads the configuration and builds the logger every command shares
func bootstrap() (config.ETLConfig, *utils.ETLLogger, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return cfg, nil, err
	}
	logger, err := utils.NewETLLogger(utils.LoggerOptions{
		Mode:    cfg.LogMode,
		Verbose: cfg.EnableDetailedLogging,
		LogDir:  cfg.LogDir,
	})
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
