// export_cmd.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/LilVoxy/obeya_headcount/ETL/config"
	"github.com/LilVoxy/obeya_headcount/ETL/load"
	"github.com/LilVoxy/obeya_headcount/ETL/runner"
)

func newExportCmd() *cobra.Command {
	var (
		period periodFlags
		format string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the headcount table of one period to a CSV or XLSX file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := period.validate(); err != nil {
				return err
			}
			if format != load.FormatCSV && format != load.FormatXLSX {
				return fmt.Errorf("invalid --format %q, expected csv or xlsx", format)
			}
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			connections, err := config.ConnectDatabases(cfg, logger)
			if err != nil {
				return err
			}
			defer config.CloseDatabases(connections, logger)

			etl, err := runner.NewETLRunner(cmd.Context(), runner.Deps{Config: cfg, Connections: connections, Logger: logger})
			if err != nil {
				return err
			}
			result, err := etl.Process(cmd.Context(), period.month, period.year)
			if err != nil {
				return err
			}
			if result.Empty() {
				logger.Warn("No data for %s %d, writing header only", result.Period.Month, result.Period.Year)
			}

			path := filepath.Join(outDir, load.FileName(result.Period, time.Now(), format))
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
			if err := load.Export(f, format, result); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	period.register(cmd)
	cmd.Flags().StringVar(&format, "format", load.FormatCSV, "Output format: csv or xlsx")
	cmd.Flags().StringVar(&outDir, "out", ".", "Output directory")
	return cmd
}
