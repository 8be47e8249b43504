// trend_cmd.go
package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/LilVoxy/obeya_headcount/ETL/analytics"
	"github.com/LilVoxy/obeya_headcount/ETL/config"
	"github.com/LilVoxy/obeya_headcount/ETL/runner"
)

func newTrendCmd() *cobra.Command {
	var (
		year     int
		forecast int
		save     bool
		stored   bool
	)

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Fit the monthly headcount trend of a year and forecast the next months",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if stored {
				forecasts, err := etl.StoredForecasts(cmd.Context(), year)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), forecasts)
			}

			var trend analytics.Trend
			if save {
				trend, err = etl.SaveTrend(cmd.Context(), year, forecast)
			} else {
				trend, err = etl.Trend(cmd.Context(), year, forecast)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), trend)
		},
	}

	cmd.Flags().IntVar(&year, "anio", time.Now().Year(), "Year")
	cmd.Flags().IntVar(&forecast, "forecast", 0, "Months to forecast (0 uses the default)")
	cmd.Flags().BoolVar(&save, "save", false, "Store the forecasts in the analytics database")
	cmd.Flags().BoolVar(&stored, "stored", false, "Print the forecasts already stored for --anio")
	cmd.MarkFlagsMutuallyExclusive("save", "stored")
	return cmd
}
