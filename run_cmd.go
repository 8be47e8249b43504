// run_cmd.go
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/LilVoxy/obeya_headcount/ETL/config"
	"github.com/LilVoxy/obeya_headcount/ETL/models"
	"github.com/LilVoxy/obeya_headcount/ETL/runner"
	"github.com/LilVoxy/obeya_headcount/ETL/transform"
)

type runOutput struct {
	Command    string                      `json:"command"`
	DurationMS int64                       `json:"duration_ms"`
	Period     models.Period               `json:"period"`
	Empty      bool                        `json:"empty"`
	Records    int                         `json:"records"`
	Located    int                         `json:"located"`
	Total      int                         `json:"total_activos"`
	Rejections map[models.RejectReason]int `json:"rejections"`
	Previous   *models.ETLRunLog           `json:"previous_run,omitempty"`
}

// periodFlags are the --mes/--anio pair shared by run and export
type periodFlags struct {
	month string
	year  int
}

func (p *periodFlags) register(cmd *cobra.Command) {
	now := time.Now()
	cmd.Flags().StringVar(&p.month, "mes", transform.Months[now.Month()-1], "Month name, e.g. MARZO")
	cmd.Flags().IntVar(&p.year, "anio", now.Year(), "Year")
}

func (p *periodFlags) validate() error {
	if _, ok := transform.MonthNumber(transform.NormalizeText(p.month)); !ok {
		return fmt.Errorf("invalid --mes %q, expected one of %s", p.month, strings.Join(transform.Months, ", "))
	}
	return nil
}

func newRunCmd() *cobra.Command {
	var period periodFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process one period and store its snapshot in the analytics database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := period.validate(); err != nil {
				return err
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
			if connections.AnalyticsDB == nil {
				logger.Warn("ANALYTICS_DB_NAME is not set, the snapshot will not be stored")
			}

			etl, err := runner.NewETLRunner(cmd.Context(), runner.Deps{Config: cfg, Connections: connections, Logger: logger})
			if err != nil {
				return err
			}

			previous, err := etl.LastRun(cmd.Context())
			if err != nil {
				logger.Warn("Reading the last successful run: %v", err)
			}

			start := time.Now()
			result, err := etl.RunOnce(cmd.Context(), period.month, period.year)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), runOutput{
				Command:    "run",
				DurationMS: time.Since(start).Milliseconds(),
				Period:     result.Period,
				Empty:      result.Empty(),
				Records:    len(result.Records),
				Located:    len(result.Located),
				Total:      result.TotalActive(),
				Rejections: result.DroppedByReason(),
				Previous:   previous,
			})
		},
	}

	period.register(cmd)
	return cmd
}
