package commands

import (
	"pollofpolls-backend/cmd/pollofpolls/utils"
	"pollofpolls-backend/internal/runner"
	"pollofpolls-backend/lib/serviceutil"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

func newRunner(cfg Config, st runner.Store, observer runner.Observer) runner.Runner {
	table := cfg.weightTable()
	return runner.NewRunner(runner.Options{
		Scraper:        cfg.newScraper(table),
		Store:          st,
		Weights:        table,
		Alerter:        cfg.alerter(),
		LookbackMonths: cfg.lookbackMonths(0),
		Timeout:        runTimeout,
		Observer:       observer,
	})
}

func runSummaryRows(summary runner.Summary) []table.Row {
	return []table.Row{
		{"Run date", summary.RunDate.Format(time.DateOnly)},
		{"Source", summary.SourceUrl},
		{"Polls", summary.Polls},
		{"Skipped tables", summary.SkippedTables},
		{"Skipped rows", summary.SkippedRows},
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Performs the daily scrape, store and aggregate run once.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		st, closeStore := cfg.openStore()
		defer closeStore()

		summary, err := newRunner(cfg, st, nil).Run(cmd.Context())
		if err != nil {
			closeStore()
			serviceutil.Fatal("run failed", err)
		}

		t := utils.NewTable()
		t.AppendRows(runSummaryRows(summary))
		t.Render()
		printAggregate(summary.Aggregate)
	},
}
