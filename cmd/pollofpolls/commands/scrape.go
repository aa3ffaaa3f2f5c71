package commands

import (
	"log/slog"
	"pollofpolls-backend/cmd/pollofpolls/utils"
	"pollofpolls-backend/internal/chrono"
	"pollofpolls-backend/internal/polls"
	"pollofpolls-backend/lib/serviceutil"
	"pollofpolls-backend/lib/timezone"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	scrapeStore    *bool
	scrapeLookback *int
)

func init() {
	scrapeStore = scrapeCmd.Flags().Bool("store", false, "Also replaces today's poll run in the database.")
	scrapeLookback = scrapeCmd.Flags().Int("lookback", 0, "Months of polls to keep, defaults to the config value.")
	rootCmd.AddCommand(scrapeCmd)
}

func partyHeader() table.Row {
	row := table.Row{}
	for _, party := range polls.Parties {
		row = append(row, party.DisplayName())
	}
	return row
}

func partyCells(shares polls.Shares) table.Row {
	row := table.Row{}
	for _, party := range polls.Parties {
		row = append(row, utils.FormatShare(shares.Get(party)))
	}
	return row
}

func printPolls(list []polls.Poll) {
	t := utils.NewTable()
	header := table.Row{"Date", "Pollster", "Sample", "Area"}
	t.AppendHeader(append(header, partyHeader()...))
	for _, poll := range list {
		row := table.Row{
			poll.Date.Format(time.DateOnly),
			poll.Pollster,
			utils.FormatOptional(poll.SampleSize),
			utils.FormatOptional(poll.Area),
		}
		t.AppendRow(append(row, partyCells(poll.Values)...))
	}
	t.Render()
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--store] [--lookback <months>]",
	Short: "Scrapes the national opinion poll tables and prints them.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		client := cfg.newScraper(cfg.weightTable())

		t1 := time.Now()
		result, err := client.Scrape(ctx, cfg.lookbackMonths(*scrapeLookback))
		if err != nil {
			serviceutil.Fatal("failed to scrape polls", err)
		}
		slog.Info(
			"scraping time",
			"seconds", time.Since(t1).Seconds(),
			"polls", len(result.Polls),
			"skipped_tables", result.SkippedTables,
			"skipped_rows", result.SkippedRows,
		)

		printPolls(result.Polls)

		if !*scrapeStore {
			return
		}
		st, closeStore := cfg.openStore()
		defer closeStore()

		runDate := timezone.StartOfDay(chrono.NewStandardTime().Now())
		run, err := st.ReplacePollRun(ctx, runDate, result.SourceUrl, result.Polls)
		if err != nil {
			serviceutil.Fatal("failed to store polls", err)
		}
		slog.Info("stored poll run", "id", run.ID, "run_date", runDate.Format(time.DateOnly), "polls", run.PollCount)
	},
}
