package commands

import (
	"fmt"
	"log/slog"
	"pollofpolls-backend/cmd/pollofpolls/utils"
	"pollofpolls-backend/internal/aggregate"
	"pollofpolls-backend/internal/chrono"
	"pollofpolls-backend/internal/polls"
	"pollofpolls-backend/lib/serviceutil"
	"time"

	"github.com/spf13/cobra"
)

var (
	aggregateFresh    *bool
	aggregateLookback *int
)

func init() {
	aggregateFresh = aggregateCmd.Flags().Bool("fresh", false, "Scrapes polls instead of reading the latest stored run.")
	aggregateLookback = aggregateCmd.Flags().Int("lookback", 0, "Months of polls to keep when scraping, defaults to the config value.")
	rootCmd.AddCommand(aggregateCmd)
}

func printAggregate(result polls.Aggregate) {
	t := utils.NewTable()
	t.AppendHeader([]any{"Party", "Share"})
	for _, party := range polls.Parties {
		t.AppendRow([]any{party.DisplayName(), utils.FormatShare(result.Values.Get(party))})
	}
	if result.LeadParty != nil && result.LeadValue != nil {
		t.AppendFooter([]any{"Lead", fmt.Sprintf("%s +%.1f", *result.LeadParty, *result.LeadValue)})
	} else {
		t.AppendFooter([]any{"Lead", "-"})
	}
	t.Render()
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate [--fresh] [--lookback <months>]",
	Short: "Computes the weighted poll average as of now and prints it with the lead.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		table := cfg.weightTable()

		var list []polls.Poll
		if *aggregateFresh {
			client := cfg.newScraper(table)
			result, err := client.Scrape(ctx, cfg.lookbackMonths(*aggregateLookback))
			if err != nil {
				serviceutil.Fatal("failed to scrape polls", err)
			}
			list = result.Polls
		} else {
			st, closeStore := cfg.openStore()
			defer closeStore()

			run, stored, err := st.LatestPolls(ctx)
			if err != nil {
				serviceutil.Fatal("failed to read latest polls", err)
			}
			slog.Info("using stored poll run", "run_date", run.Date.Format(time.DateOnly), "polls", len(stored))
			list = stored
		}

		result := aggregate.Aggregate(ctx, list, chrono.NewStandardTime().Now(), table)
		printAggregate(result)
	},
}
