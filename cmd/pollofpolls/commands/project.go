package commands

import (
	"errors"
	"fmt"
	"pollofpolls-backend/cmd/pollofpolls/utils"
	"pollofpolls-backend/internal/local"
	"pollofpolls-backend/internal/store"
	"pollofpolls-backend/lib/serviceutil"
	"time"

	"github.com/spf13/cobra"
)

var (
	projectLad      *string
	projectBaseline *string
)

func init() {
	projectLad = projectCmd.Flags().String("lad", "", "Only projects wards in this local authority district code.")
	projectBaseline = projectCmd.Flags().String("baseline", "", "The ward baseline file, defaults to the config value.")
	rootCmd.AddCommand(projectCmd)
}

func printProjections(projections []local.Projection) {
	t := utils.NewTable()
	t.AppendHeader([]any{"Ward", "Name", "LAD", "Winner", "Share"})
	for _, p := range projections {
		t.AppendRow([]any{
			p.WardCode,
			p.WardName,
			p.LadName,
			p.Winner,
			fmt.Sprintf("%.1f", p.Shares[p.Winner]),
		})
	}
	t.Render()
}

func printSummaries(summaries []local.Summary) {
	t := utils.NewTable()
	t.AppendHeader([]any{"LAD", "Name", "Wards", "Leader", "Won"})
	for _, s := range summaries {
		leader := s.Leader()
		t.AppendRow([]any{s.LadCode, s.LadName, s.Wards, leader, s.Winners[leader]})
	}
	t.Render()
}

var projectCmd = &cobra.Command{
	Use:   "project [--lad <code>] [--baseline <path>]",
	Short: "Projects ward results from the latest stored aggregate.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()

		baseline := cfg.loadBaseline(*projectBaseline)
		if baseline == nil {
			serviceutil.Fatal("failed to project wards", errors.New("no baseline file configured"))
		}

		st, closeStore := cfg.openStore()
		defer closeStore()

		record, err := st.LatestAggregate(ctx)
		if errors.Is(err, store.ErrNotFound) {
			serviceutil.Fatal("failed to project wards", errors.New("no aggregate has been stored yet, run `pollofpolls run` first"))
		}
		if err != nil {
			serviceutil.Fatal("failed to read latest aggregate", err)
		}
		fmt.Printf("aggregate of %s\n", record.Date.Format(time.DateOnly))

		projections := local.ProjectAll(ctx, *baseline, record.Aggregate, *projectLad)
		if len(projections) == 0 {
			serviceutil.Fatal("failed to project wards", fmt.Errorf("no wards in %q", *projectLad))
		}
		printProjections(projections)
		printSummaries(local.Summarize(projections))
	},
}
