package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"swachhconnect/categorizer"
	"swachhconnect/database"
	"swachhconnect/models"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print dashboard statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		client, err := database.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())

		stats, err := database.NewIssueStore(client.Database(cfg.MongoDB)).Stats(ctx, time.Now())
		if err != nil {
			return err
		}
		printStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func printStats(w io.Writer, stats *models.IssueStats) {
	summary := tablewriter.NewWriter(w)
	summary.SetHeader([]string{"Total", "Pending", "Solved", "Overdue", "Resolved"})
	summary.Append([]string{
		strconv.FormatInt(stats.Total, 10),
		strconv.FormatInt(stats.Pending, 10),
		strconv.FormatInt(stats.Solved, 10),
		strconv.FormatInt(stats.Overdue, 10),
		fmt.Sprintf("%.1f%%", stats.ResolvedPercent),
	})
	summary.Render()

	byCategory := tablewriter.NewWriter(w)
	byCategory.SetHeader([]string{"Category", "Issues"})
	for _, c := range categorizer.Categories {
		byCategory.Append([]string{c.String(), strconv.FormatInt(stats.ByCategory[c.String()], 10)})
	}
	byCategory.Render()

	if len(stats.Monthly) == 0 {
		return
	}
	monthly := tablewriter.NewWriter(w)
	monthly.SetHeader([]string{"Month", "Total", "Solved", "Pending"})
	for _, m := range stats.Monthly {
		monthly.Append([]string{
			m.Month,
			strconv.FormatInt(m.Total, 10),
			strconv.FormatInt(m.Solved, 10),
			strconv.FormatInt(m.Pending, 10),
		})
	}
	monthly.Render()
}
