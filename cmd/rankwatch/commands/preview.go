package commands

import (
	"errors"
	"fmt"
	"os"

	"rankwatch/internal/ranking"
	"rankwatch/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(previewCmd)
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Runs the whole pipeline and prints the rows a run would append, without writing them.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := serviceutil.SignalContext(cmd.Context())
		defer cancel()

		a := setup(ctx)
		defer a.close()

		service, f, err := a.service(ctx)
		if err != nil {
			serviceutil.Fatal("failed to start", err)
		}
		defer f.Close()

		report, _, err := service.Prepare(ctx)
		if err != nil && !errors.Is(err, ranking.ErrNothingToEmit) {
			serviceutil.Fatal("preview failed", err)
		}

		fmt.Printf("%s -> %s (%d targets, %d scraped)\n", report.Date, report.Range, report.Targets, report.Scraped)

		rows := table.NewWriter()
		rows.SetOutputMirror(os.Stdout)
		rows.AppendHeader(table.Row{"Date", "Name", "Category", "Type", "Rank"})
		for _, row := range report.Rows {
			rows.AppendRow(table.Row(row.Cells()))
		}
		rows.SetStyle(table.StyleRounded)
		rows.Render()

		if len(report.Failures) > 0 {
			failures := table.NewWriter()
			failures.SetOutputMirror(os.Stdout)
			failures.AppendHeader(table.Row{"Source", "Error"})
			for _, failure := range report.Failures {
				failures.AppendRow(table.Row{failure.Source.Label, failure.Err.Error()})
			}
			failures.SetStyle(table.StyleRounded)
			failures.Render()
		}

		if len(report.NearMisses) > 0 {
			misses := table.NewWriter()
			misses.SetOutputMirror(os.Stdout)
			misses.AppendHeader(table.Row{"Target", "Scraped", "Similarity"})
			for _, miss := range report.NearMisses {
				misses.AppendRow(table.Row{miss.Target, miss.Candidate, fmt.Sprintf("%.3f", miss.Similarity)})
			}
			misses.SetStyle(table.StyleRounded)
			misses.Render()
		}
	},
}
