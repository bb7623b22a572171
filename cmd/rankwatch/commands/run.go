package commands

import (
	"rankwatch/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrapes every source once and appends the matched rows to the month's sheet.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := serviceutil.SignalContext(cmd.Context())
		defer cancel()

		tel := setupTelemetry(ctx)
		defer tel.shutdown()

		a := setup(ctx)
		defer a.close()

		report, err := a.runOnce(ctx)
		logReport(report, err)
		if err != nil {
			tel.shutdown()
			serviceutil.Fatal("run failed", err)
		}
	},
}
