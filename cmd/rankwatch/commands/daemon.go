package commands

import (
	"log/slog"
	"time"

	"rankwatch/internal/components/chrono"
	otelsetup "rankwatch/lib/telemetry"
	"rankwatch/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(daemonCmd)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Runs on the configured cron schedule until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := serviceutil.SignalContext(cmd.Context())
		defer cancel()

		tel := setupTelemetry(ctx)
		defer tel.shutdown()
		otelsetup.InstrumentPerfStats(ctx, 30*time.Second)

		a := setup(ctx)
		defer a.close()

		cron := chrono.NewStandardCron(a.tel, a.clock)
		err := cron.Cron(a.config.Schedule, func() {
			report, err := a.runOnce(ctx)
			logReport(report, err)
		})
		if err != nil {
			cron.Stop()
			serviceutil.Fatal("invalid schedule", err)
		}

		slog.Info(
			"waiting for schedule",
			"schedule", a.config.Schedule,
			"time_zone", a.config.TimeZone,
		)
		<-ctx.Done()
		slog.Info("stopping, waiting for a running job to finish")
		cron.Stop()
	},
}
