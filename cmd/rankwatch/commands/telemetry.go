package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"rankwatch/lib/configutil"
	otelsetup "rankwatch/lib/telemetry"
)

type telemetryHandle struct {
	tel otelsetup.Telemetry
}

// setupTelemetry reads the telemetry section of the config on its own so that
// tracing is up before anything else is loaded. Failing to set it up is not
// fatal.
func setupTelemetry(ctx context.Context) telemetryHandle {
	config, err := configutil.ReadConfig[Config](*configPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read telemetry config", "err", err)
		return telemetryHandle{}
	}
	tel, err := otelsetup.Setup(ctx, "rankwatch", config.Telemetry)
	if err != nil {
		slog.Warn("failed to set up telemetry", "err", err)
	}
	return telemetryHandle{tel: tel}
}

func (h telemetryHandle) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := h.tel.Shutdown(ctx)
	if err != nil {
		slog.Warn("failed to flush telemetry", "err", err)
	}
}
