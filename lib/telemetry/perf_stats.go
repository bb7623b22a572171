package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("rankwatch.perf_stats")
var cpuGauge, _ = meter.Float64Gauge("cpu_usage")
var systemMemoryGauge, _ = meter.Float64Gauge("system_memory_used_percent")
var memoryGauge, _ = meter.Int64Gauge("allocated_mb")
var goroutineGauge, _ = meter.Int64Gauge("goroutine_count")

// PerfSample is one reading of process and host load.
type PerfSample struct {
	CpuPercent    float64
	MemoryPercent float64
	AllocatedMb   int64
	Goroutines    int64
}

// SamplePerf measures cpu usage over window alongside memory and goroutine
// counts. Host readings that fail are left at zero.
func SamplePerf(ctx context.Context, window time.Duration) PerfSample {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	sample := PerfSample{
		AllocatedMb: int64(memStats.Alloc / 1_000_000),
		Goroutines:  int64(runtime.NumGoroutine()),
	}

	cpuUsage, err := cpu.PercentWithContext(ctx, window, false)
	if err == nil && len(cpuUsage) > 0 {
		sample.CpuPercent = cpuUsage[0]
	} else {
		slog.Debug("failed to read cpu usage", "err", err)
	}
	vmem, err := mem.VirtualMemoryWithContext(ctx)
	if err == nil {
		sample.MemoryPercent = vmem.UsedPercent
	} else {
		slog.Debug("failed to read memory usage", "err", err)
	}
	return sample
}

// InstrumentPerfStats records a PerfSample to the global meter every interval
// until ctx is done. The daemon uses it, a single run is too short to matter.
func InstrumentPerfStats(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sample := SamplePerf(ctx, time.Second)
				cpuGauge.Record(ctx, sample.CpuPercent)
				systemMemoryGauge.Record(ctx, sample.MemoryPercent)
				memoryGauge.Record(ctx, sample.AllocatedMb)
				goroutineGauge.Record(ctx, sample.Goroutines)
			case <-ctx.Done():
				return
			}
		}
	}()
}
