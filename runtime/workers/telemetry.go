package workers

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"

	"chatroom/contract"
	"chatroom/domain"
)

var _ contract.Worker = (*TelemetryWorker)(nil)

// TelemetryWorker periodically logs process health and pipeline
// pressure: CPU, resident memory, goroutines, command channel depth,
// and delivery failure count.
type TelemetryWorker struct {
	log      *slog.Logger
	interval time.Duration
	commands chan domain.Command
	roomOps  chan domain.Command
	failures func() uint64
	proc     *process.Process
}

func NewTelemetryWorker(log *slog.Logger, interval time.Duration,
	commands, roomOps chan domain.Command, failures func() uint64) *TelemetryWorker {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Process metrics unavailable", "error", err)
	}
	return &TelemetryWorker{
		log:      log,
		interval: interval,
		commands: commands,
		roomOps:  roomOps,
		failures: failures,
		proc:     proc,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *TelemetryWorker) report() {
	attrs := []any{
		"goroutines", runtime.NumGoroutine(),
		"commands_depth", len(w.commands),
		"commands_cap", cap(w.commands),
		"room_ops_depth", len(w.roomOps),
		"room_ops_cap", cap(w.roomOps),
		"delivery_failures", w.failures(),
	}

	if w.proc != nil {
		if cpu, err := w.proc.CPUPercent(); err == nil {
			attrs = append(attrs, "cpu_percent", cpu)
		}
		if mem, err := w.proc.MemoryInfo(); err == nil {
			attrs = append(attrs, "rss_mb", mem.RSS/(1024*1024))
		}
	}

	w.log.Info("Telemetry", attrs...)
}
