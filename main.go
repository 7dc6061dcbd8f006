package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/KNICEX/perp-sentinel/internal/config"
	"github.com/KNICEX/perp-sentinel/internal/schedule"
	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/KNICEX/perp-sentinel/internal/service/exchange/binance"
	"github.com/KNICEX/perp-sentinel/internal/service/exchange/okx"
	"github.com/KNICEX/perp-sentinel/internal/service/metrics"
	"github.com/KNICEX/perp-sentinel/internal/web"
	"github.com/KNICEX/perp-sentinel/ioc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
)

const shutdownTimeout = 30 * time.Second

func initConfig() *config.Config {
	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.yaml", "specify config file")
	pflag.Parse()

	cfg, err := config.Load(*file)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	return cfg
}

func main() {
	cfg := initConfig()

	zl := ioc.InitLogger(cfg.Log)
	defer func() { _ = zl.Sync() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(registry)

	httpCli := ioc.InitHTTPClient(cfg.Network)
	exchanges := map[string]exchange.Service{
		binance.Name: ioc.InitBinanceService(cfg.Cex.Binance, httpCli),
		okx.Name:     ioc.InitOKXService(cfg.Cex.OKX, httpCli),
	}
	dispatcher := ioc.InitDispatcher(cfg.Telegram, httpCli, recorder.DispatchFailed)
	locker := ioc.InitLocker(cfg.Monitor, cfg.Redis)

	loc, err := time.LoadLocation(cfg.Monitor.Timezone)
	if err != nil {
		panic(err)
	}
	scheduler := schedule.NewScheduler(locker,
		schedule.WithLocation(loc),
		schedule.WithLockTiming(cfg.Monitor.CycleTimeout, cfg.Redis.LockTTL),
		schedule.WithOnSkip(recorder.CycleSkipped),
	)

	tasks := ioc.InitMonitorTasks(cfg, exchanges, dispatcher, recorder)
	reports := make([]web.Report, 0, len(tasks))
	for i, task := range tasks {
		rc := cfg.Reports[i]
		if err := scheduler.Register(rc.Schedule, task); err != nil {
			panic(err)
		}
		if rc.RunOnStart {
			scheduler.Trigger(task)
		}
		reports = append(reports, task)
		slog.Info("report registered", "report", rc.Name, "exchange", rc.Exchange, "schedule", rc.Schedule, "rules", len(rc.Rules))
	}
	scheduler.Start()

	var server *web.Server
	if cfg.Admin.Enabled {
		server = web.NewServer(cfg.Admin.Addr, reports, scheduler, registry)
		server.Start()
		server.SetReady(true)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if server != nil {
		server.SetReady(false)
		if err := server.Stop(shutdownCtx); err != nil {
			slog.Error("failed to stop admin server", "error", err)
		}
	}
	scheduler.Stop(shutdownCtx)
}
