package ioc

import (
	"fmt"

	"github.com/KNICEX/perp-sentinel/internal/config"
	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/KNICEX/perp-sentinel/internal/service/metrics"
	"github.com/KNICEX/perp-sentinel/internal/service/monitor"
	"github.com/shopspring/decimal"
)

// InitMonitorTasks 每条 report 一个任务, 同一交易所共享同一个 Service
func InitMonitorTasks(cfg *config.Config, exchanges map[string]exchange.Service, dispatcher monitor.Dispatcher, recorder *metrics.Recorder) []*monitor.MonitorTask {
	tasks := make([]*monitor.MonitorTask, 0, len(cfg.Reports))
	for _, r := range cfg.Reports {
		svc, ok := exchanges[r.Exchange]
		if !ok {
			panic(fmt.Sprintf("report %s: exchange %s not initialized", r.Name, r.Exchange))
		}
		m := monitor.NewMonitor(svc, r.Rules, dispatcher, monitor.Config{
			Name:            r.Name,
			Label:           r.Label,
			KlineInterval:   r.Interval(),
			KlineLimit:      r.KlineLimit,
			LongShortPeriod: r.Period(),
			EMAPeriod:       r.EMAPeriod,
			ATRPeriod:       r.ATRPeriod,
			MinQuoteVolume:  decimal.NewFromFloat(cfg.Monitor.MinQuoteVolume),
			Exclude:         cfg.Monitor.Exclude,
			BatchSize:       cfg.Monitor.BatchSize,
			BatchPause:      cfg.Monitor.BatchPause,
			CallTimeout:     cfg.Monitor.CallTimeout,
		}, monitor.WithObserver(recorder))
		tasks = append(tasks, monitor.NewMonitorTask(m, svc.Name(), cfg.Monitor.CycleTimeout, monitor.WithCycleRecorder(recorder)))
	}
	return tasks
}
