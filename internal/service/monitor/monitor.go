package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/KNICEX/perp-sentinel/internal/service/indicator"
	"github.com/KNICEX/perp-sentinel/internal/service/notification"
	"github.com/KNICEX/perp-sentinel/internal/service/strategy"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type Config struct {
	Name            string
	Label           string // 消息中的交易所名
	KlineInterval   exchange.Interval
	KlineLimit      int
	LongShortPeriod exchange.Interval
	EMAPeriod       int
	ATRPeriod       int
	MinQuoteVolume  decimal.Decimal
	Exclude         []string
	BatchSize       int
	BatchPause      time.Duration
	CallTimeout     time.Duration
}

type Dispatcher interface {
	Dispatch(ctx context.Context, text string)
}

// Observer 周期内的统计回调
type Observer interface {
	InstrumentsRanked(report string, n int)
	FetchFailed(report string, source string)
	AlertsRaised(report string, category string, n int)
}

type nopObserver struct{}

func (nopObserver) InstrumentsRanked(string, int)    {}
func (nopObserver) FetchFailed(string, string)       {}
func (nopObserver) AlertsRaised(string, string, int) {}

// Monitor 一条完整的 目录 -> 排序 -> 分批拉取/计算/分类 -> 聚合 -> 通知 流水线
type Monitor struct {
	cfg     Config
	sources Sources

	market     exchange.MarketService
	catalog    *InstrumentCatalog
	ranker     *VolumeRanker
	scheduler  *BatchScheduler
	fetcher    *MetricFetcher
	classifier *strategy.Classifier
	aggregator *notification.Aggregator
	dispatcher Dispatcher

	table    *TableWriter
	observer Observer
	now      func() time.Time
}

type Option func(m *Monitor)

func WithTableOutput(w io.Writer) Option {
	return func(m *Monitor) {
		m.table = NewTableWriter(w, m.sources)
	}
}

func WithObserver(o Observer) Option {
	return func(m *Monitor) {
		m.observer = o
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

func NewMonitor(svc exchange.Service, rules []strategy.Rule, dispatcher Dispatcher, cfg Config, opts ...Option) *Monitor {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	sources := SourcesFor(strategy.Needs(rules))
	m := &Monitor{
		cfg:        cfg,
		sources:    sources,
		market:     svc.MarketService(),
		catalog:    NewInstrumentCatalog(svc.InstrumentService()),
		ranker:     NewVolumeRanker(cfg.MinQuoteVolume, cfg.Exclude),
		scheduler:  NewBatchScheduler(cfg.BatchSize, cfg.BatchPause),
		classifier: strategy.NewClassifier(rules, cfg.KlineInterval),
		aggregator: notification.NewAggregator(cfg.Label, rules),
		dispatcher: dispatcher,
		fetcher: NewMetricFetcher(svc.MarketService(), FetchParams{
			Sources:         sources,
			KlineInterval:   cfg.KlineInterval,
			KlineLimit:      cfg.KlineLimit,
			LongShortPeriod: cfg.LongShortPeriod,
			CallTimeout:     cfg.CallTimeout,
		}),
		table:    NewTableWriter(os.Stdout, sources),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Monitor) Name() string {
	return m.cfg.Name
}

func (m *Monitor) Label() string {
	return m.cfg.Label
}

func (m *Monitor) Dispatcher() Dispatcher {
	return m.dispatcher
}

// cycle 单个周期的上下文, 每个合约只写自己的槽位
type cycle struct {
	startedAt time.Time
	ranked    []RankedInstrument
	snapshots []indicator.Snapshot
	fetchErrs []map[Source]error
	records   [][]strategy.AlertRecord
}

func newCycle(startedAt time.Time, ranked []RankedInstrument) *cycle {
	return &cycle{
		startedAt: startedAt,
		ranked:    ranked,
		snapshots: make([]indicator.Snapshot, len(ranked)),
		fetchErrs: make([]map[Source]error, len(ranked)),
		records:   make([][]strategy.AlertRecord, len(ranked)),
	}
}

type CycleResult struct {
	Report        string
	StartedAt     time.Time
	Instruments   int
	Processed     int
	FetchFailures int
	Alerts        int
	Messages      int
}

// RunCycle 目录或成交额获取失败时不产生任何通知; 返回的错误表示周期本身失败
func (m *Monitor) RunCycle(ctx context.Context) (CycleResult, error) {
	res := CycleResult{Report: m.cfg.Name, StartedAt: m.now()}

	instruments := m.catalog.Fetch(ctx)
	if len(instruments) == 0 {
		slog.Warn("no active instruments, skip cycle", "report", m.cfg.Name)
		return res, nil
	}

	volumes, err := call(ctx, m.cfg.CallTimeout, m.market.Get24hVolumes)
	if err != nil {
		slog.Error("failed to fetch 24h volumes", "report", m.cfg.Name, "error", err)
		return res, nil
	}
	ranked := m.ranker.Rank(instruments, volumes)
	res.Instruments = len(ranked)
	m.observer.InstrumentsRanked(m.cfg.Name, len(ranked))
	slog.Info("instruments ranked", "report", m.cfg.Name, "active", len(instruments), "ranked", len(ranked))
	if len(ranked) == 0 {
		return res, nil
	}

	c := newCycle(res.StartedAt, ranked)
	unitErrs, err := m.scheduler.Run(ctx, len(ranked), func(ctx context.Context, i int) error {
		return m.process(ctx, c, i)
	})
	for i, e := range unitErrs {
		if e != nil {
			slog.Error("instrument unit failed", "report", m.cfg.Name, "symbol", ranked[i].Symbol, "error", e)
		}
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return res, fmt.Errorf("cycle %s aborted: %w", m.cfg.Name, err)
	}

	// 批次全部结束后再汇总, 避免并发写
	processed := lo.Filter(c.snapshots, func(item indicator.Snapshot, index int) bool {
		return item.Instrument.Symbol != ""
	})
	res.Processed = len(processed)
	for _, errs := range c.fetchErrs {
		res.FetchFailures += len(errs)
		for source := range errs {
			m.observer.FetchFailed(m.cfg.Name, string(source))
		}
	}
	if err = m.table.Write(processed); err != nil {
		slog.Warn("failed to write table", "report", m.cfg.Name, "error", err)
	}

	records := lo.Flatten(c.records)
	res.Alerts = len(records)
	batches := m.aggregator.Aggregate(records, c.startedAt)
	for _, b := range batches {
		m.observer.AlertsRaised(m.cfg.Name, string(b.Category), len(b.Records))
		m.dispatcher.Dispatch(ctx, b.Text)
	}
	res.Messages = len(batches)
	return res, nil
}

func (m *Monitor) process(ctx context.Context, c *cycle, i int) error {
	inst := c.ranked[i]
	fr := m.fetcher.Fetch(ctx, inst.Symbol)

	snap := indicator.Snapshot{
		Instrument:     inst.Instrument,
		Volume24h:      inst.Volume,
		OpenInterest:   fr.OpenInterest,
		LongShortRatio: fr.LongShortRatio,
	}
	if fr.Funding != nil {
		snap.FundingRate = decimal.NewNullDecimal(fr.Funding.FundingRate)
		snap.MarkPrice = decimal.NewNullDecimal(fr.Funding.MarkPrice)
		snap.NextFundingTime = fr.Funding.NextFundingTime
	}
	for _, err := range snap.Derive(fr.Klines, m.cfg.EMAPeriod, m.cfg.ATRPeriod, m.sources.Trend) {
		if errors.Is(err, indicator.ErrInsufficientData) && len(fr.Klines) > 0 {
			slog.Warn("skip indicator", "symbol", inst.Symbol, "klines", len(fr.Klines), "error", err)
			continue
		}
		slog.Debug("indicator unavailable", "symbol", inst.Symbol, "error", err)
	}

	c.snapshots[i] = snap
	c.fetchErrs[i] = fr.Errors
	c.records[i] = m.classifier.Classify(snap)
	return nil
}
