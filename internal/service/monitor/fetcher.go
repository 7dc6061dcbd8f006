package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/KNICEX/perp-sentinel/internal/service/indicator"
	"github.com/shopspring/decimal"
)

const DefaultCallTimeout = 10 * time.Second

type Source string

const (
	SourceFunding      Source = "funding"
	SourceOpenInterest Source = "open_interest"
	SourceLongShort    Source = "long_short"
	SourceKlines       Source = "klines"
)

// Sources 每个周期需要拉取的数据源
type Sources struct {
	Funding      bool
	OpenInterest bool
	LongShort    bool
	Klines       bool
	Trend        bool // 需要 EMA/ATR
}

// SourcesFor 由规则依赖的指标推导需要的数据源
func SourcesFor(needs map[indicator.Metric]bool) Sources {
	var s Sources
	if needs[indicator.MetricOIToVolumeRatio] {
		s.Funding = true // 标记价格
		s.OpenInterest = true
	}
	if needs[indicator.MetricFundingRatePct] {
		s.Funding = true
	}
	if needs[indicator.MetricLongShortRatio] {
		s.LongShort = true
	}
	if needs[indicator.MetricPriceChangePct] {
		s.Klines = true
	}
	if needs[indicator.MetricATRRatio] {
		s.Klines = true
		s.Trend = true
	}
	return s
}

func (s Sources) Structural() bool {
	return s.Funding || s.OpenInterest || s.LongShort
}

type FetchResult struct {
	Funding        *exchange.FundingInfo
	OpenInterest   decimal.NullDecimal
	LongShortRatio decimal.NullDecimal
	Klines         []exchange.Kline
	Errors         map[Source]error
}

type FetchParams struct {
	Sources         Sources
	KlineInterval   exchange.Interval
	KlineLimit      int
	LongShortPeriod exchange.Interval
	CallTimeout     time.Duration
}

// MetricFetcher 逐项拉取, 每项独立超时, 失败只影响该项
type MetricFetcher struct {
	market exchange.MarketService
	params FetchParams
}

func NewMetricFetcher(market exchange.MarketService, params FetchParams) *MetricFetcher {
	if params.CallTimeout <= 0 {
		params.CallTimeout = DefaultCallTimeout
	}
	return &MetricFetcher{market: market, params: params}
}

// Fetch 同一合约的各项请求串行, 保证对交易所的并发不超过批大小.
// ctx 结束后不再发起剩余请求, 也不计为失败.
func (f *MetricFetcher) Fetch(ctx context.Context, symbol string) FetchResult {
	res := FetchResult{Errors: map[Source]error{}}
	p := f.params
	if ctx.Err() != nil {
		return res
	}

	if p.Sources.Funding {
		info, err := call(ctx, p.CallTimeout, func(ctx context.Context) (exchange.FundingInfo, error) {
			return f.market.GetFunding(ctx, symbol)
		})
		if f.record(&res, SourceFunding, symbol, err) {
			res.Funding = &info
		}
	}
	if ctx.Err() != nil {
		return res
	}
	if p.Sources.OpenInterest {
		oi, err := call(ctx, p.CallTimeout, func(ctx context.Context) (decimal.Decimal, error) {
			return f.market.GetOpenInterest(ctx, symbol)
		})
		if f.record(&res, SourceOpenInterest, symbol, err) {
			res.OpenInterest = decimal.NewNullDecimal(oi)
		}
	}
	if ctx.Err() != nil {
		return res
	}
	if p.Sources.LongShort {
		ratio, err := call(ctx, p.CallTimeout, func(ctx context.Context) (decimal.Decimal, error) {
			return f.market.GetLongShortRatio(ctx, symbol, p.LongShortPeriod)
		})
		if f.record(&res, SourceLongShort, symbol, err) {
			res.LongShortRatio = decimal.NewNullDecimal(ratio)
		}
	}
	if ctx.Err() != nil {
		return res
	}
	if p.Sources.Klines {
		kls, err := call(ctx, p.CallTimeout, func(ctx context.Context) ([]exchange.Kline, error) {
			return f.market.GetKlines(ctx, exchange.GetKlinesReq{
				Symbol:   symbol,
				Interval: p.KlineInterval,
				Limit:    p.KlineLimit,
			})
		})
		if f.record(&res, SourceKlines, symbol, err) {
			res.Klines = kls
		}
	}
	return res
}

func (f *MetricFetcher) record(res *FetchResult, source Source, symbol string, err error) bool {
	if err == nil {
		return true
	}
	slog.Warn("metric fetch failed", "symbol", symbol, "source", source, "error", err)
	res.Errors[source] = err
	return false
}

func call[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}
