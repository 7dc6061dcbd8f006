package binance

import (
	"context"
	"fmt"
	"time"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/KNICEX/perp-sentinel/pkg/decimalx"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

var _ exchange.MarketService = (*MarketService)(nil)

type MarketService struct {
	cli *futures.Client
}

// NewMarketService 创建市场数据服务
func NewMarketService(cli *futures.Client) *MarketService {
	return &MarketService{cli: cli}
}

func (m *MarketService) convertKlines(klines []*futures.Kline) ([]exchange.Kline, error) {
	kls := make([]exchange.Kline, len(klines))
	for i, k := range klines {
		var (
			kl  exchange.Kline
			err error
		)
		fields := []struct {
			dst *decimal.Decimal
			src string
		}{
			{&kl.Open, k.Open},
			{&kl.Close, k.Close},
			{&kl.High, k.High},
			{&kl.Low, k.Low},
			{&kl.Volume, k.Volume},
			{&kl.QuoteAssetVolume, k.QuoteAssetVolume},
		}
		for _, f := range fields {
			if *f.dst, err = decimal.NewFromString(f.src); err != nil {
				return nil, fmt.Errorf("kline %d: %w", k.OpenTime, err)
			}
		}
		kl.OpenTime = time.UnixMilli(k.OpenTime)
		kl.CloseTime = time.UnixMilli(k.CloseTime)
		kls[i] = kl
	}
	return kls, nil
}

func (m *MarketService) GetKlines(ctx context.Context, req exchange.GetKlinesReq) ([]exchange.Kline, error) {
	svc := m.cli.NewKlinesService().Symbol(req.Symbol) // 币安合约API使用 BTCUSDT 格式
	if req.Interval.ToString() != "" {
		svc.Interval(req.Interval.ToString())
	}
	if req.Limit > 0 {
		svc.Limit(req.Limit)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, err
	}
	return m.convertKlines(res)
}

func (m *MarketService) Get24hVolumes(ctx context.Context) ([]exchange.VolumeSample, error) {
	stats, err := m.cli.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]exchange.VolumeSample, 0, len(stats))
	for _, s := range stats {
		vol, err := decimalx.FromString(s.QuoteVolume)
		if err != nil {
			return nil, fmt.Errorf("%s quote volume: %w", s.Symbol, err)
		}
		res = append(res, exchange.VolumeSample{
			Symbol:      s.Symbol,
			QuoteVolume: vol,
			ObservedAt:  time.UnixMilli(s.CloseTime),
		})
	}
	return res, nil
}

func (m *MarketService) GetFunding(ctx context.Context, symbol string) (exchange.FundingInfo, error) {
	res, err := m.cli.NewPremiumIndexService().Symbol(symbol).Do(ctx)
	if err != nil {
		return exchange.FundingInfo{}, err
	}
	if len(res) == 0 {
		return exchange.FundingInfo{}, fmt.Errorf("premium index %s: %w", symbol, exchange.ErrNotFound)
	}
	idx := res[0]
	rate, err := decimalx.FromString(idx.LastFundingRate)
	if err != nil {
		return exchange.FundingInfo{}, err
	}
	mark, err := decimalx.FromString(idx.MarkPrice)
	if err != nil {
		return exchange.FundingInfo{}, err
	}
	return exchange.FundingInfo{
		Symbol:          symbol,
		FundingRate:     rate,
		MarkPrice:       mark,
		NextFundingTime: time.UnixMilli(idx.NextFundingTime),
	}, nil
}

func (m *MarketService) GetOpenInterest(ctx context.Context, symbol string) (decimal.Decimal, error) {
	res, err := m.cli.NewGetOpenInterestService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return decimalx.FromString(res.OpenInterest)
}

// GetLongShortRatio 全市场多空账户比, 取最近一个周期
func (m *MarketService) GetLongShortRatio(ctx context.Context, symbol string, period exchange.Interval) (decimal.Decimal, error) {
	res, err := m.cli.NewLongShortRatioService().
		Symbol(symbol).
		Period(period.ToString()).
		Limit(1).
		Do(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if len(res) == 0 {
		return decimal.Zero, fmt.Errorf("long short ratio %s: %w", symbol, exchange.ErrNotFound)
	}
	return decimalx.FromString(res[len(res)-1].LongShortRatio)
}
