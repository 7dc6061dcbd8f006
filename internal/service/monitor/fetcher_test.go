package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/KNICEX/perp-sentinel/internal/service/indicator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func allSources() FetchParams {
	return FetchParams{
		Sources:         SourcesFor(map[indicator.Metric]bool{indicator.MetricOIToVolumeRatio: true, indicator.MetricLongShortRatio: true, indicator.MetricPriceChangePct: true}),
		KlineInterval:   exchange.Interval4h,
		KlineLimit:      1,
		LongShortPeriod: exchange.Interval5m,
		CallTimeout:     time.Second,
	}
}

func TestMetricFetcher_Fetch(t *testing.T) {
	market := &MockMarketService{}
	market.On("GetFunding", mock.Anything, "BTC-USDT-SWAP").Return(exchange.FundingInfo{MarkPrice: decimal.NewFromInt(100)}, nil)
	market.On("GetOpenInterest", mock.Anything, "BTC-USDT-SWAP").Return(decimal.Zero, errors.New("timeout"))
	market.On("GetLongShortRatio", mock.Anything, "BTC-USDT-SWAP", exchange.Interval5m).Return(decimal.NewFromInt(2), nil)
	market.On("GetKlines", mock.Anything, exchange.GetKlinesReq{Symbol: "BTC-USDT-SWAP", Interval: exchange.Interval4h, Limit: 1}).
		Return([]exchange.Kline{{Open: decimal.NewFromInt(1), Close: decimal.NewFromInt(2)}}, nil)

	res := NewMetricFetcher(market, allSources()).Fetch(context.Background(), "BTC-USDT-SWAP")
	require.NotNil(t, res.Funding)
	assert.False(t, res.OpenInterest.Valid)
	assert.True(t, res.LongShortRatio.Decimal.Equal(decimal.NewFromInt(2)))
	assert.Len(t, res.Klines, 1)
	assert.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors, SourceOpenInterest)
	market.AssertExpectations(t)
}

func TestMetricFetcher_StopsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	market := &MockMarketService{}
	market.On("GetFunding", mock.Anything, "BTC-USDT-SWAP").Run(func(args mock.Arguments) {
		cancel()
	}).Return(exchange.FundingInfo{}, context.Canceled)

	res := NewMetricFetcher(market, allSources()).Fetch(ctx, "BTC-USDT-SWAP")
	// 只有已发出的请求计为失败
	assert.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors, SourceFunding)
	market.AssertNotCalled(t, "GetOpenInterest", mock.Anything, mock.Anything)
	market.AssertNotCalled(t, "GetLongShortRatio", mock.Anything, mock.Anything, mock.Anything)
	market.AssertNotCalled(t, "GetKlines", mock.Anything, mock.Anything)

	res = NewMetricFetcher(market, allSources()).Fetch(ctx, "ETH-USDT-SWAP")
	assert.Empty(t, res.Errors)
	market.AssertNumberOfCalls(t, "GetFunding", 1)
}
