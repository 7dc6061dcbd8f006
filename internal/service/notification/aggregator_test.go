package notification

import (
	"errors"
	"testing"
	"time"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/KNICEX/perp-sentinel/internal/service/indicator"
	"github.com/KNICEX/perp-sentinel/internal/service/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregator_Aggregate(t *testing.T) {
	rules := strategy.DefaultAnomalyRules()
	classifier := strategy.NewClassifier(rules, exchange.Interval4h)
	agg := NewAggregator("OKX", rules)

	a := indicator.Snapshot{
		Instrument:      exchange.Instrument{Symbol: "A-USDT-SWAP"},
		Volume24h:       decimal.NewFromInt(100),
		MarketValue:     decimal.NewNullDecimal(decimal.NewFromInt(60)),
		OIToVolumeRatio: decimal.NewNullDecimal(decimal.RequireFromString("0.6")),
		FundingRate:     decimal.NewNullDecimal(decimal.RequireFromString("0.0005")),
	}
	b := indicator.Snapshot{
		Instrument:      exchange.Instrument{Symbol: "B-USDT-SWAP"},
		Volume24h:       decimal.NewFromInt(100),
		MarketValue:     decimal.NewNullDecimal(decimal.NewFromInt(20)),
		OIToVolumeRatio: decimal.NewNullDecimal(decimal.RequireFromString("0.2")),
		FundingRate:     decimal.NewNullDecimal(decimal.RequireFromString("0.0015")),
	}
	records := append(classifier.Classify(a), classifier.Classify(b)...)

	batches := agg.Aggregate(records, time.Now())
	require.Len(t, batches, 2)

	assert.Equal(t, strategy.CategoryStretch, batches[0].Category)
	require.Len(t, batches[0].Records, 1)
	assert.Equal(t, "A-USDT-SWAP", batches[0].Records[0].Symbol)
	assert.Equal(t, "🚨 OKX持仓价值/交易量比率异常提醒 >0.5\n\n⚠️ A-USDT-SWAP : 0.60 (持仓价值: 60.00，24h成交量: 100.00)", batches[0].Text)

	assert.Equal(t, strategy.CategoryFunding, batches[1].Category)
	require.Len(t, batches[1].Records, 1)
	assert.Equal(t, "B-USDT-SWAP", batches[1].Records[0].Symbol)
	assert.Equal(t, "💰 OKX资金费率异常提醒 >0.1% <-0.1%\n\n💰 B-USDT-SWAP : 0.1500%", batches[1].Text)
}

func TestAggregator_TrendDigest(t *testing.T) {
	agg := NewAggregator("", strategy.DefaultTrendRules())
	records := []strategy.AlertRecord{
		{Symbol: "BTCUSDT", Category: strategy.CategoryTrend, Text: "🟢 BTC: 1.00%, 👆 偏离 1.00 倍"},
		{Symbol: "ETHUSDT", Category: strategy.CategoryTrend, Text: "🔴 ETH: -1.00%, 👇 偏离 -1.00 倍"},
	}
	batches := agg.Aggregate(records, time.Date(2025, 3, 9, 7, 50, 0, 0, time.Local))
	require.Len(t, batches, 1)
	assert.Equal(t, "📊 技术指标监控 - 2025/3/9\n\n🟢 BTC: 1.00%, 👆 偏离 1.00 倍\n🔴 ETH: -1.00%, 👇 偏离 -1.00 倍", batches[0].Text)
}

func TestAggregator_NoRecords(t *testing.T) {
	agg := NewAggregator("OKX", strategy.DefaultAnomalyRules())
	assert.Empty(t, agg.Aggregate(nil, time.Now()))
}

func TestExecutionError(t *testing.T) {
	assert.Equal(t, "❌ OKX程序执行出错: boom", ExecutionError("OKX", errors.New("boom")))
	assert.Equal(t, "❌ 程序执行出错: boom", ExecutionError("", errors.New("boom")))
}
