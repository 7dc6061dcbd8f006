package strategy

import (
	"testing"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/KNICEX/perp-sentinel/internal/service/indicator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(s))
}

func TestRule_Match(t *testing.T) {
	testCases := []struct {
		name string
		rule Rule
		in   string
		want bool
	}{
		{name: "gt above", rule: Rule{Comparator: CompareGreater, Threshold: 0.5}, in: "0.6", want: true},
		{name: "gt equal", rule: Rule{Comparator: CompareGreater, Threshold: 0.5}, in: "0.5", want: false},
		{name: "lt", rule: Rule{Comparator: CompareLess, Threshold: 1}, in: "0.99", want: true},
		{name: "abs positive", rule: Rule{Comparator: CompareAbsGreater, Threshold: 0.1}, in: "0.15", want: true},
		{name: "abs negative", rule: Rule{Comparator: CompareAbsGreater, Threshold: 0.1}, in: "-0.12", want: true},
		{name: "abs inside", rule: Rule{Comparator: CompareAbsGreater, Threshold: 0.1}, in: "0.05", want: false},
		{name: "outside low", rule: Rule{Comparator: CompareOutside, Lower: 0.5, Upper: 3.5}, in: "0.4", want: true},
		{name: "outside high", rule: Rule{Comparator: CompareOutside, Lower: 0.5, Upper: 3.5}, in: "3.6", want: true},
		{name: "outside boundary", rule: Rule{Comparator: CompareOutside, Lower: 0.5, Upper: 3.5}, in: "3.5", want: false},
		{name: "always", rule: Rule{Comparator: CompareAlways}, in: "0", want: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.rule.Match(d(tc.in)))
		})
	}
}

func TestRule_Condition(t *testing.T) {
	rules := DefaultAnomalyRules()
	assert.Equal(t, ">0.5", rules[0].Condition(""))
	assert.Equal(t, ">0.1% <-0.1%", rules[1].Condition("%"))
	assert.Equal(t, "<0.5 >3.5", rules[2].Condition(""))
}

func TestRule_Validate(t *testing.T) {
	for _, r := range append(DefaultAnomalyRules(), DefaultTrendRules()...) {
		assert.NoError(t, r.Validate(), r.ID)
	}
	assert.Error(t, Rule{ID: "x", Metric: "nope", Comparator: CompareAlways}.Validate())
	assert.Error(t, Rule{ID: "x", Metric: indicator.MetricLongShortRatio, Comparator: CompareOutside, Lower: 2, Upper: 1}.Validate())
	assert.Error(t, Rule{ID: "x", Metric: indicator.MetricLongShortRatio, Comparator: "between"}.Validate())
}

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(DefaultAnomalyRules(), exchange.Interval4h)

	t.Run("multiple rules fire independently", func(t *testing.T) {
		s := indicator.Snapshot{
			Instrument:      exchange.Instrument{Symbol: "PEPE-USDT-SWAP", Base: "PEPE", QuoteAsset: "USDT"},
			Volume24h:       d("200000000"),
			MarketValue:     nd("140000000"),
			OIToVolumeRatio: nd("0.7"),
			FundingRate:     nd("-0.0025"),
			LongShortRatio:  nd("4.1"),
			PriceChangePct:  nd("-12.5"),
			LastKline:       &exchange.Kline{Open: d("1"), Close: d("0.875")},
		}
		records := c.Classify(s)
		require.Len(t, records, 4)
		assert.Equal(t, "⚠️ PEPE-USDT-SWAP : 0.70 (持仓价值: 140.00M，24h成交量: 200.00M)", records[0].Text)
		assert.Equal(t, "💰 PEPE-USDT-SWAP : -0.2500%", records[1].Text)
		assert.Equal(t, "📊 PEPE-USDT-SWAP : 4.10", records[2].Text)
		assert.Equal(t, "📈 PEPE-USDT-SWAP 4小时k线: -12.50% (开盘: 1.0000, 当前: 0.8750)", records[3].Text)
		for _, r := range records {
			assert.Equal(t, "PEPE-USDT-SWAP", r.Symbol)
		}
	})

	t.Run("missing metrics skip only dependent rules", func(t *testing.T) {
		s := indicator.Snapshot{
			Instrument:  exchange.Instrument{Symbol: "X-USDT-SWAP"},
			FundingRate: nd("0.002"),
		}
		records := c.Classify(s)
		require.Len(t, records, 1)
		assert.Equal(t, CategoryFunding, records[0].Category)
		assert.Equal(t, "funding-extreme", records[0].RuleID)
	})

	t.Run("nothing fires", func(t *testing.T) {
		assert.Empty(t, c.Classify(indicator.Snapshot{}))
	})
}

func TestClassifier_PositionAndFundingAreSeparate(t *testing.T) {
	c := NewClassifier(DefaultAnomalyRules(), exchange.Interval4h)
	a := indicator.Snapshot{
		Instrument:      exchange.Instrument{Symbol: "A"},
		OIToVolumeRatio: nd("0.6"),
		FundingRate:     nd("0.0005"),
	}
	b := indicator.Snapshot{
		Instrument:      exchange.Instrument{Symbol: "B"},
		OIToVolumeRatio: nd("0.2"),
		FundingRate:     nd("0.0015"),
	}
	ra := c.Classify(a)
	rb := c.Classify(b)
	require.Len(t, ra, 1)
	require.Len(t, rb, 1)
	assert.Equal(t, CategoryStretch, ra[0].Category)
	assert.Equal(t, CategoryFunding, rb[0].Category)
}

func TestTrendLine(t *testing.T) {
	testCases := []struct {
		name  string
		pct   decimal.NullDecimal
		ratio string
		want  string
	}{
		{name: "up hot", pct: nd("12.345"), ratio: "2.1", want: "🟢🔥 BTC: 12.35%, 👆 偏离 2.10 倍"},
		{name: "down very hot", pct: nd("-25"), ratio: "-3.456", want: "🔴🔥🔥 BTC: -25.00%, 👇 偏离 -3.46 倍"},
		{name: "flat", pct: nd("0"), ratio: "0", want: "🔴 BTC: 0.00%, 👇 偏离 0.00 倍"},
		{name: "no pct", pct: decimal.NullDecimal{}, ratio: "1", want: "🔴 BTC: N/A, 👆 偏离 1.00 倍"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TrendLine("BTC", tc.pct, d(tc.ratio)))
		})
	}
}

func TestIntervalLabel(t *testing.T) {
	assert.Equal(t, "4小时", IntervalLabel(exchange.Interval4h))
	assert.Equal(t, "1日", IntervalLabel(exchange.Interval1d))
	assert.Equal(t, "15分钟", IntervalLabel(exchange.Interval15m))
}

func TestNeeds(t *testing.T) {
	needs := Needs(DefaultTrendRules())
	assert.True(t, needs[indicator.MetricATRRatio])
	assert.False(t, needs[indicator.MetricFundingRatePct])
}
