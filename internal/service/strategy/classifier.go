package strategy

import (
	"fmt"
	"time"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/KNICEX/perp-sentinel/internal/service/indicator"
	"github.com/KNICEX/perp-sentinel/pkg/decimalx"
	"github.com/shopspring/decimal"
)

var (
	ten    = decimal.NewFromInt(10)
	twenty = decimal.NewFromInt(20)
)

// Classifier 无状态, 逐条规则独立判断
type Classifier struct {
	rules    []Rule
	interval exchange.Interval
}

func NewClassifier(rules []Rule, interval exchange.Interval) *Classifier {
	return &Classifier{rules: rules, interval: interval}
}

// Classify 指标缺失时跳过依赖它的规则
func (c *Classifier) Classify(s indicator.Snapshot) []AlertRecord {
	var records []AlertRecord
	for _, r := range c.rules {
		v, ok := s.Value(r.Metric)
		if !ok || !r.Match(v) {
			continue
		}
		records = append(records, AlertRecord{
			Symbol:   s.Instrument.Symbol,
			RuleID:   r.ID,
			Category: r.Category,
			Value:    v,
			Text:     c.format(r.Category, s, v),
		})
	}
	return records
}

func (c *Classifier) format(category Category, s indicator.Snapshot, v decimal.Decimal) string {
	sym := s.Instrument.Symbol
	switch category {
	case CategoryStretch:
		return fmt.Sprintf("⚠️ %s : %s (持仓价值: %s，24h成交量: %s)",
			sym, v.StringFixed(2), decimalx.Compact(s.MarketValue.Decimal), decimalx.Compact(s.Volume24h))
	case CategoryFunding:
		return fmt.Sprintf("💰 %s : %s%%", sym, v.StringFixed(4))
	case CategorySkew:
		return fmt.Sprintf("📊 %s : %s", sym, v.StringFixed(2))
	case CategoryVolatility:
		line := fmt.Sprintf("📈 %s %sk线: %s%%", sym, IntervalLabel(c.interval), v.StringFixed(2))
		if s.LastKline != nil {
			line += fmt.Sprintf(" (开盘: %s, 当前: %s)", s.LastKline.Open.StringFixed(4), s.LastKline.Close.StringFixed(4))
		}
		return line
	case CategoryTrend:
		return TrendLine(s.Instrument.Coin(), s.PriceChangePct, v)
	default:
		return fmt.Sprintf("%s : %s", sym, v.String())
	}
}

// TrendLine 🟢🔥 BTC: 12.34%, 👆 偏离 2.10 倍
func TrendLine(coin string, priceChangePct decimal.NullDecimal, atrRatio decimal.Decimal) string {
	emoji := "🔴"
	pct := priceChangePct.Decimal
	if pct.IsPositive() {
		emoji = "🟢"
	}
	switch {
	case pct.Abs().GreaterThan(twenty):
		emoji += "🔥🔥"
	case pct.Abs().GreaterThan(ten):
		emoji += "🔥"
	}
	direction := "👇"
	if atrRatio.IsPositive() {
		direction = "👆"
	}
	pctText := "N/A"
	if priceChangePct.Valid {
		pctText = pct.StringFixed(2) + "%"
	}
	return fmt.Sprintf("%s %s: %s, %s 偏离 %s 倍", emoji, coin, pctText, direction, atrRatio.StringFixed(2))
}

// IntervalLabel 4h -> 4小时, 1d -> 1日
func IntervalLabel(i exchange.Interval) string {
	d := i.Duration()
	switch {
	case d == 0:
		return string(i)
	case d%(24*time.Hour) == 0:
		return fmt.Sprintf("%d日", int(d.Hours()/24))
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%d小时", int(d.Hours()))
	default:
		return fmt.Sprintf("%d分钟", int(d.Minutes()))
	}
}
