package strategy

import (
	"fmt"

	"github.com/KNICEX/perp-sentinel/internal/service/indicator"
	"github.com/shopspring/decimal"
)

func (r Rule) Validate() error {
	if !r.Metric.Valid() {
		return fmt.Errorf("rule %s: unknown metric %q", r.ID, r.Metric)
	}
	switch r.Comparator {
	case CompareGreater, CompareLess, CompareAlways:
	case CompareAbsGreater:
		if r.Threshold < 0 {
			return fmt.Errorf("rule %s: abs threshold must be >= 0", r.ID)
		}
	case CompareOutside:
		if r.Lower >= r.Upper {
			return fmt.Errorf("rule %s: lower %v must be below upper %v", r.ID, r.Lower, r.Upper)
		}
	default:
		return fmt.Errorf("rule %s: unknown comparator %q", r.ID, r.Comparator)
	}
	return nil
}

// Match 纯函数, 只看当前值
func (r Rule) Match(v decimal.Decimal) bool {
	threshold := decimal.NewFromFloat(r.Threshold)
	switch r.Comparator {
	case CompareGreater:
		return v.GreaterThan(threshold)
	case CompareLess:
		return v.LessThan(threshold)
	case CompareAbsGreater:
		return v.Abs().GreaterThan(threshold)
	case CompareOutside:
		return v.LessThan(decimal.NewFromFloat(r.Lower)) || v.GreaterThan(decimal.NewFromFloat(r.Upper))
	case CompareAlways:
		return true
	default:
		return false
	}
}

// Condition 阈值描述, 用于消息标题, 如 ">0.5" "<0.5 >3.5"
func (r Rule) Condition(unit string) string {
	f := func(v float64) string {
		return decimal.NewFromFloat(v).String() + unit
	}
	switch r.Comparator {
	case CompareGreater:
		return ">" + f(r.Threshold)
	case CompareLess:
		return "<" + f(r.Threshold)
	case CompareAbsGreater:
		return ">" + f(r.Threshold) + " <" + f(-r.Threshold)
	case CompareOutside:
		return "<" + f(r.Lower) + " >" + f(r.Upper)
	default:
		return ""
	}
}

func DefaultAnomalyRules() []Rule {
	return []Rule{
		{
			ID:         "oi-volume-stretch",
			Metric:     indicator.MetricOIToVolumeRatio,
			Comparator: CompareGreater,
			Threshold:  0.5,
			Category:   CategoryStretch,
		},
		{
			ID:         "funding-extreme",
			Metric:     indicator.MetricFundingRatePct,
			Comparator: CompareAbsGreater,
			Threshold:  0.1,
			Category:   CategoryFunding,
		},
		{
			ID:         "long-short-skew",
			Metric:     indicator.MetricLongShortRatio,
			Comparator: CompareOutside,
			Lower:      0.5,
			Upper:      3.5,
			Category:   CategorySkew,
		},
		{
			ID:         "price-spike",
			Metric:     indicator.MetricPriceChangePct,
			Comparator: CompareAbsGreater,
			Threshold:  10,
			Category:   CategoryVolatility,
		},
	}
}

func DefaultTrendRules() []Rule {
	return []Rule{
		{
			ID:         "trend-deviation",
			Metric:     indicator.MetricATRRatio,
			Comparator: CompareAlways,
			Category:   CategoryTrend,
		},
	}
}

// Needs 汇总规则依赖的指标
func Needs(rules []Rule) map[indicator.Metric]bool {
	res := make(map[indicator.Metric]bool, len(rules))
	for _, r := range rules {
		res[r.Metric] = true
	}
	return res
}
