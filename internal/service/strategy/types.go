package strategy

import (
	"github.com/KNICEX/perp-sentinel/internal/service/indicator"
	"github.com/shopspring/decimal"
)

type Comparator string

const (
	CompareGreater    Comparator = "gt"
	CompareLess       Comparator = "lt"
	CompareOutside    Comparator = "outside" // v < lower || v > upper
	CompareAbsGreater Comparator = "abs_gt"
	CompareAlways     Comparator = "always" // 可计算即上报
)

type Category string

const (
	CategoryStretch    Category = "stretch"    // 持仓价值/成交量
	CategoryFunding    Category = "funding"    // 资金费率
	CategorySkew       Category = "skew"       // 多空比
	CategoryVolatility Category = "volatility" // 价格剧烈波动
	CategoryTrend      Category = "trend"      // 技术指标(EMA/ATR)偏离
)

// Rule 单条独立阈值规则, 互不影响
type Rule struct {
	ID         string           `mapstructure:"id" validate:"required"`
	Metric     indicator.Metric `mapstructure:"metric" validate:"required"`
	Comparator Comparator       `mapstructure:"comparator" validate:"required,oneof=gt lt outside abs_gt always"`
	Threshold  float64          `mapstructure:"threshold"`
	Lower      float64          `mapstructure:"lower"`
	Upper      float64          `mapstructure:"upper"`
	Category   Category         `mapstructure:"category" validate:"required,oneof=stretch funding skew volatility trend"`
}

// AlertRecord 对应唯一的 (合约, 规则)
type AlertRecord struct {
	Symbol   string
	RuleID   string
	Category Category
	Value    decimal.Decimal
	Text     string
}
