package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/KNICEX/perp-sentinel/internal/service/strategy"
	"github.com/samber/lo"
)

// AlertBatch 同一类别的告警合并为一条消息
type AlertBatch struct {
	Category strategy.Category
	Records  []strategy.AlertRecord
	Text     string
}

type Aggregator struct {
	label string // 消息中的交易所名, 如 OKX
	rules []strategy.Rule
}

func NewAggregator(label string, rules []strategy.Rule) *Aggregator {
	return &Aggregator{label: label, rules: rules}
}

// Aggregate 按规则中类别首次出现的顺序输出, 无记录的类别不产生消息
func (a *Aggregator) Aggregate(records []strategy.AlertRecord, at time.Time) []AlertBatch {
	grouped := lo.GroupBy(records, func(item strategy.AlertRecord) strategy.Category {
		return item.Category
	})
	categories := lo.Uniq(lo.Map(a.rules, func(item strategy.Rule, index int) strategy.Category {
		return item.Category
	}))

	var batches []AlertBatch
	for _, c := range categories {
		rs := grouped[c]
		if len(rs) == 0 {
			continue
		}
		lines := lo.Map(rs, func(item strategy.AlertRecord, index int) string {
			return item.Text
		})
		batches = append(batches, AlertBatch{
			Category: c,
			Records:  rs,
			Text:     a.header(c, at) + "\n\n" + strings.Join(lines, "\n"),
		})
	}
	return batches
}

func (a *Aggregator) header(c strategy.Category, at time.Time) string {
	rule, _ := lo.Find(a.rules, func(item strategy.Rule) bool {
		return item.Category == c
	})
	switch c {
	case strategy.CategoryStretch:
		return fmt.Sprintf("🚨 %s持仓价值/交易量比率异常提醒 %s", a.label, rule.Condition(""))
	case strategy.CategoryFunding:
		return fmt.Sprintf("💰 %s资金费率异常提醒 %s", a.label, rule.Condition("%"))
	case strategy.CategorySkew:
		return fmt.Sprintf("📊 %s多空比异常提醒 %s", a.label, rule.Condition(""))
	case strategy.CategoryVolatility:
		return fmt.Sprintf("📈 %s价格剧烈波动提醒 %s", a.label, rule.Condition("%"))
	case strategy.CategoryTrend:
		return fmt.Sprintf("📊 技术指标监控 - %s", at.Format("2006/1/2"))
	default:
		return fmt.Sprintf("%s %s", a.label, c)
	}
}

// ExecutionError 周期本身失败时发送的消息
func ExecutionError(label string, err error) string {
	return fmt.Sprintf("❌ %s程序执行出错: %v", label, err)
}
