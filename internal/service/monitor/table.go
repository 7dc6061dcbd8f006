package monitor

import (
	"fmt"
	"io"
	"strings"

	"github.com/KNICEX/perp-sentinel/internal/service/indicator"
	"github.com/KNICEX/perp-sentinel/pkg/decimalx"
	"github.com/shopspring/decimal"
)

const na = "N/A"

// TableWriter 每个合约一行的定宽表格, 字段顺序固定
type TableWriter struct {
	w       io.Writer
	sources Sources
}

func NewTableWriter(w io.Writer, sources Sources) *TableWriter {
	return &TableWriter{w: w, sources: sources}
}

func (t *TableWriter) Header() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-14s %-12s", "交易对", "24h成交量")
	if t.sources.Structural() {
		fmt.Fprintf(&b, " %-12s %-12s %-9s %-10s %s", "持仓价值", "未平仓合约", "多空比", "费率", "下次费率时间")
	}
	if t.sources.Trend {
		fmt.Fprintf(&b, " %-9s %-9s %-8s %s", "收盘价", "EMA", "ATR", "ATR倍数(±)")
	}
	return b.String()
}

func (t *TableWriter) Line(s indicator.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-14s %-12s", s.Instrument.Symbol, decimalx.Compact(s.Volume24h))
	if t.sources.Structural() {
		funding, next := na, na
		if s.FundingRate.Valid {
			funding = decimalx.Percent(s.FundingRate.Decimal).StringFixed(4) + "%"
			next = s.NextFundingTime.Format("15:04:05")
		}
		fmt.Fprintf(&b, " %-12s %-12s %-9s %-10s %s",
			compactOrNA(s.MarketValue), compactOrNA(s.OpenInterest), fixedOrNA(s.LongShortRatio, 2), funding, next)
	}
	if t.sources.Trend {
		if s.Trend == nil {
			fmt.Fprintf(&b, " %-9s %-9s %-8s %s", na, na, na, na)
		} else {
			ratio := na
			if s.Trend.ATRRatio.Valid {
				r := s.Trend.ATRRatio.Decimal
				sign := "-"
				if r.IsPositive() {
					sign = "+"
				}
				ratio = sign + r.Abs().StringFixed(2)
			}
			fmt.Fprintf(&b, " %-9s %-9s %-8s %s",
				s.Trend.LatestClose.StringFixed(4), s.Trend.EMA.StringFixed(4), s.Trend.ATR.StringFixed(4), ratio)
		}
	}
	return b.String()
}

// Write 表头加全部行
func (t *TableWriter) Write(snapshots []indicator.Snapshot) error {
	lines := make([]string, 0, len(snapshots)+2)
	header := t.Header()
	lines = append(lines, header, strings.Repeat("-", len([]rune(header))+8))
	for _, s := range snapshots {
		lines = append(lines, t.Line(s))
	}
	_, err := io.WriteString(t.w, strings.Join(lines, "\n")+"\n")
	return err
}

func compactOrNA(d decimal.NullDecimal) string {
	if !d.Valid {
		return na
	}
	return decimalx.Compact(d.Decimal)
}

func fixedOrNA(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return na
	}
	return d.Decimal.StringFixed(places)
}
