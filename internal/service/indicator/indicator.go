package indicator

import (
	"errors"
	"fmt"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/KNICEX/perp-sentinel/pkg/decimalx"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientData = errors.New("indicator: insufficient data")
	ErrZeroDivisor      = errors.New("indicator: zero divisor")
)

var (
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

// EMA 以前 period 个收盘价的算术平均为种子, 之后逐根递推
func EMA(closes []decimal.Decimal, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, fmt.Errorf("ema period %d: %w", period, ErrInsufficientData)
	}
	if len(closes) < period {
		return decimal.Zero, fmt.Errorf("ema(%d) needs %d closes, got %d: %w", period, period, len(closes), ErrInsufficientData)
	}

	ema := decimalx.Mean(closes[:period])
	divisor := decimal.NewFromInt(int64(period + 1))
	for _, c := range closes[period:] {
		// 先乘后除, 避免 2/(period+1) 的截断误差累积
		ema = c.Sub(ema).Mul(two).Div(divisor).Add(ema)
	}
	return ema, nil
}

// TrueRange TR_i = max(high-low, |high-prevClose|, |low-prevClose|), i 从 1 开始
func TrueRange(highs, lows, closes []decimal.Decimal) []decimal.Decimal {
	n := min(len(highs), len(lows), len(closes))
	if n < 2 {
		return nil
	}
	trs := make([]decimal.Decimal, 0, n-1)
	for i := 1; i < n; i++ {
		prevClose := closes[i-1]
		tr := decimal.Max(
			highs[i].Sub(lows[i]),
			highs[i].Sub(prevClose).Abs(),
			lows[i].Sub(prevClose).Abs(),
		)
		trs = append(trs, tr)
	}
	return trs
}

// ATR Wilder 平滑
func ATR(highs, lows, closes []decimal.Decimal, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, fmt.Errorf("atr period %d: %w", period, ErrInsufficientData)
	}
	n := min(len(highs), len(lows), len(closes))
	if n < period+1 {
		return decimal.Zero, fmt.Errorf("atr(%d) needs %d bars, got %d: %w", period, period+1, n, ErrInsufficientData)
	}

	trs := TrueRange(highs, lows, closes)
	p := decimal.NewFromInt(int64(period))
	pMinus1 := decimal.NewFromInt(int64(period - 1))

	atr := decimalx.Mean(trs[:period])
	for _, tr := range trs[period:] {
		atr = pMinus1.Mul(atr).Add(tr).Div(p)
	}
	return atr, nil
}

// PriceChangePct 单根K线涨跌幅(%)
func PriceChangePct(k exchange.Kline) (decimal.Decimal, error) {
	if k.Open.IsZero() {
		return decimal.Zero, fmt.Errorf("price change of zero open: %w", ErrZeroDivisor)
	}
	return k.Close.Sub(k.Open).Div(k.Open).Mul(hundred), nil
}

// ATRRatio 收盘价偏离 EMA 的 ATR 倍数, 带符号
func ATRRatio(latestClose, ema, atr decimal.Decimal) (decimal.Decimal, error) {
	if atr.IsZero() {
		return decimal.Zero, fmt.Errorf("atr ratio with zero atr: %w", ErrZeroDivisor)
	}
	return latestClose.Sub(ema).Div(atr), nil
}

// MarketValue 持仓价值 = 持仓量 * 标记价格
func MarketValue(openInterest, markPrice decimal.Decimal) decimal.Decimal {
	return openInterest.Mul(markPrice)
}

func OIToVolumeRatio(marketValue, volume24h decimal.Decimal) (decimal.Decimal, error) {
	if volume24h.IsZero() {
		return decimal.Zero, fmt.Errorf("oi/volume with zero volume: %w", ErrZeroDivisor)
	}
	return marketValue.Div(volume24h), nil
}

// MinTrendBars 计算 EMA 与 ATR 所需的最少K线数
func MinTrendBars(emaPeriod, atrPeriod int) int {
	return max(emaPeriod, atrPeriod+1)
}
