package indicator

import (
	"errors"
	"fmt"
	"time"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/shopspring/decimal"
)

type Metric string

const (
	MetricOIToVolumeRatio Metric = "oi_to_volume_ratio"
	MetricFundingRatePct  Metric = "funding_rate_pct"
	MetricLongShortRatio  Metric = "long_short_ratio"
	MetricPriceChangePct  Metric = "price_change_pct"
	MetricATRRatio        Metric = "atr_ratio"
)

func (m Metric) Valid() bool {
	switch m {
	case MetricOIToVolumeRatio, MetricFundingRatePct, MetricLongShortRatio, MetricPriceChangePct, MetricATRRatio:
		return true
	}
	return false
}

// Trend EMA/ATR 趋势快照
type Trend struct {
	EMA         decimal.Decimal
	ATR         decimal.Decimal
	ATRRatio    decimal.NullDecimal // ATR 为 0 时不可计算
	LatestClose decimal.Decimal
}

// ComputeTrend K线须按时间升序
func ComputeTrend(kLines []exchange.Kline, emaPeriod, atrPeriod int) (Trend, error) {
	need := MinTrendBars(emaPeriod, atrPeriod)
	if len(kLines) < need {
		return Trend{}, fmt.Errorf("trend needs %d bars, got %d: %w", need, len(kLines), ErrInsufficientData)
	}
	closes := exchange.Closes(kLines)
	ema, err := EMA(closes, emaPeriod)
	if err != nil {
		return Trend{}, err
	}
	atr, err := ATR(exchange.Highs(kLines), exchange.Lows(kLines), closes, atrPeriod)
	if err != nil {
		return Trend{}, err
	}
	t := Trend{
		EMA:         ema,
		ATR:         atr,
		LatestClose: closes[len(closes)-1],
	}
	ratio, err := ATRRatio(t.LatestClose, ema, atr)
	if err == nil {
		t.ATRRatio = decimal.NewNullDecimal(ratio)
	} else if !errors.Is(err, ErrZeroDivisor) {
		return Trend{}, err
	}
	return t, nil
}

// Snapshot 单个合约在一个周期内的全部指标, 缺失项为 Valid=false
type Snapshot struct {
	Instrument exchange.Instrument
	Volume24h  decimal.Decimal

	FundingRate     decimal.NullDecimal
	MarkPrice       decimal.NullDecimal
	NextFundingTime time.Time
	OpenInterest    decimal.NullDecimal
	LongShortRatio  decimal.NullDecimal
	MarketValue     decimal.NullDecimal
	OIToVolumeRatio decimal.NullDecimal

	PriceChangePct decimal.NullDecimal
	LastKline      *exchange.Kline
	Trend          *Trend
}

// Value 取规则所需的指标值, 不可用时 ok=false
func (s Snapshot) Value(m Metric) (decimal.Decimal, bool) {
	var v decimal.NullDecimal
	switch m {
	case MetricOIToVolumeRatio:
		v = s.OIToVolumeRatio
	case MetricFundingRatePct:
		if s.FundingRate.Valid {
			v = decimal.NewNullDecimal(s.FundingRate.Decimal.Mul(hundred))
		}
	case MetricLongShortRatio:
		v = s.LongShortRatio
	case MetricPriceChangePct:
		v = s.PriceChangePct
	case MetricATRRatio:
		if s.Trend != nil {
			v = s.Trend.ATRRatio
		}
	}
	return v.Decimal, v.Valid
}

// Derive 根据已取得的原始数据补全派生指标
func (s *Snapshot) Derive(kLines []exchange.Kline, emaPeriod, atrPeriod int, withTrend bool) []error {
	var errs []error
	if s.OpenInterest.Valid && s.MarkPrice.Valid {
		mv := MarketValue(s.OpenInterest.Decimal, s.MarkPrice.Decimal)
		s.MarketValue = decimal.NewNullDecimal(mv)
		ratio, err := OIToVolumeRatio(mv, s.Volume24h)
		if err != nil {
			errs = append(errs, err)
		} else {
			s.OIToVolumeRatio = decimal.NewNullDecimal(ratio)
		}
	}

	if len(kLines) > 0 {
		last := kLines[len(kLines)-1]
		s.LastKline = &last
		pct, err := PriceChangePct(last)
		if err != nil {
			errs = append(errs, err)
		} else {
			s.PriceChangePct = decimal.NewNullDecimal(pct)
		}
	}

	if withTrend {
		trend, err := ComputeTrend(kLines, emaPeriod, atrPeriod)
		if err != nil {
			errs = append(errs, err)
		} else {
			s.Trend = &trend
		}
	}
	return errs
}
