package exchange

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("exchange: not found")

type InstrumentStatus string

const (
	StatusTrading InstrumentStatus = "TRADING"
	StatusHalted  InstrumentStatus = "HALTED"
	StatusUnknown InstrumentStatus = "UNKNOWN"
)

type ContractType string

const (
	ContractPerpetual ContractType = "PERPETUAL"
	ContractDelivery  ContractType = "DELIVERY"
	ContractUnknown   ContractType = "UNKNOWN"
)

// Instrument 可交易合约
type Instrument struct {
	Symbol       string // 交易所原始标识, 如 BTCUSDT / BTC-USDT-SWAP
	Base         string
	QuoteAsset   string
	Status       InstrumentStatus
	ContractType ContractType
}

func (i Instrument) IsActivePerpetual() bool {
	return i.Status == StatusTrading && i.ContractType == ContractPerpetual
}

// Coin 去掉计价币后的币种名, 用于消息展示
func (i Instrument) Coin() string {
	if i.Base != "" {
		return i.Base
	}
	return strings.TrimSuffix(i.Symbol, i.QuoteAsset)
}

// VolumeSample 24h 成交额(计价币)
type VolumeSample struct {
	Symbol      string
	QuoteVolume decimal.Decimal
	ObservedAt  time.Time
}

// FundingInfo 资金费率与标记价格
type FundingInfo struct {
	Symbol          string
	FundingRate     decimal.Decimal // 原始比例, 0.0001 = 0.01%
	MarkPrice       decimal.Decimal
	NextFundingTime time.Time
}

type GetKlinesReq struct {
	Symbol   string
	Interval Interval
	Limit    int
}

type InstrumentService interface {
	GetInstruments(ctx context.Context) ([]Instrument, error)
}

type MarketService interface {
	Get24hVolumes(ctx context.Context) ([]VolumeSample, error)
	GetFunding(ctx context.Context, symbol string) (FundingInfo, error)
	GetOpenInterest(ctx context.Context, symbol string) (decimal.Decimal, error)
	GetLongShortRatio(ctx context.Context, symbol string, period Interval) (decimal.Decimal, error)
	// GetKlines 返回按开盘时间升序排列的K线
	GetKlines(ctx context.Context, req GetKlinesReq) ([]Kline, error)
}

// Service 一个数据源(交易所)
type Service interface {
	Name() string
	InstrumentService() InstrumentService
	MarketService() MarketService
}
