package okx

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/KNICEX/perp-sentinel/pkg/decimalx"
	"github.com/shopspring/decimal"
)

type ticker struct {
	InstID    string `json:"instId"`
	Last      string `json:"last"`
	VolCcy24h string `json:"volCcy24h"`
	Ts        string `json:"ts"`
}

type fundingRate struct {
	InstID          string `json:"instId"`
	FundingRate     string `json:"fundingRate"`
	FundingTime     string `json:"fundingTime"`
	NextFundingTime string `json:"nextFundingTime"`
}

type markPrice struct {
	InstID string `json:"instId"`
	MarkPx string `json:"markPx"`
}

type openInterest struct {
	InstID string `json:"instId"`
	Oi     string `json:"oi"`
	OiCcy  string `json:"oiCcy"`
}

var _ exchange.MarketService = (*MarketService)(nil)

type MarketService struct {
	cli *Client
}

func NewMarketService(cli *Client) *MarketService {
	return &MarketService{cli: cli}
}

// Get24hVolumes SWAP 的 volCcy24h 以币计, 乘最新价换算为计价币成交额
func (m *MarketService) Get24hVolumes(ctx context.Context) ([]exchange.VolumeSample, error) {
	data, err := get[ticker](ctx, m.cli, "/api/v5/market/tickers", url.Values{"instType": {"SWAP"}})
	if err != nil {
		return nil, err
	}
	res := make([]exchange.VolumeSample, 0, len(data))
	for _, t := range data {
		vol, err := decimalx.FromString(t.VolCcy24h)
		if err != nil {
			return nil, fmt.Errorf("%s volCcy24h: %w", t.InstID, err)
		}
		last, err := decimalx.FromString(t.Last)
		if err != nil {
			return nil, fmt.Errorf("%s last: %w", t.InstID, err)
		}
		res = append(res, exchange.VolumeSample{
			Symbol:      t.InstID,
			QuoteVolume: vol.Mul(last),
			ObservedAt:  parseMillis(t.Ts),
		})
	}
	return res, nil
}

func (m *MarketService) GetFunding(ctx context.Context, symbol string) (exchange.FundingInfo, error) {
	rates, err := get[fundingRate](ctx, m.cli, "/api/v5/public/funding-rate", url.Values{"instId": {symbol}})
	if err != nil {
		return exchange.FundingInfo{}, err
	}
	if len(rates) == 0 {
		return exchange.FundingInfo{}, fmt.Errorf("funding rate %s: %w", symbol, exchange.ErrNotFound)
	}
	marks, err := get[markPrice](ctx, m.cli, "/api/v5/public/mark-price", url.Values{
		"instType": {"SWAP"},
		"instId":   {symbol},
	})
	if err != nil {
		return exchange.FundingInfo{}, err
	}
	if len(marks) == 0 {
		return exchange.FundingInfo{}, fmt.Errorf("mark price %s: %w", symbol, exchange.ErrNotFound)
	}

	rate, err := decimalx.FromString(rates[0].FundingRate)
	if err != nil {
		return exchange.FundingInfo{}, err
	}
	mark, err := decimalx.FromString(marks[0].MarkPx)
	if err != nil {
		return exchange.FundingInfo{}, err
	}
	// fundingTime 是即将结算的时间点
	return exchange.FundingInfo{
		Symbol:          symbol,
		FundingRate:     rate,
		MarkPrice:       mark,
		NextFundingTime: parseMillis(rates[0].FundingTime),
	}, nil
}

// GetOpenInterest 返回以币计的持仓量(oiCcy), 与标记价格相乘即持仓价值
func (m *MarketService) GetOpenInterest(ctx context.Context, symbol string) (decimal.Decimal, error) {
	data, err := get[openInterest](ctx, m.cli, "/api/v5/public/open-interest", url.Values{
		"instType": {"SWAP"},
		"instId":   {symbol},
	})
	if err != nil {
		return decimal.Zero, err
	}
	if len(data) == 0 {
		return decimal.Zero, fmt.Errorf("open interest %s: %w", symbol, exchange.ErrNotFound)
	}
	return decimalx.FromString(data[0].OiCcy)
}

// GetLongShortRatio data 为 [[ts, ratio], ...], 最新在前
func (m *MarketService) GetLongShortRatio(ctx context.Context, symbol string, period exchange.Interval) (decimal.Decimal, error) {
	bar, err := okxBar(period)
	if err != nil {
		return decimal.Zero, err
	}
	data, err := get[[]string](ctx, m.cli, "/api/v5/rubik/stat/contracts/long-short-account-ratio-contract", url.Values{
		"instId": {symbol},
		"period": {bar},
		"limit":  {"1"},
	})
	if err != nil {
		return decimal.Zero, err
	}
	if len(data) == 0 || len(data[0]) < 2 {
		return decimal.Zero, fmt.Errorf("long short ratio %s: %w", symbol, exchange.ErrNotFound)
	}
	return decimalx.FromString(data[0][1])
}

// GetKlines candles 接口最新在前, 这里翻转为升序
func (m *MarketService) GetKlines(ctx context.Context, req exchange.GetKlinesReq) ([]exchange.Kline, error) {
	bar, err := okxBar(req.Interval)
	if err != nil {
		return nil, err
	}
	query := url.Values{
		"instId": {req.Symbol},
		"bar":    {bar},
	}
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}
	data, err := get[[]string](ctx, m.cli, "/api/v5/market/candles", query)
	if err != nil {
		return nil, err
	}

	kls := make([]exchange.Kline, 0, len(data))
	for _, row := range data {
		kl, err := convertCandle(row, req.Interval)
		if err != nil {
			return nil, fmt.Errorf("%s candle: %w", req.Symbol, err)
		}
		kls = append(kls, kl)
	}
	slices.Reverse(kls)
	return kls, nil
}

// convertCandle [ts, o, h, l, c, vol, volCcy, volCcyQuote, confirm]
func convertCandle(row []string, interval exchange.Interval) (exchange.Kline, error) {
	if len(row) < 8 {
		return exchange.Kline{}, fmt.Errorf("short candle row: %d fields", len(row))
	}
	var (
		kl  exchange.Kline
		err error
	)
	fields := []struct {
		dst *decimal.Decimal
		src string
	}{
		{&kl.Open, row[1]},
		{&kl.High, row[2]},
		{&kl.Low, row[3]},
		{&kl.Close, row[4]},
		{&kl.Volume, row[6]},
		{&kl.QuoteAssetVolume, row[7]},
	}
	for _, f := range fields {
		if *f.dst, err = decimalx.FromString(f.src); err != nil {
			return exchange.Kline{}, err
		}
	}
	kl.OpenTime = parseMillis(row[0])
	kl.CloseTime = kl.OpenTime.Add(interval.Duration() - time.Millisecond)
	return kl, nil
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
