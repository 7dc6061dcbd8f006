package okx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestClient(t *testing.T, routes map[string]string, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, append([]ClientOption{WithHTTPClient(srv.Client())}, opts...)...)
}

func TestInstrumentService_GetInstruments(t *testing.T) {
	cli := initTestClient(t, map[string]string{
		"/api/v5/public/instruments": `{"code":"0","msg":"","data":[
			{"instId":"BTC-USDT-SWAP","instType":"SWAP","state":"live","ctType":"linear","settleCcy":"USDT"},
			{"instId":"ETH-USD-SWAP","instType":"SWAP","state":"suspend","ctType":"inverse","settleCcy":"ETH"}
		]}`,
	})
	res, err := NewInstrumentService(cli).GetInstruments(context.Background())
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, exchange.Instrument{
		Symbol:       "BTC-USDT-SWAP",
		Base:         "BTC",
		QuoteAsset:   "USDT",
		Status:       exchange.StatusTrading,
		ContractType: exchange.ContractPerpetual,
	}, res[0])
	assert.False(t, res[1].IsActivePerpetual())
	assert.Equal(t, "ETH", res[1].Coin())
}

func TestMarketService_Get24hVolumes(t *testing.T) {
	cli := initTestClient(t, map[string]string{
		"/api/v5/market/tickers": `{"code":"0","msg":"","data":[
			{"instId":"BTC-USDT-SWAP","last":"60000","volCcy24h":"2500","ts":"1700000000000"}
		]}`,
	})
	res, err := NewMarketService(cli).Get24hVolumes(context.Background())
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.True(t, decimal.NewFromInt(150_000_000).Equal(res[0].QuoteVolume))
	assert.Equal(t, time.UnixMilli(1700000000000), res[0].ObservedAt)
}

func TestMarketService_GetFunding(t *testing.T) {
	cli := initTestClient(t, map[string]string{
		"/api/v5/public/funding-rate": `{"code":"0","msg":"","data":[{"instId":"BTC-USDT-SWAP","fundingRate":"0.0012","fundingTime":"1700006400000","nextFundingTime":"1700035200000"}]}`,
		"/api/v5/public/mark-price":   `{"code":"0","msg":"","data":[{"instId":"BTC-USDT-SWAP","markPx":"60010.5"}]}`,
	})
	info, err := NewMarketService(cli).GetFunding(context.Background(), "BTC-USDT-SWAP")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.0012").Equal(info.FundingRate))
	assert.True(t, decimal.RequireFromString("60010.5").Equal(info.MarkPrice))
	assert.Equal(t, time.UnixMilli(1700006400000), info.NextFundingTime)
}

func TestMarketService_GetOpenInterest(t *testing.T) {
	cli := initTestClient(t, map[string]string{
		"/api/v5/public/open-interest": `{"code":"0","msg":"","data":[{"instId":"BTC-USDT-SWAP","oi":"250000","oiCcy":"2500"}]}`,
	})
	oi, err := NewMarketService(cli).GetOpenInterest(context.Background(), "BTC-USDT-SWAP")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2500).Equal(oi))
}

func TestMarketService_GetLongShortRatio(t *testing.T) {
	cli := initTestClient(t, map[string]string{
		"/api/v5/rubik/stat/contracts/long-short-account-ratio-contract": `{"code":"0","msg":"","data":[["1700000000000","3.82"]]}`,
	})
	r, err := NewMarketService(cli).GetLongShortRatio(context.Background(), "BTC-USDT-SWAP", exchange.Interval5m)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("3.82").Equal(r))
}

func TestMarketService_GetKlines(t *testing.T) {
	cli := initTestClient(t, map[string]string{
		"/api/v5/market/candles": `{"code":"0","msg":"","data":[
			["1700014400000","110","125","108","121","10","1000","121000","0"],
			["1700000000000","100","112","99","110","20","2000","210000","1"]
		]}`,
	})
	kls, err := NewMarketService(cli).GetKlines(context.Background(), exchange.GetKlinesReq{
		Symbol:   "BTC-USDT-SWAP",
		Interval: exchange.Interval4h,
		Limit:    2,
	})
	require.NoError(t, err)
	require.Len(t, kls, 2)
	assert.Equal(t, time.UnixMilli(1700000000000), kls[0].OpenTime)
	assert.True(t, decimal.NewFromInt(121).Equal(kls[1].Close))
	assert.Equal(t, kls[1].OpenTime.Add(4*time.Hour-time.Millisecond), kls[1].CloseTime)

	_, err = NewMarketService(cli).GetKlines(context.Background(), exchange.GetKlinesReq{
		Symbol:   "BTC-USDT-SWAP",
		Interval: exchange.Interval3d,
	})
	assert.Error(t, err)
}

func TestClient_APIError(t *testing.T) {
	cli := initTestClient(t, map[string]string{
		"/api/v5/public/open-interest": `{"code":"51001","msg":"Instrument ID does not exist","data":[]}`,
	})
	_, err := NewMarketService(cli).GetOpenInterest(context.Background(), "NOPE-USDT-SWAP")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "51001")

	_, err = NewMarketService(cli).GetLongShortRatio(context.Background(), "BTC-USDT-SWAP", exchange.Interval5m)
	assert.Error(t, err)
}

func TestClient_SignsRequests(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"code":"0","msg":"","data":[]}`))
	}))
	defer srv.Close()

	signer := NewHMACSigner("key", "secret", "pass")
	signer.now = func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }
	cli := NewClient(srv.URL, WithHTTPClient(srv.Client()), WithSigner(signer))
	_, err := NewInstrumentService(cli).GetInstruments(context.Background())
	require.NoError(t, err)

	want, err := signer.Sign(http.MethodGet, "/api/v5/public/instruments?instType=SWAP", "")
	require.NoError(t, err)
	assert.Equal(t, "key", got.Get("OK-ACCESS-KEY"))
	assert.Equal(t, "pass", got.Get("OK-ACCESS-PASSPHRASE"))
	assert.Equal(t, "2025-03-01T08:00:00.000Z", got.Get("OK-ACCESS-TIMESTAMP"))
	assert.Equal(t, want.Get("OK-ACCESS-SIGN"), got.Get("OK-ACCESS-SIGN"))
}
