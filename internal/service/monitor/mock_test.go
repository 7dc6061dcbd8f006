package monitor

import (
	"context"
	"sync"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockInstrumentService struct {
	mock.Mock
}

func (m *MockInstrumentService) GetInstruments(ctx context.Context) ([]exchange.Instrument, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).([]exchange.Instrument)
	return res, args.Error(1)
}

type MockMarketService struct {
	mock.Mock
}

func (m *MockMarketService) Get24hVolumes(ctx context.Context) ([]exchange.VolumeSample, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).([]exchange.VolumeSample)
	return res, args.Error(1)
}

func (m *MockMarketService) GetFunding(ctx context.Context, symbol string) (exchange.FundingInfo, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(exchange.FundingInfo), args.Error(1)
}

func (m *MockMarketService) GetOpenInterest(ctx context.Context, symbol string) (decimal.Decimal, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockMarketService) GetLongShortRatio(ctx context.Context, symbol string, period exchange.Interval) (decimal.Decimal, error) {
	args := m.Called(ctx, symbol, period)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockMarketService) GetKlines(ctx context.Context, req exchange.GetKlinesReq) ([]exchange.Kline, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).([]exchange.Kline)
	return res, args.Error(1)
}

type mockService struct {
	instruments *MockInstrumentService
	market      *MockMarketService
}

func newMockService() *mockService {
	return &mockService{instruments: &MockInstrumentService{}, market: &MockMarketService{}}
}

func (s *mockService) Name() string                                  { return "mock" }
func (s *mockService) InstrumentService() exchange.InstrumentService { return s.instruments }
func (s *mockService) MarketService() exchange.MarketService         { return s.market }

type captureDispatcher struct {
	mu    sync.Mutex
	texts []string
}

func (c *captureDispatcher) Dispatch(ctx context.Context, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
}

func (c *captureDispatcher) Texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.texts...)
}

func perp(symbol, base string) exchange.Instrument {
	return exchange.Instrument{
		Symbol:       symbol,
		Base:         base,
		QuoteAsset:   "USDT",
		Status:       exchange.StatusTrading,
		ContractType: exchange.ContractPerpetual,
	}
}

func vol(symbol string, v int64) exchange.VolumeSample {
	return exchange.VolumeSample{Symbol: symbol, QuoteVolume: decimal.NewFromInt(v)}
}
