package binance

import (
	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/adshao/go-binance/v2/futures"
)

const Name = "binance"

var _ exchange.Service = (*Service)(nil)

type Service struct {
	instrumentSvc exchange.InstrumentService
	marketSvc     exchange.MarketService
}

func NewService(cli *futures.Client) *Service {
	return &Service{
		instrumentSvc: NewInstrumentService(cli),
		marketSvc:     NewMarketService(cli),
	}
}

func (s *Service) Name() string {
	return Name
}

func (s *Service) InstrumentService() exchange.InstrumentService {
	return s.instrumentSvc
}

func (s *Service) MarketService() exchange.MarketService {
	return s.marketSvc
}
