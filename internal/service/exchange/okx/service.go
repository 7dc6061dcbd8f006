package okx

import (
	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
)

const Name = "okx"

var _ exchange.Service = (*Service)(nil)

type Service struct {
	instrumentSvc exchange.InstrumentService
	marketSvc     exchange.MarketService
}

func NewService(cli *Client) *Service {
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
