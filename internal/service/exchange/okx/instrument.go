package okx

import (
	"context"
	"net/url"
	"strings"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/samber/lo"
)

type instrument struct {
	InstID   string `json:"instId"`
	InstType string `json:"instType"`
	State    string `json:"state"`
	CtType   string `json:"ctType"`
	SettleCy string `json:"settleCcy"`
}

var _ exchange.InstrumentService = (*InstrumentService)(nil)

type InstrumentService struct {
	cli *Client
}

func NewInstrumentService(cli *Client) *InstrumentService {
	return &InstrumentService{cli: cli}
}

func (svc *InstrumentService) GetInstruments(ctx context.Context) ([]exchange.Instrument, error) {
	data, err := get[instrument](ctx, svc.cli, "/api/v5/public/instruments", url.Values{"instType": {"SWAP"}})
	if err != nil {
		return nil, err
	}
	return lo.Map(data, func(item instrument, index int) exchange.Instrument {
		return fromOKXInstrument(item)
	}), nil
}

// fromOKXInstrument BTC-USDT-SWAP -> base BTC, quote USDT
func fromOKXInstrument(item instrument) exchange.Instrument {
	inst := exchange.Instrument{
		Symbol:       item.InstID,
		Status:       exchange.StatusHalted,
		ContractType: exchange.ContractUnknown,
	}
	parts := strings.Split(item.InstID, "-")
	if len(parts) >= 2 {
		inst.Base = parts[0]
		inst.QuoteAsset = parts[1]
	}
	if item.State == "live" {
		inst.Status = exchange.StatusTrading
	}
	switch item.InstType {
	case "SWAP":
		inst.ContractType = exchange.ContractPerpetual
	case "FUTURES":
		inst.ContractType = exchange.ContractDelivery
	}
	return inst
}
