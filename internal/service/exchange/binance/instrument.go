package binance

import (
	"context"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/samber/lo"
)

// 已下架但 exchangeInfo 仍可能返回的币种
var binanceDelistedBase = []string{
	"BTCST", "SRM", "RAY", "FTT", "CVC", "BTS", "TOMO", "SC", "HNT", "ANT",
	"COCOS", "STRAX", "DGB", "CTK", "BLUEBIRD", "FOOTBALL", "USDC",
}

var _ exchange.InstrumentService = (*InstrumentService)(nil)

type InstrumentService struct {
	cli          *futures.Client
	delistedBase map[string]struct{}
}

func NewInstrumentService(cli *futures.Client) *InstrumentService {
	return &InstrumentService{
		cli: cli,
		delistedBase: lo.SliceToMap(binanceDelistedBase, func(item string) (string, struct{}) {
			return item, struct{}{}
		}),
	}
}

func (svc *InstrumentService) GetInstruments(ctx context.Context) ([]exchange.Instrument, error) {
	info, err := svc.cli.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, err
	}

	res := lo.Map(info.Symbols, func(item futures.Symbol, index int) exchange.Instrument {
		return exchange.Instrument{
			Symbol:       item.Symbol,
			Base:         item.BaseAsset,
			QuoteAsset:   item.QuoteAsset,
			Status:       fromBinanceStatus(item.Status),
			ContractType: fromBinanceContractType(item.ContractType),
		}
	})
	return svc.filterDelisted(res), nil
}

// filterDelisted 过滤掉已下架的币种
func (svc *InstrumentService) filterDelisted(s []exchange.Instrument) []exchange.Instrument {
	return lo.Reject(s, func(item exchange.Instrument, index int) bool {
		_, ok := svc.delistedBase[item.Base]
		return ok
	})
}
