package binance

import (
	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/adshao/go-binance/v2/futures"
)

func fromBinanceContractType(typ futures.ContractType) exchange.ContractType {
	switch typ {
	case futures.ContractTypePerpetual:
		return exchange.ContractPerpetual
	case "":
		return exchange.ContractUnknown
	default:
		// CURRENT_QUARTER / NEXT_QUARTER 等交割合约
		return exchange.ContractDelivery
	}
}

func fromBinanceStatus(status string) exchange.InstrumentStatus {
	switch status {
	case "TRADING":
		return exchange.StatusTrading
	case "":
		return exchange.StatusUnknown
	default:
		return exchange.StatusHalted
	}
}
