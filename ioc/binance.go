package ioc

import (
	"net/http"

	"github.com/KNICEX/perp-sentinel/internal/config"
	"github.com/KNICEX/perp-sentinel/internal/service/exchange/binance"
	"github.com/adshao/go-binance/v2/futures"
)

func InitBinanceService(cfg config.BinanceConfig, httpCli *http.Client) *binance.Service {
	cli := futures.NewClient(cfg.ApiKey, cfg.ApiSecret)
	cli.HTTPClient = httpCli
	if cfg.BaseURL != "" {
		cli.BaseURL = cfg.BaseURL
	}
	return binance.NewService(cli)
}
