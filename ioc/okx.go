package ioc

import (
	"net/http"

	"github.com/KNICEX/perp-sentinel/internal/config"
	"github.com/KNICEX/perp-sentinel/internal/service/exchange/okx"
)

func InitOKXService(cfg config.OKXConfig, httpCli *http.Client) *okx.Service {
	opts := []okx.ClientOption{okx.WithHTTPClient(httpCli)}
	if cfg.Signed() {
		opts = append(opts, okx.WithSigner(okx.NewHMACSigner(cfg.ApiKey, cfg.ApiSecret, cfg.Passphrase)))
	}
	return okx.NewService(okx.NewClient(cfg.BaseURL, opts...))
}
