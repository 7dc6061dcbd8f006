package ioc

import (
	"net/http"
	"net/url"

	"github.com/KNICEX/perp-sentinel/internal/config"
)

// InitHTTPClient 交易所与 telegram 共用, 可选代理
func InitHTTPClient(cfg config.NetworkConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != "" {
		proxy, err := url.Parse(cfg.Proxy)
		if err != nil {
			panic(err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}
	return &http.Client{Transport: transport}
}
