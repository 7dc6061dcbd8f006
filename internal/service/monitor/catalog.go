package monitor

import (
	"context"
	"log/slog"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/samber/lo"
)

// InstrumentCatalog 当前可交易的永续合约
type InstrumentCatalog struct {
	svc exchange.InstrumentService
}

func NewInstrumentCatalog(svc exchange.InstrumentService) *InstrumentCatalog {
	return &InstrumentCatalog{svc: svc}
}

// Fetch 失败时返回空集合, 由调用方结束本周期
func (c *InstrumentCatalog) Fetch(ctx context.Context) []exchange.Instrument {
	instruments, err := c.svc.GetInstruments(ctx)
	if err != nil {
		slog.Error("failed to fetch instruments", "error", err)
		return nil
	}
	return lo.Filter(instruments, func(item exchange.Instrument, index int) bool {
		return item.IsActivePerpetual()
	})
}
