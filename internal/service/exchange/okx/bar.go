package okx

import (
	"fmt"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
)

// okxBar 1h -> 1H, 1d -> 1D, 分钟级保持不变
func okxBar(interval exchange.Interval) (string, error) {
	switch interval {
	case exchange.Interval5m, exchange.Interval15m, exchange.Interval30m:
		return string(interval), nil
	case exchange.Interval1h:
		return "1H", nil
	case exchange.Interval2h:
		return "2H", nil
	case exchange.Interval4h:
		return "4H", nil
	case exchange.Interval6h:
		return "6H", nil
	case exchange.Interval12h:
		return "12H", nil
	case exchange.Interval1d:
		return "1D", nil
	case exchange.Interval1w:
		return "1W", nil
	case exchange.Interval1M:
		return "1M", nil
	default:
		return "", fmt.Errorf("okx: unsupported interval %q", interval)
	}
}
