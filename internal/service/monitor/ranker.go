package monitor

import (
	"sort"
	"strings"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type RankedInstrument struct {
	exchange.Instrument
	Volume decimal.Decimal
}

// VolumeRanker 按 24h 成交额过滤并降序排列
type VolumeRanker struct {
	minVolume decimal.Decimal
	exclude   []string
}

func NewVolumeRanker(minVolume decimal.Decimal, exclude []string) *VolumeRanker {
	return &VolumeRanker{
		minVolume: minVolume,
		exclude:   lo.Compact(exclude),
	}
}

// Rank 成交额须严格大于阈值; 同成交额保持目录顺序
func (r *VolumeRanker) Rank(instruments []exchange.Instrument, volumes []exchange.VolumeSample) []RankedInstrument {
	volBySymbol := lo.SliceToMap(volumes, func(item exchange.VolumeSample) (string, decimal.Decimal) {
		return item.Symbol, item.QuoteVolume
	})

	ranked := lo.FilterMap(instruments, func(item exchange.Instrument, index int) (RankedInstrument, bool) {
		if r.excluded(item.Symbol) {
			return RankedInstrument{}, false
		}
		vol, ok := volBySymbol[item.Symbol]
		if !ok || !vol.GreaterThan(r.minVolume) {
			return RankedInstrument{}, false
		}
		return RankedInstrument{Instrument: item, Volume: vol}, true
	})

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Volume.GreaterThan(ranked[j].Volume)
	})
	return ranked
}

func (r *VolumeRanker) excluded(symbol string) bool {
	return lo.SomeBy(r.exclude, func(sub string) bool {
		return strings.Contains(symbol, sub)
	})
}
