package ioc

import (
	"log/slog"

	"github.com/KNICEX/perp-sentinel/internal/config"
	"github.com/KNICEX/perp-sentinel/pkg/logger"
	"go.uber.org/zap"
)

func InitLogger(cfg config.LogConfig) *zap.Logger {
	z, err := logger.NewZap(cfg.Level, cfg.Format)
	if err != nil {
		panic(err)
	}
	slog.SetDefault(logger.NewSlog(z))
	return z
}
