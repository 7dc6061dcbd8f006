package ioc

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/KNICEX/perp-sentinel/internal/config"
	"github.com/KNICEX/perp-sentinel/internal/service/notification"
	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// InitDispatcher 未启用 telegram 时消息打印到标准输出
func InitDispatcher(cfg config.TelegramConfig, httpCli *http.Client, onFailure func(err error)) *notification.Dispatcher {
	var sender notification.Sender
	if cfg.Enabled {
		bot, err := tgbot.NewBotAPIWithClient(cfg.Token, tgbot.APIEndpoint, httpCli)
		if err != nil {
			panic(err)
		}
		slog.Info("telegram bot authorized", "bot", bot.Self.UserName)
		sender = notification.NewTelegramSender(bot, cfg.ChatID)
	} else {
		slog.Warn("telegram disabled, alerts go to stdout")
		sender = notification.NewConsoleSender(os.Stdout)
	}
	return notification.NewDispatcher(sender,
		notification.WithLimits(cfg.MaxLength, cfg.ChunkSize),
		notification.WithChunkDelay(cfg.ChunkDelay),
		notification.WithOnFailure(onFailure),
	)
}
