package notification

import (
	"context"
	"fmt"
	"io"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender 通知渠道, 只负责投递一段文本
type Sender interface {
	Send(ctx context.Context, text string) error
}

type botAPI interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

var _ Sender = (*TelegramSender)(nil)

type TelegramSender struct {
	bot    botAPI
	chatID int64
}

func NewTelegramSender(bot *tgbot.BotAPI, chatID int64) *TelegramSender {
	return &TelegramSender{bot: bot, chatID: chatID}
}

func (t *TelegramSender) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbot.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	_, err := t.bot.Send(msg)
	return err
}

var _ Sender = (*ConsoleSender)(nil)

// ConsoleSender 未配置 telegram 时直接输出
type ConsoleSender struct {
	w io.Writer
}

func NewConsoleSender(w io.Writer) *ConsoleSender {
	return &ConsoleSender{w: w}
}

func (c *ConsoleSender) Send(ctx context.Context, text string) error {
	_, err := fmt.Fprintf(c.w, "%s\n\n", text)
	return err
}
