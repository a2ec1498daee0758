package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*BotNotifier)(nil)

// sender is the subset of *tgbotapi.BotAPI used for outbound messages.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotNotifier delivers payment and settlement notices as Telegram DMs.
// Accounts without a linked chat id are skipped.
type BotNotifier struct {
	bot sender
}

func NewBotNotifier(token string) (*BotNotifier, error) {
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &BotNotifier{bot: bot}, nil
}

func newBotNotifierWith(s sender) *BotNotifier { return &BotNotifier{bot: s} }

func (b *BotNotifier) Channel() string { return "telegram" }

func (b *BotNotifier) Notify(ctx context.Context, to model.Contact, msg adapter.Message) error {
	if to.TelegramChatID == nil || *to.TelegramChatID == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	text := msg.Body
	if msg.Subject != "" {
		text = msg.Subject + "\n\n" + msg.Body
	}
	out := tgbotapi.NewMessage(*to.TelegramChatID, text)
	out.DisableWebPagePreview = true
	if _, err := b.bot.Send(out); err != nil {
		return fmt.Errorf("%w: telegram: %v", domain.ErrNotificationFailure, err)
	}
	return nil
}
