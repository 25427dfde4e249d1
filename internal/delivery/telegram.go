package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"
)

// TelegramNotifier delivers reminders as Telegram messages to a configured
// chat. Permission maps onto configuration: a bot with a chat id is granted,
// a bot without one is denied until the user links a chat.
type TelegramNotifier struct {
	bot    *telebot.Bot
	chatID int64
	log    *slog.Logger
}

var _ Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier builds the notifier from a bot token and target chat.
func NewTelegramNotifier(token string, chatID int64, log *slog.Logger) (*TelegramNotifier, error) {
	if log == nil {
		log = slog.Default()
	}

	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:    bot,
		chatID: chatID,
		log:    log,
	}, nil
}

// Permission reports granted when a target chat is configured.
func (t *TelegramNotifier) Permission(ctx context.Context) Permission {
	if t == nil || t.bot == nil {
		return PermissionDenied
	}
	if t.chatID == 0 {
		return PermissionPrompt
	}
	return PermissionGranted
}

// RequestPermission cannot prompt over Telegram; the chat id must be
// configured out of band.
func (t *TelegramNotifier) RequestPermission(ctx context.Context) (Permission, error) {
	return t.Permission(ctx), nil
}

// Send posts the reminder text to the configured chat. The interaction URL
// is attached as an inline button.
func (t *TelegramNotifier) Send(ctx context.Context, n *Notification) error {
	text := fmt.Sprintf("*%s*\n%s", n.Title, n.Body)

	opts := &telebot.SendOptions{ParseMode: telebot.ModeMarkdown}
	if n.URL != "" {
		markup := &telebot.ReplyMarkup{}
		markup.Inline(markup.Row(markup.URL("Open tracker", n.URL)))
		opts.ReplyMarkup = markup
	}

	if _, err := t.bot.Send(telebot.ChatID(t.chatID), text, opts); err != nil {
		return fmt.Errorf("send telegram notification: %w", err)
	}

	return nil
}
