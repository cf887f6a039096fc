package telegram

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"PublicationsMonitor/internal/domain"
	"PublicationsMonitor/internal/ports"
)

// Telegram rejects longer message texts.
const maxMessageLength = 4096

// Sender posts plain-text notifications to a Telegram chat via the bot API.
type Sender struct {
	botToken string
	chatID   int64
	endpoint string
	client   tgbotapi.HTTPClient

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

var _ ports.Sender = (*Sender)(nil)

// NewSender registers bot token and chat identifier. The bot is only
// contacted on the first Send.
func NewSender(botToken string, chatID int64) *Sender {
	return &Sender{
		botToken: botToken,
		chatID:   chatID,
		endpoint: tgbotapi.APIEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Name identifies the channel in logs.
func (s *Sender) Name() string {
	return "telegram"
}

// Send posts the subject and the plain-text body as one message.
func (s *Sender) Send(ctx context.Context, msg domain.Message) error {
	if s.botToken == "" || s.chatID == 0 {
		return fmt.Errorf("telegram sender misconfigured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	bot, err := s.botAPI()
	if err != nil {
		return err
	}

	out := tgbotapi.NewMessage(s.chatID, truncate(msg.Subject+"\n\n"+msg.Text, maxMessageLength))
	out.DisableWebPagePreview = true
	if _, err := bot.Send(out); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func (s *Sender) botAPI() (*tgbotapi.BotAPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bot != nil {
		return s.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(s.botToken, s.endpoint, s.client)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	s.bot = bot
	return bot, nil
}

func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit-1]) + "…"
}
