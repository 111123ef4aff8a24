// Package telegram provides a client for sending notifications via Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mkrutov/stockpulse/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	location       *time.Location
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client. News timestamps in alert messages
// are rendered in the given reference location.
func NewClient(botToken, chatID string, location *time.Location, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if location == nil {
		location = time.UTC
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		location:       location,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// ListenForCommands starts a goroutine that polls for Telegram updates and handles bot commands.
// It returns immediately; the goroutine stops when ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "ping":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Pong")
		c.bot.Send(reply) //nolint:errcheck
	}
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendError sends a monitoring error notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(cycleErr error) error {
	text := fmt.Sprintf("⚠️ *Monitoring error*\n`%s`", escapeMarkdownV2(cycleErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendRecovery sends a recovery notification after consecutive failures.
func (c *Client) SendRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Monitoring recovered* after %d consecutive failure\\(s\\)", failureCount)
	return c.sendMarkdownV2(text)
}

// SendAlert formats and sends a price-move alert.
func (c *Client) SendAlert(alert models.Alert) error {
	return c.sendMarkdownV2(c.formatAlert(alert))
}

// formatAlert renders an alert into a Telegram MarkdownV2 message: tier
// marker, symbol, open→current price, signed percent, volume in millions,
// venue, headline, and the news time-of-day in the reference timezone.
func (c *Client) formatAlert(alert models.Alert) string {
	marker := "🚨"
	label := "PUMP"
	if alert.Tier == models.TierLong {
		marker = "📈"
		label = "LONG SIGNAL"
	}

	priceLine := fmt.Sprintf("$%.2f → $%.2f (%+.1f%%)", alert.OpenPrice, alert.CurrentPrice, alert.Percent)
	volumeLine := fmt.Sprintf("%.2fM", alert.Volume/1000000)
	newsTime := alert.NewsAt.In(c.location).Format("03:04 PM MST")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s *$%s %s*\n\n", marker, escapeMarkdownV2(alert.Symbol), escapeMarkdownV2(label)))
	b.WriteString(fmt.Sprintf("💵 Price: %s\n", escapeMarkdownV2(priceLine)))
	b.WriteString(fmt.Sprintf("📊 Volume: %s\n", escapeMarkdownV2(volumeLine)))
	b.WriteString(fmt.Sprintf("🏛 Exchange: %s\n", escapeMarkdownV2(alert.Exchange)))
	b.WriteString(fmt.Sprintf("📰 News: %s\n", escapeMarkdownV2(alert.Headline)))
	b.WriteString(fmt.Sprintf("🕒 Time: %s", escapeMarkdownV2(newsTime)))
	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
