// Package telegram connects the bot to the Telegram Bot API.
// It long-polls for messages, hands each text message to a Handler and sends
// the reply back to the same chat as MarkdownV2, retrying failed sends with
// a linearly growing delay.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/elasticity/internal/logger"
)

// Handler answers one chat message. *bot.Bot satisfies it.
type Handler interface {
	Handle(ctx context.Context, chatID int64, text string) string
}

// botAPI is the subset of *tgbotapi.BotAPI the client uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Client handles Telegram updates and replies
type Client struct {
	bot            botAPI
	maxRetries     int
	retryDelayBase time.Duration
	pollTimeout    time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken string, maxRetries int, retryDelayBase, pollTimeout time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	logger.Info("Authorized on Telegram as @%s", bot.Self.UserName)

	return newClient(bot, maxRetries, retryDelayBase, pollTimeout), nil
}

func newClient(bot botAPI, maxRetries int, retryDelayBase, pollTimeout time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	if pollTimeout < time.Second {
		pollTimeout = 60 * time.Second
	}

	return &Client{
		bot:            bot,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
		pollTimeout:    pollTimeout,
	}
}

// Listen long-polls for updates until ctx is cancelled. Messages are handled
// one at a time so that replies within a chat keep their order.
func (c *Client) Listen(ctx context.Context, h Handler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(c.pollTimeout.Seconds())

	updates := c.bot.GetUpdatesChan(u)
	defer c.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			c.dispatch(ctx, h, update)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, h Handler, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" || msg.Chat == nil {
		return
	}

	reply := h.Handle(ctx, msg.Chat.ID, msg.Text)
	if reply == "" {
		return
	}
	if err := c.Send(ctx, msg.Chat.ID, reply); err != nil {
		logger.Error("Failed to reply to chat %d: %v", msg.Chat.ID, err)
	}
}

// Send sends a plain-text reply, rendered with a bold first line.
func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, formatMessage(text))
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	// Send with retry
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn("Telegram send to chat %d failed (attempt %d/%d): %v", chatID, i+1, c.maxRetries, err)

		if i == c.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("send cancelled: %w", ctx.Err())
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatMessage escapes the reply and emphasises its first line.
func formatMessage(text string) string {
	head, rest, found := strings.Cut(text, "\n")
	message := "*" + escapeMarkdownV2(head) + "*"
	if found {
		message += "\n" + escapeMarkdownV2(rest)
	}
	return message
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . ! and the escape character itself
	var sb strings.Builder
	sb.Grow(len(text))
	for _, char := range text {
		switch char {
		case '\\', '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			sb.WriteByte('\\')
		}
		sb.WriteRune(char)
	}
	return sb.String()
}
