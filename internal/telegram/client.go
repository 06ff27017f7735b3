// Package telegram provides a client for sending run notifications via Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/rewired-gh/aetherscore/internal/pipeline"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration

	mu          sync.Mutex
	lastSummary string
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
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
	case "last":
		c.mu.Lock()
		text := c.lastSummary
		c.mu.Unlock()
		if text == "" {
			c.bot.Send(tgbotapi.NewMessage(msg.Chat.ID, "No run yet")) //nolint:errcheck
			return
		}
		reply := tgbotapi.NewMessage(msg.Chat.ID, text)
		reply.ParseMode = "MarkdownV2"
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

// SendError sends a failed-run notification.
func (c *Client) SendError(runErr error) error {
	text := fmt.Sprintf("⚠️ *Run failed*\n`%s`", escapeMarkdownV2(runErr.Error()))
	return c.sendMarkdownV2(text)
}

// Send sends the summary of a completed run.
func (c *Client) Send(bundles []*pipeline.Bundle, finishedAt time.Time) error {
	text := c.formatMessage(bundles, finishedAt)
	c.mu.Lock()
	c.lastSummary = text
	c.mu.Unlock()
	return c.sendMarkdownV2(text)
}

// formatMessage formats pipeline bundles into a Telegram MarkdownV2 message.
func (c *Client) formatMessage(bundles []*pipeline.Bundle, finishedAt time.Time) string {
	var b strings.Builder
	b.WriteString("🔮 *Aether forecast*\n")
	b.WriteString(fmt.Sprintf("🕒 Finished %s\n\n", escapeMarkdownV2(finishedAt.Format("2006-01-02 15:04:05"))))

	for _, bd := range bundles {
		next := "unknown"
		if !bd.NextDrawDate.IsZero() {
			next = bd.NextDrawDate.Format("Mon 2006-01-02")
		}
		b.WriteString(fmt.Sprintf("*%s* · next draw %s\n", escapeMarkdownV2(bd.Pipeline), escapeMarkdownV2(next)))

		if len(bd.Analysis.Coupons) > 0 {
			top := bd.Analysis.Coupons[0]
			b.WriteString(fmt.Sprintf("   🎟 %s ⭐ %s\n", numbers(top.Main), numbers(top.Stars)))
		}

		in := bd.Insight
		if in.Draws > 0 {
			lift := decimal.NewFromFloat(in.Lift).Round(1)
			sign := ""
			if lift.IsPositive() {
				sign = "+"
			}
			b.WriteString(fmt.Sprintf("   🎯 %s hits per draw vs %s baseline \\(%s%%\\)\n",
				escapeMarkdownV2(decimal.NewFromFloat(in.AvgMainHits).StringFixed(2)),
				escapeMarkdownV2(decimal.NewFromFloat(in.AvgBaselineHits).StringFixed(2)),
				escapeMarkdownV2(sign+lift.StringFixed(1))))
		}
		b.WriteString(fmt.Sprintf("   📊 %s draws, %s backtested, regime %s\n\n",
			escapeMarkdownV2(humanize.Comma(int64(bd.DrawCount))),
			escapeMarkdownV2(humanize.Comma(int64(len(bd.Log)))),
			escapeMarkdownV2(bd.Analysis.Regime.String())))
	}
	return b.String()
}

func numbers(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
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
