// Package telegram forwards session progress to a Telegram chat.
package telegram

import (
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-easyapply-automation/internal/status"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot is a status.Sink. Info events stay local; successes, errors and the
// final summary are sent to the chat.
type Bot struct {
	api    sender
	chatID int64
}

// NewBot connects to the Bot API and sends to chatID.
func NewBot(token string, chatID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &Bot{api: api, chatID: chatID}, nil
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
		")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
		"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
		"}", "\\}", ".", "\\.", "!", "\\!",
	)
	return replacer.Replace(text)
}

func (b *Bot) send(text string) {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = "MarkdownV2"
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("⚠️ Failed to send Telegram message: %v", err)
	}
}

func (b *Bot) Emit(e status.Event) {
	switch e.Severity {
	case status.Success:
		b.send("✅ " + escapeMarkdown(e.Text))
	case status.Error:
		b.send("❌ " + escapeMarkdown(e.Text))
	}
}

func (b *Bot) Complete(s status.Summary) {
	title := "🏁 *Auto\\-apply finished*"
	if !s.Completed {
		title = "⏹️ *Auto\\-apply ended*"
		if s.Reason != "" {
			title += " \\(" + escapeMarkdown(s.Reason) + "\\)"
		}
	}

	var sb strings.Builder
	sb.WriteString(title + "\n")
	fmt.Fprintf(&sb, "✅ Applied: %d\n", s.Applied)
	fmt.Fprintf(&sb, "❌ Failed: %d\n", s.Failed)
	fmt.Fprintf(&sb, "⏹️ Stopped: %d\n", s.Stopped)
	fmt.Fprintf(&sb, "⏭️ Skipped: %d\n", s.Skipped)
	if s.Errors > 0 {
		fmt.Fprintf(&sb, "⚠️ Errors: %d\n", s.Errors)
	}
	fmt.Fprintf(&sb, "📄 %d jobs on %d pages", s.TotalJobs, s.TotalPages)
	b.send(sb.String())
}

var _ status.Sink = (*Bot)(nil)
