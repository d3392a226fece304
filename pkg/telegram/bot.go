package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot posts reminder digests to a configured Telegram chat. The chat is
// typically the class group the school already uses.
type Bot struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewBot creates the digest bot.
func NewBot(token string, chatID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	api.Debug = false

	return &Bot{api: api, chatID: chatID}, nil
}

// SendReminderDigest posts a summary of students who still have a pending
// assignment for the task.
func (b *Bot) SendReminderDigest(taskTitle string, studentNames []string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "⏰ Reminder: tugas \"%s\" belum dikumpulkan oleh %d siswa:\n", taskTitle, len(studentNames))
	for _, name := range studentNames {
		sb.WriteString("• ")
		sb.WriteString(name)
		sb.WriteString("\n")
	}

	msg := tgbotapi.NewMessage(b.chatID, sb.String())
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder digest: %w", err)
	}
	return nil
}
