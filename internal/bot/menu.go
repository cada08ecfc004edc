package bot

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/maheshrc27/chanpost/internal/models"
)

const (
	LabelNewPost      = "📅 New post"
	LabelNewMediaPost = "🖼 New media post"
	LabelMyPosts      = "📋 My posts"
	LabelStats        = "📊 Statistics"
	LabelDeletePost   = "❌ Delete post"
	LabelHelp         = "ℹ️ Help"
)

const deletePrefix = "delete_"

const (
	dateTimeFormat  = "02.01.2006 15:04"
	shortDateFormat = "02.01 15:04"
)

const timeFormatsHelp = "+10 - in 10 minutes\n" +
	"+1h - in 1 hour\n" +
	"+1d - in 1 day\n" +
	"18:00 - today at 18:00 (tomorrow if already passed)\n" +
	"14:30 25.12.2024 - exact date"

func mainMenu() tgbotapi.ReplyKeyboardMarkup {
	markup := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(LabelNewPost),
			tgbotapi.NewKeyboardButton(LabelNewMediaPost),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(LabelMyPosts),
			tgbotapi.NewKeyboardButton(LabelStats),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(LabelDeletePost),
			tgbotapi.NewKeyboardButton(LabelHelp),
		),
	)
	markup.ResizeKeyboard = true
	return markup
}

func deletePicker(posts []*models.Post) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(posts))
	for _, post := range posts {
		label := fmt.Sprintf("❌ #%d - %s", post.ID, post.ScheduledAt.Format(shortDateFormat))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d", deletePrefix, post.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func timePrompt() string {
	return "🕒 When should the post be published?\n\n" + timeFormatsHelp + "\n\nEnter the time:"
}

func helpText(interval time.Duration) string {
	return "ℹ️ Help\n\n" +
		"Time formats:\n" + timeFormatsHelp + "\n\n" +
		"🖼 New media post asks for a photo or video first; the text becomes its caption.\n" +
		"/cancel drops a post that is being composed.\n\n" +
		fmt.Sprintf("Scheduled posts are checked every %s.", interval)
}

func postList(posts []*models.Post) string {
	var b strings.Builder
	b.WriteString("📋 Your posts:\n")
	for _, post := range posts {
		fmt.Fprintf(&b, "\n🆔 #%d - %s", post.ID, post.ScheduledAt.Format(dateTimeFormat))
		if post.Media != nil {
			fmt.Fprintf(&b, " %s", mediaIcon(post.Media.Kind))
		}
		if post.ArchiveURL != "" {
			b.WriteString(" 💾")
		}
		fmt.Fprintf(&b, "\n📝 %s\n", preview(post.Text, 50))
	}
	return b.String()
}

func mediaIcon(kind models.MediaKind) string {
	switch kind {
	case models.MediaPhoto:
		return "🖼"
	case models.MediaVideo:
		return "🎬"
	default:
		return "📎"
	}
}

// preview shortens s to at most limit characters.
func preview(s string, limit int) string {
	if s == "" {
		return "(no text)"
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
