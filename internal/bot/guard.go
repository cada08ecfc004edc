package bot

import (
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var ErrUnauthorized = errors.New("sender is not the administrator")

// authorize lets only the configured administrator through.
func (r *Router) authorize(user *tgbotapi.User) error {
	if user == nil || user.ID != r.adminID {
		return ErrUnauthorized
	}
	return nil
}

// deny answers a non-admin /start. Anything else from a stranger is dropped
// without a reply.
func (r *Router) deny(msg *tgbotapi.Message) error {
	if !msg.IsCommand() || msg.Command() != "start" {
		return nil
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, "❌ Access denied")
	reply.ReplyToMessageID = msg.MessageID
	return r.send(reply)
}
