package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	config "github.com/maheshrc27/chanpost/configs"
	"github.com/maheshrc27/chanpost/internal/models"
	"github.com/maheshrc27/chanpost/internal/service"
	"github.com/maheshrc27/chanpost/internal/session"
)

// Messenger is the part of *tgbotapi.BotAPI the router talks to.
type Messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Router struct {
	api          Messenger
	posts        service.PostService
	machine      *session.Machine
	adminID      int64
	channelID    string
	pollInterval time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

func NewRouter(cfg config.Config, api Messenger, posts service.PostService, machine *session.Machine, logger *zap.Logger) *Router {
	return &Router{
		api:          api,
		posts:        posts,
		machine:      machine,
		adminID:      cfg.AdminID,
		channelID:    cfg.ChannelID,
		pollInterval: cfg.PollInterval,
		logger:       logger,
		now:          time.Now,
	}
}

// Run consumes updates one at a time until ctx is done or the channel closes.
func (r *Router) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			r.dispatch(ctx, update)
		}
	}
}

func (r *Router) dispatch(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic while handling update",
				zap.Int("update_id", update.UpdateID),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()))
		}
	}()

	err := r.HandleUpdate(ctx, update)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnauthorized):
		r.logger.Debug("ignored update from non-admin", zap.Int("update_id", update.UpdateID))
	default:
		r.logger.Error("failed to handle update", zap.Int("update_id", update.UpdateID), zap.Error(err))
	}
}

// HandleUpdate routes a single inbound message or button press.
func (r *Router) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.Message != nil:
		return r.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		return r.handleCallback(ctx, update.CallbackQuery)
	}
	return nil
}

func (r *Router) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if err := r.authorize(msg.From); err != nil {
		if derr := r.deny(msg); derr != nil {
			return derr
		}
		return err
	}

	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			return r.reply(chatID, fmt.Sprintf("👋 Hi! I publish scheduled posts to %s\n\nChoose an action:", r.channelID), mainMenu())
		case "cancel":
			if r.machine.Cancel(chatID) {
				return r.reply(chatID, "🚫 Post cancelled.", mainMenu())
			}
			return r.reply(chatID, "Nothing to cancel.", mainMenu())
		case "help":
			return r.reply(chatID, helpText(r.pollInterval), nil)
		}
	}

	if media, ok := mediaOf(msg); ok {
		return r.handleOutcome(chatID, r.machine.HandleMedia(chatID, media))
	}

	switch msg.Text {
	case LabelNewPost:
		r.machine.BeginPost(chatID)
		return r.reply(chatID, timePrompt(), tgbotapi.NewRemoveKeyboard(true))
	case LabelNewMediaPost:
		r.machine.BeginMediaPost(chatID)
		return r.reply(chatID, "🖼 Send a photo or video for the post:", tgbotapi.NewRemoveKeyboard(true))
	case LabelMyPosts:
		return r.listPosts(ctx, chatID)
	case LabelStats:
		return r.showStats(ctx, chatID)
	case LabelDeletePost:
		return r.showDeletePicker(ctx, chatID)
	case LabelHelp:
		return r.reply(chatID, helpText(r.pollInterval), nil)
	}

	if msg.Text == "" {
		if _, ok := r.machine.Current(chatID); ok {
			return r.reply(chatID, "⚠️ This kind of message is not supported here. Send text, or /cancel.", nil)
		}
		return r.reply(chatID, "Choose an action from the menu:", mainMenu())
	}

	out, err := r.machine.HandleText(ctx, chatID, msg.Text, r.now())
	if err != nil {
		r.logger.Error("failed to save post", zap.Int64("chat_id", chatID), zap.Error(err))
		return r.reply(chatID, "❌ The post could not be saved. Send the text again, or /cancel.", nil)
	}
	return r.handleOutcome(chatID, out)
}

func (r *Router) handleOutcome(chatID int64, out session.Outcome) error {
	switch out.Result {
	case session.NoSession:
		return r.reply(chatID, "Choose an action from the menu:", mainMenu())

	case session.MediaCaptured:
		return r.reply(chatID, fmt.Sprintf("%s received.\n\n%s", mediaName(out.Media), timePrompt()), nil)

	case session.MediaRejected:
		return r.reply(chatID, "🖼 Send a photo or video for the post, or /cancel.", nil)

	case session.MediaUnexpected:
		hint := "📝 Now enter the post text:"
		if out.Step == session.AwaitingTime {
			hint = "Enter the time:"
		}
		return r.reply(chatID, "⚠️ Media is only accepted right after "+LabelNewMediaPost+".\n\n"+hint, nil)

	case session.TimeAccepted:
		prompt := "📝 Now enter the post text:"
		if out.Media != nil {
			prompt = "📝 Now enter the caption:"
		}
		return r.reply(chatID, fmt.Sprintf("🕒 Time: %s\n\n%s", out.ScheduledAt.Format(dateTimeFormat), prompt), nil)

	case session.TimeRejected:
		return r.reply(chatID, "❌ Invalid time format\n\n"+timeFormatsHelp, nil)

	case session.CaptionTooLong:
		return r.reply(chatID, fmt.Sprintf("❌ The caption is too long. Telegram allows up to %d characters with a photo or video.\n\n📝 Send a shorter text, or /cancel.",
			session.MaxCaptionLength), nil)

	case session.Committed:
		var b strings.Builder
		b.WriteString("✅ Post scheduled!\n\n")
		fmt.Fprintf(&b, "🆔 ID: #%d\n", out.PostID)
		fmt.Fprintf(&b, "🕒 Time: %s\n", out.ScheduledAt.Format(dateTimeFormat))
		if out.Media != nil {
			fmt.Fprintf(&b, "%s attached\n", mediaName(out.Media))
		}
		fmt.Fprintf(&b, "📝 Text: %s", preview(out.Text, 100))
		return r.reply(chatID, b.String(), mainMenu())
	}

	return fmt.Errorf("unhandled session result %d", out.Result)
}

func (r *Router) listPosts(ctx context.Context, chatID int64) error {
	posts, err := r.posts.List(ctx, models.PostStatusScheduled)
	if err != nil {
		return r.storeFailure(chatID, err)
	}
	if len(posts) == 0 {
		return r.reply(chatID, "📭 No scheduled posts", nil)
	}
	return r.reply(chatID, postList(posts), nil)
}

func (r *Router) showStats(ctx context.Context, chatID int64) error {
	stats, err := r.posts.Stats(ctx)
	if err != nil {
		return r.storeFailure(chatID, err)
	}
	return r.reply(chatID, fmt.Sprintf("📊 Statistics\n\n📝 Total posts: %d\n⏳ Pending: %d\n✅ Published: %d",
		stats.Total, stats.Scheduled, stats.Sent), nil)
}

func (r *Router) showDeletePicker(ctx context.Context, chatID int64) error {
	posts, err := r.posts.List(ctx, models.PostStatusScheduled)
	if err != nil {
		return r.storeFailure(chatID, err)
	}
	if len(posts) == 0 {
		return r.reply(chatID, "❌ No posts to delete", nil)
	}
	return r.reply(chatID, "🗑 Choose a post to delete:", deletePicker(posts))
}

func (r *Router) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if err := r.authorize(query.From); err != nil {
		return err
	}

	raw, ok := strings.CutPrefix(query.Data, deletePrefix)
	if !ok {
		return r.answer(query.ID, "")
	}

	postID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return r.answer(query.ID, "❌ Unknown post")
	}

	if err := r.posts.Remove(ctx, postID); err != nil {
		r.logger.Error("failed to delete post", zap.Int64("post_id", postID), zap.Error(err))
		return r.answer(query.ID, "❌ The post could not be deleted")
	}

	if err := r.answer(query.ID, "✅ Post deleted"); err != nil {
		return err
	}
	if query.Message == nil {
		return nil
	}
	return r.send(tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, "✅ Post deleted"))
}

func (r *Router) storeFailure(chatID int64, err error) error {
	r.logger.Error("post store request failed", zap.Int64("chat_id", chatID), zap.Error(err))
	return r.reply(chatID, "❌ Something went wrong, try again later.", nil)
}

func (r *Router) reply(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	return r.send(msg)
}

func (r *Router) answer(queryID, text string) error {
	if _, err := r.api.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		return fmt.Errorf("%w: answer callback: %w", service.ErrTransport, err)
	}
	return nil
}

func (r *Router) send(c tgbotapi.Chattable) error {
	if _, err := r.api.Send(c); err != nil {
		return fmt.Errorf("%w: %w", service.ErrTransport, err)
	}
	return nil
}

// mediaOf extracts the largest photo size or the video from msg.
func mediaOf(msg *tgbotapi.Message) (models.Media, bool) {
	if n := len(msg.Photo); n > 0 {
		return models.Media{Kind: models.MediaPhoto, Reference: msg.Photo[n-1].FileID}, true
	}
	if msg.Video != nil {
		return models.Media{Kind: models.MediaVideo, Reference: msg.Video.FileID}, true
	}
	return models.Media{}, false
}

func mediaName(media *models.Media) string {
	if media != nil && media.Kind == models.MediaVideo {
		return "🎬 Video"
	}
	return "🖼 Photo"
}
