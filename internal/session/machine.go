package session

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf16"

	"github.com/maheshrc27/chanpost/internal/models"
	"github.com/maheshrc27/chanpost/pkg/utils"
)

// PostCreator commits a finished dialogue.
type PostCreator interface {
	Create(ctx context.Context, text string, media *models.Media, scheduledAt time.Time) (int64, error)
}

type Result int

const (
	// NoSession means the chat has no dialogue in progress.
	NoSession Result = iota
	MediaCaptured
	// MediaRejected is text sent while a photo or video was expected.
	MediaRejected
	// MediaUnexpected is a photo or video sent outside AwaitingMedia.
	MediaUnexpected
	TimeAccepted
	TimeRejected
	Committed
	// CaptionTooLong is text for a media post that Telegram would refuse
	// as a caption.
	CaptionTooLong
)

// MaxCaptionLength is Telegram's caption limit, counted in UTF-16 code units.
const MaxCaptionLength = 1024

type Outcome struct {
	Result      Result
	Step        Step
	ScheduledAt time.Time
	PostID      int64
	Text        string
	Media       *models.Media
}

type Machine struct {
	store *Store
	posts PostCreator
}

func NewMachine(store *Store, posts PostCreator) *Machine {
	return &Machine{store: store, posts: posts}
}

// BeginPost starts a text post dialogue, discarding any previous one.
func (m *Machine) BeginPost(chatID int64) {
	m.store.Put(chatID, Session{Step: AwaitingTime})
}

// BeginMediaPost starts a dialogue that asks for a photo or video first.
func (m *Machine) BeginMediaPost(chatID int64) {
	m.store.Put(chatID, Session{Step: AwaitingMedia})
}

// Cancel drops the chat's dialogue and reports whether one existed.
func (m *Machine) Cancel(chatID int64) bool {
	_, ok := m.store.Get(chatID)
	m.store.Delete(chatID)
	return ok
}

func (m *Machine) Current(chatID int64) (Session, bool) {
	return m.store.Get(chatID)
}

// HandleMedia feeds a received photo or video into the dialogue.
func (m *Machine) HandleMedia(chatID int64, media models.Media) Outcome {
	sess, ok := m.store.Get(chatID)
	if !ok {
		return Outcome{Result: NoSession}
	}
	if sess.Step != AwaitingMedia {
		return Outcome{Result: MediaUnexpected, Step: sess.Step}
	}

	captured := media
	m.store.Put(chatID, Session{Step: AwaitingTime, PendingMedia: &captured})
	return Outcome{Result: MediaCaptured, Step: AwaitingTime, Media: &captured}
}

// HandleText feeds a text message into the dialogue. A non-nil error means
// the post could not be stored; the session is left as it was so the
// operator can send the text again.
func (m *Machine) HandleText(ctx context.Context, chatID int64, text string, now time.Time) (Outcome, error) {
	sess, ok := m.store.Get(chatID)
	if !ok {
		return Outcome{Result: NoSession}, nil
	}

	switch sess.Step {
	case AwaitingMedia:
		return Outcome{Result: MediaRejected, Step: AwaitingMedia}, nil

	case AwaitingTime:
		scheduledAt, err := utils.ParseTime(text, now)
		if errors.Is(err, utils.ErrInvalidFormat) {
			return Outcome{Result: TimeRejected, Step: AwaitingTime}, nil
		}
		if err != nil {
			return Outcome{}, err
		}

		sess.Step = AwaitingText
		sess.PendingTime = scheduledAt
		m.store.Put(chatID, sess)
		return Outcome{Result: TimeAccepted, Step: AwaitingText, ScheduledAt: scheduledAt, Media: sess.PendingMedia}, nil

	case AwaitingText:
		if sess.PendingMedia != nil && CaptionLength(text) > MaxCaptionLength {
			return Outcome{Result: CaptionTooLong, Step: AwaitingText, Media: sess.PendingMedia}, nil
		}

		postID, err := m.posts.Create(ctx, text, sess.PendingMedia, sess.PendingTime)
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to commit post: %w", err)
		}

		m.store.Delete(chatID)
		return Outcome{
			Result:      Committed,
			PostID:      postID,
			ScheduledAt: sess.PendingTime,
			Text:        text,
			Media:       sess.PendingMedia,
		}, nil
	}

	return Outcome{}, fmt.Errorf("session in unknown step %d", sess.Step)
}

// CaptionLength measures text the way Telegram does.
func CaptionLength(text string) int {
	n := 0
	for _, r := range text {
		n += utf16.RuneLen(r)
	}
	return n
}
