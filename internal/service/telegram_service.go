package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	config "github.com/maheshrc27/chanpost/configs"
	"github.com/maheshrc27/chanpost/internal/models"
)

// ErrTransport marks a failed call to Telegram. Callers treat it as retryable.
var ErrTransport = errors.New("transport failure")

// Sender is the part of *tgbotapi.BotAPI the services depend on.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type TelegramService interface {
	SendText(ctx context.Context, target, text string) error
	SendPhoto(ctx context.Context, target, ref, caption string) error
	SendVideo(ctx context.Context, target, ref, caption string) error
	Publish(ctx context.Context, post *models.Post) error
	NotifyAdmin(ctx context.Context, text string) error
	FileURL(fileID string) (string, error)
}

type telegramService struct {
	cfg config.Config
	bot Sender
}

func NewTelegramService(cfg config.Config, bot Sender) TelegramService {
	return &telegramService{cfg: cfg, bot: bot}
}

func (s *telegramService) SendText(ctx context.Context, target, text string) error {
	return s.send(ctx, tgbotapi.MessageConfig{BaseChat: chatFor(target), Text: text})
}

func (s *telegramService) SendPhoto(ctx context.Context, target, ref, caption string) error {
	return s.send(ctx, tgbotapi.PhotoConfig{
		BaseFile: tgbotapi.BaseFile{BaseChat: chatFor(target), File: tgbotapi.FileID(ref)},
		Caption:  caption,
	})
}

func (s *telegramService) SendVideo(ctx context.Context, target, ref, caption string) error {
	return s.send(ctx, tgbotapi.VideoConfig{
		BaseFile: tgbotapi.BaseFile{BaseChat: chatFor(target), File: tgbotapi.FileID(ref)},
		Caption:  caption,
	})
}

// Publish delivers a post to the configured channel, picking the send
// method from the attached media.
func (s *telegramService) Publish(ctx context.Context, post *models.Post) error {
	if post.Media == nil {
		return s.SendText(ctx, s.cfg.ChannelID, post.Text)
	}

	switch post.Media.Kind {
	case models.MediaPhoto:
		return s.SendPhoto(ctx, s.cfg.ChannelID, post.Media.Reference, post.Text)
	case models.MediaVideo:
		return s.SendVideo(ctx, s.cfg.ChannelID, post.Media.Reference, post.Text)
	default:
		return fmt.Errorf("post %d has unknown media kind %q", post.ID, post.Media.Kind)
	}
}

func (s *telegramService) NotifyAdmin(ctx context.Context, text string) error {
	return s.SendText(ctx, strconv.FormatInt(s.cfg.AdminID, 10), text)
}

func (s *telegramService) FileURL(fileID string) (string, error) {
	url, err := s.bot.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return url, nil
}

func (s *telegramService) send(ctx context.Context, c tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.bot.Send(c); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}

// chatFor addresses a numeric chat id or a public @username.
func chatFor(target string) tgbotapi.BaseChat {
	if id, err := strconv.ParseInt(target, 10, 64); err == nil {
		return tgbotapi.BaseChat{ChatID: id}
	}
	return tgbotapi.BaseChat{ChannelUsername: target}
}
