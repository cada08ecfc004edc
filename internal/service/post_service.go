package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/maheshrc27/chanpost/internal/models"
	"github.com/maheshrc27/chanpost/internal/repository"
	"github.com/maheshrc27/chanpost/internal/transfer"
)

const archiveTimeout = time.Minute

type PostService interface {
	Create(ctx context.Context, text string, media *models.Media, scheduledAt time.Time) (int64, error)
	List(ctx context.Context, status models.PostStatus) ([]*models.Post, error)
	Stats(ctx context.Context) (*transfer.PostStats, error)
	Remove(ctx context.Context, postID int64) error
	// Wait blocks until background media archiving has finished.
	Wait()
}

type postService struct {
	pr       repository.PostRepository
	archiver MediaArchiver
	logger   *zap.Logger
	archives sync.WaitGroup
}

// NewPostService wires the post use cases. archiver may be nil, in which case
// media is only referenced by its Telegram file id.
func NewPostService(pr repository.PostRepository, archiver MediaArchiver, logger *zap.Logger) PostService {
	return &postService{pr: pr, archiver: archiver, logger: logger}
}

func (s *postService) Create(ctx context.Context, text string, media *models.Media, scheduledAt time.Time) (int64, error) {
	if scheduledAt.IsZero() {
		return 0, errors.New("scheduled time is required")
	}
	if media != nil && media.Reference == "" {
		return 0, errors.New("media reference is empty")
	}

	postID, err := s.pr.Create(ctx, &models.Post{
		Text:        text,
		Media:       media,
		ScheduledAt: scheduledAt,
		Status:      models.PostStatusScheduled,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: error creating post: %w", ErrTransport, err)
	}

	s.logger.Info("post scheduled", zap.Int64("post_id", postID), zap.Time("scheduled_at", scheduledAt))

	if media != nil && s.archiver != nil {
		s.archives.Add(1)
		go func(ctx context.Context, media models.Media) {
			defer s.archives.Done()
			s.archive(ctx, postID, media)
		}(context.WithoutCancel(ctx), *media)
	}

	return postID, nil
}

// archive is best effort and runs after Create returns; the post is already
// committed.
func (s *postService) archive(ctx context.Context, postID int64, media models.Media) {
	ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
	defer cancel()

	url, err := s.archiver.Archive(ctx, media)
	if err != nil {
		s.logger.Warn("failed to archive media", zap.Int64("post_id", postID), zap.Error(err))
		return
	}

	if err := s.pr.SetArchiveURL(ctx, postID, url); err != nil {
		s.logger.Warn("failed to save archive url", zap.Int64("post_id", postID), zap.Error(err))
		return
	}

	s.logger.Info("media archived", zap.Int64("post_id", postID), zap.String("url", url))
}

func (s *postService) List(ctx context.Context, status models.PostStatus) ([]*models.Post, error) {
	posts, err := s.pr.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("%w: error listing posts: %w", ErrTransport, err)
	}
	return posts, nil
}

func (s *postService) Stats(ctx context.Context) (*transfer.PostStats, error) {
	counts, err := s.pr.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: error counting posts: %w", ErrTransport, err)
	}

	stats := &transfer.PostStats{
		Scheduled: counts[models.PostStatusScheduled],
		Sent:      counts[models.PostStatusSent],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

func (s *postService) Remove(ctx context.Context, postID int64) error {
	if postID <= 0 {
		return errors.New("post id is not valid")
	}

	if err := s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("%w: error removing post: %w", ErrTransport, err)
	}

	s.logger.Info("post removed", zap.Int64("post_id", postID))
	return nil
}

func (s *postService) Wait() {
	s.archives.Wait()
}
