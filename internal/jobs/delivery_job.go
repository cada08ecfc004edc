package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/maheshrc27/chanpost/internal/models"
	"github.com/maheshrc27/chanpost/internal/repository"
	"github.com/maheshrc27/chanpost/pkg/logger"
)

// Publisher delivers posts to the channel and reports to the administrator.
type Publisher interface {
	Publish(ctx context.Context, post *models.Post) error
	NotifyAdmin(ctx context.Context, text string) error
}

// DeliveryJob publishes due posts. A post whose send fails stays scheduled
// and is retried on the next run, without limit.
type DeliveryJob struct {
	pr      repository.PostRepository
	pub     Publisher
	logger  *zap.Logger
	now     func() time.Time
	running sync.Mutex
}

func NewDeliveryJob(pr repository.PostRepository, pub Publisher, logger *zap.Logger) *DeliveryJob {
	return &DeliveryJob{
		pr:     pr,
		pub:    pub,
		logger: logger,
		now:    time.Now,
	}
}

// DeliverDuePosts is the cron entry point. Runs never overlap: a tick that
// arrives while the previous run is still sending is skipped.
func (j *DeliveryJob) DeliverDuePosts() {
	if !j.running.TryLock() {
		j.logger.Warn("previous delivery run still in progress, skipping tick")
		return
	}
	defer j.running.Unlock()

	if _, _, err := j.RunOnce(context.Background()); err != nil {
		j.logger.Error("delivery run failed", zap.Error(err))
	}
}

// RunOnce delivers every post due now. Each post is handled independently;
// a failed send never stops the rest of the batch.
func (j *DeliveryJob) RunOnce(ctx context.Context) (delivered, failed int, err error) {
	start := time.Now()

	posts, err := j.pr.Due(ctx, j.now())
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load due posts: %w", err)
	}
	if len(posts) == 0 {
		return 0, 0, nil
	}

	for _, post := range posts {
		if j.deliver(ctx, post) {
			delivered++
		} else {
			failed++
		}
	}

	j.logger.Info("delivery run finished",
		zap.Int("delivered", delivered),
		zap.Int("failed", failed),
		logger.Since(start))
	return delivered, failed, nil
}

func (j *DeliveryJob) deliver(ctx context.Context, post *models.Post) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			j.logger.Error("panic while delivering post", zap.Int64("post_id", post.ID), zap.Any("panic", r))
			ok = false
		}
	}()

	if err := j.pub.Publish(ctx, post); err != nil {
		j.logger.Error("failed to publish post, will retry",
			zap.Int64("post_id", post.ID),
			zap.Time("scheduled_at", post.ScheduledAt),
			zap.Error(err))
		return false
	}

	if err := j.pr.MarkSent(ctx, post.ID); err != nil {
		// The post is already in the channel; it stays scheduled and will be
		// sent again next run.
		j.logger.Error("published post could not be marked sent",
			zap.Int64("post_id", post.ID),
			zap.Error(err))
		return false
	}

	j.logger.Info("post published", zap.Int64("post_id", post.ID))

	if err := j.pub.NotifyAdmin(ctx, fmt.Sprintf("✅ Post #%d published!", post.ID)); err != nil {
		j.logger.Warn("failed to notify admin", zap.Int64("post_id", post.ID), zap.Error(err))
	}
	return true
}
