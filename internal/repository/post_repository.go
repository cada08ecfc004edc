package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/maheshrc27/chanpost/internal/models"
)

// PostRepository persists posts. Timestamps are stored with second precision.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	List(ctx context.Context, status models.PostStatus) ([]*models.Post, error)
	Due(ctx context.Context, at time.Time) ([]*models.Post, error)
	MarkSent(ctx context.Context, id int64) error
	SetArchiveURL(ctx context.Context, id int64, url string) error
	CountByStatus(ctx context.Context) (map[models.PostStatus]int, error)
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostRepository(db *sql.DB, logger *zap.Logger) PostRepository {
	return &postRepository{db: db, logger: logger}
}

const postColumns = `id, text, media_type, media_reference, archive_url, scheduled_at, status, created_at`

func (r *postRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (text, media_type, media_reference, scheduled_at, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var mediaType, mediaRef sql.NullString
	if post.Media != nil {
		mediaType = sql.NullString{String: string(post.Media.Kind), Valid: true}
		mediaRef = sql.NullString{String: post.Media.Reference, Valid: true}
	}

	createdAt := post.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		post.Text, mediaType, mediaRef, post.ScheduledAt.Unix(), string(models.PostStatusScheduled), createdAt.Unix(),
	).Scan(&id)
	if err != nil {
		r.logger.Error("failed to insert post", zap.Error(err))
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("failed to get post", zap.Int64("post_id", id), zap.Error(err))
		return nil, err
	}

	return post, nil
}

func (r *postRepository) List(ctx context.Context, status models.PostStatus) ([]*models.Post, error) {
	if status == "" {
		return r.query(ctx, `SELECT `+postColumns+` FROM posts ORDER BY scheduled_at, id`)
	}
	return r.query(ctx, `SELECT `+postColumns+` FROM posts WHERE status = $1 ORDER BY scheduled_at, id`, string(status))
}

func (r *postRepository) Due(ctx context.Context, at time.Time) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at, id
	`
	return r.query(ctx, query, string(models.PostStatusScheduled), at.Unix())
}

// MarkSent moves a scheduled post to sent. Sent posts are left untouched.
func (r *postRepository) MarkSent(ctx context.Context, id int64) error {
	query := `UPDATE posts SET status = $1 WHERE id = $2 AND status = $3`

	_, err := r.db.ExecContext(ctx, query, string(models.PostStatusSent), id, string(models.PostStatusScheduled))
	if err != nil {
		r.logger.Error("failed to mark post sent", zap.Int64("post_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (r *postRepository) SetArchiveURL(ctx context.Context, id int64, url string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE posts SET archive_url = $1 WHERE id = $2`, url, id)
	if err != nil {
		r.logger.Error("failed to save archive url", zap.Int64("post_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (r *postRepository) CountByStatus(ctx context.Context) (map[models.PostStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM posts GROUP BY status`)
	if err != nil {
		r.logger.Error("failed to count posts", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.PostStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[models.PostStatus(status)] = count
	}
	return counts, rows.Err()
}

// Remove deletes the post if it exists.
func (r *postRepository) Remove(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to remove post", zap.Int64("post_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (r *postRepository) query(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query posts", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			r.logger.Error("failed to scan post", zap.Error(err))
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var mediaType, mediaRef, archive sql.NullString
	var scheduledAt, createdAt int64
	var status string

	err := row.Scan(&post.ID, &post.Text, &mediaType, &mediaRef, &archive, &scheduledAt, &status, &createdAt)
	if err != nil {
		return nil, err
	}

	if mediaType.Valid && mediaType.String != "" {
		post.Media = &models.Media{Kind: models.MediaKind(mediaType.String), Reference: mediaRef.String}
	}
	post.ArchiveURL = archive.String
	post.ScheduledAt = time.Unix(scheduledAt, 0)
	post.Status = models.PostStatus(status)
	post.CreatedAt = time.Unix(createdAt, 0)

	return &post, nil
}
