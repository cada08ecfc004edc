package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	config "github.com/maheshrc27/chanpost/configs"
	"github.com/maheshrc27/chanpost/internal/database"
	"github.com/maheshrc27/chanpost/internal/models"
)

func newTestRepository(t *testing.T) PostRepository {
	t.Helper()

	db, err := database.Open(config.Database{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "posts.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostRepository(db, zap.NewNop())
}

func base() time.Time {
	return time.Date(2024, time.December, 25, 14, 30, 0, 0, time.Local)
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	media := &models.Media{Kind: models.MediaPhoto, Reference: "AgACAgIAAxkBAAIB"}
	id, err := repo.Create(ctx, &models.Post{Text: "Hello", Media: media, ScheduledAt: base()})
	require.NoError(t, err)
	assert.Positive(t, id)

	posts, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, posts, 1)

	got := posts[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Hello", got.Text)
	assert.Equal(t, media, got.Media)
	assert.True(t, base().Equal(got.ScheduledAt))
	assert.Equal(t, models.PostStatusScheduled, got.Status)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestCreateTextOnly(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	id, err := repo.Create(ctx, &models.Post{Text: "text only", ScheduledAt: base()})
	require.NoError(t, err)

	post, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Nil(t, post.Media)
	assert.Empty(t, post.ArchiveURL)
}

func TestIDsAreUniqueAndIncreasing(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	var last int64
	for i := 0; i < 5; i++ {
		id, err := repo.Create(ctx, &models.Post{Text: "post", ScheduledAt: base()})
		require.NoError(t, err)
		assert.Greater(t, id, last)
		last = id
	}
}

func TestListOrderedByScheduledAt(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	for _, offset := range []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour} {
		_, err := repo.Create(ctx, &models.Post{Text: offset.String(), ScheduledAt: base().Add(offset)})
		require.NoError(t, err)
	}

	posts, err := repo.List(ctx, models.PostStatusScheduled)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "1h0m0s", posts[0].Text)
	assert.Equal(t, "2h0m0s", posts[1].Text)
	assert.Equal(t, "3h0m0s", posts[2].Text)
}

func TestMarkSentMovesBetweenLists(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	id, err := repo.Create(ctx, &models.Post{Text: "Hello", ScheduledAt: base()})
	require.NoError(t, err)

	require.NoError(t, repo.MarkSent(ctx, id))

	scheduled, err := repo.List(ctx, models.PostStatusScheduled)
	require.NoError(t, err)
	assert.Empty(t, scheduled)

	sent, err := repo.List(ctx, models.PostStatusSent)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, id, sent[0].ID)

	// Marking again is harmless.
	require.NoError(t, repo.MarkSent(ctx, id))
	post, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusSent, post.Status)
}

func TestDue(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	past, err := repo.Create(ctx, &models.Post{Text: "past", ScheduledAt: base().Add(-time.Minute)})
	require.NoError(t, err)
	exact, err := repo.Create(ctx, &models.Post{Text: "exact", ScheduledAt: base()})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.Post{Text: "future", ScheduledAt: base().Add(time.Minute)})
	require.NoError(t, err)
	sent, err := repo.Create(ctx, &models.Post{Text: "sent", ScheduledAt: base().Add(-time.Hour)})
	require.NoError(t, err)
	require.NoError(t, repo.MarkSent(ctx, sent))

	due, err := repo.Due(ctx, base())
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, past, due[0].ID)
	assert.Equal(t, exact, due[1].ID)
}

func TestRemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	id, err := repo.Create(ctx, &models.Post{Text: "Hello", ScheduledAt: base()})
	require.NoError(t, err)

	require.NoError(t, repo.Remove(ctx, id))
	require.NoError(t, repo.Remove(ctx, id))
	require.NoError(t, repo.Remove(ctx, 9999))

	post, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, post)
}

func TestCountByStatusAndArchiveURL(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, &models.Post{Text: "post", ScheduledAt: base()})
		require.NoError(t, err)
	}
	id, err := repo.Create(ctx, &models.Post{Text: "video", Media: &models.Media{Kind: models.MediaVideo, Reference: "BAACAgIA"}, ScheduledAt: base()})
	require.NoError(t, err)
	require.NoError(t, repo.MarkSent(ctx, id))
	require.NoError(t, repo.SetArchiveURL(ctx, id, "https://media.example.com/abc.mp4"))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[models.PostStatusScheduled])
	assert.Equal(t, 1, counts[models.PostStatusSent])

	post, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://media.example.com/abc.mp4", post.ArchiveURL)
	assert.Equal(t, models.MediaVideo, post.Media.Kind)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "posts.db")
	cfg := config.Database{Driver: config.DriverSQLite, Path: path}

	botDB, err := database.Open(cfg)
	require.NoError(t, err)
	defer botDB.Close()
	jobDB, err := database.Open(cfg)
	require.NoError(t, err)
	defer jobDB.Close()

	writer := NewPostRepository(botDB, zap.NewNop())
	reader := NewPostRepository(jobDB, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 50; i++ {
			if _, err := writer.Create(ctx, &models.Post{Text: "post", ScheduledAt: base()}); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	for i := 0; i < 50; i++ {
		due, err := reader.Due(ctx, base())
		require.NoError(t, err)
		for _, post := range due {
			require.NoError(t, reader.MarkSent(ctx, post.ID))
		}
	}
	require.NoError(t, <-done)

	posts, err := reader.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, posts, 50)
}
