package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/chanpost/internal/models"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

type fakeResolver map[string]string

func (f fakeResolver) FileURL(fileID string) (string, error) {
	url, ok := f[fileID]
	if !ok {
		return "", errors.New("file not found")
	}
	return url, nil
}

type upload struct {
	key      string
	size     int
	filetype string
}

type fakeUploader struct {
	uploads []upload
	err     error
}

func (f *fakeUploader) UploadToR2(_ context.Context, key string, file []byte, filetype string) error {
	if f.err != nil {
		return f.err
	}
	f.uploads = append(f.uploads, upload{key: key, size: len(file), filetype: filetype})
	return nil
}

func newFileServer(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/photo.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestArchivePhoto(t *testing.T) {
	srv := newFileServer(t, pngHeader)
	uploader := &fakeUploader{}
	archiver := NewMediaArchiveService(fakeResolver{"photo-id": srv.URL + "/photo.png"}, uploader, srv.Client(), "https://media.example.com/")

	url, err := archiver.Archive(context.Background(), models.Media{Kind: models.MediaPhoto, Reference: "photo-id"})
	require.NoError(t, err)

	require.Len(t, uploader.uploads, 1)
	up := uploader.uploads[0]
	assert.True(t, strings.HasSuffix(up.key, ".png"))
	assert.Equal(t, "image/png", up.filetype)
	assert.Equal(t, len(pngHeader), up.size)
	assert.Equal(t, "https://media.example.com/"+up.key, url)
}

func TestArchiveRejectsMismatchedKind(t *testing.T) {
	srv := newFileServer(t, pngHeader)
	uploader := &fakeUploader{}
	archiver := NewMediaArchiveService(fakeResolver{"video-id": srv.URL + "/photo.png"}, uploader, srv.Client(), "https://media.example.com")

	_, err := archiver.Archive(context.Background(), models.Media{Kind: models.MediaVideo, Reference: "video-id"})
	assert.Error(t, err)
	assert.Empty(t, uploader.uploads)
}

func TestArchiveRejectsUnknownContent(t *testing.T) {
	srv := newFileServer(t, []byte("plain text, not an image"))
	uploader := &fakeUploader{}
	archiver := NewMediaArchiveService(fakeResolver{"photo-id": srv.URL + "/photo.png"}, uploader, srv.Client(), "https://media.example.com")

	_, err := archiver.Archive(context.Background(), models.Media{Kind: models.MediaPhoto, Reference: "photo-id"})
	assert.Error(t, err)
	assert.Empty(t, uploader.uploads)
}

func TestArchiveDownloadFailure(t *testing.T) {
	srv := newFileServer(t, pngHeader)
	archiver := NewMediaArchiveService(fakeResolver{"photo-id": srv.URL + "/missing.png"}, &fakeUploader{}, srv.Client(), "https://media.example.com")

	_, err := archiver.Archive(context.Background(), models.Media{Kind: models.MediaPhoto, Reference: "photo-id"})
	assert.ErrorIs(t, err, ErrTransport)
}

func TestArchiveUnknownFile(t *testing.T) {
	archiver := NewMediaArchiveService(fakeResolver{}, &fakeUploader{}, nil, "https://media.example.com")

	_, err := archiver.Archive(context.Background(), models.Media{Kind: models.MediaPhoto, Reference: "photo-id"})
	assert.Error(t, err)
}
