package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/maheshrc27/chanpost/internal/models"
)

// Telegram bots cannot download files above 20 MB.
const maxArchiveSize = 20 << 20

var allowedArchiveTypes = map[models.MediaKind]map[string]struct{}{
	models.MediaPhoto: {"jpg": {}, "png": {}, "webp": {}, "gif": {}},
	models.MediaVideo: {"mp4": {}, "mov": {}, "webm": {}},
}

// FileResolver turns a Telegram file_id into a downloadable URL.
type FileResolver interface {
	FileURL(fileID string) (string, error)
}

// MediaArchiver copies a post's media out of Telegram and returns its
// public URL.
type MediaArchiver interface {
	Archive(ctx context.Context, media models.Media) (string, error)
}

type mediaArchiveService struct {
	files     FileResolver
	uploader  ObjectUploader
	client    *http.Client
	publicURL string
}

func NewMediaArchiveService(files FileResolver, uploader ObjectUploader, client *http.Client, publicURL string) MediaArchiver {
	if client == nil {
		client = http.DefaultClient
	}
	return &mediaArchiveService{
		files:     files,
		uploader:  uploader,
		client:    client,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

func (s *mediaArchiveService) Archive(ctx context.Context, media models.Media) (string, error) {
	url, err := s.files.FileURL(media.Reference)
	if err != nil {
		return "", err
	}

	data, err := s.download(ctx, url)
	if err != nil {
		return "", err
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return "", errors.New("unsupported file type")
	}
	if _, ok := allowedArchiveTypes[media.Kind][kind.Extension]; !ok {
		return "", fmt.Errorf("file type %s is not allowed for %s", kind.Extension, media.Kind)
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := id + "." + kind.Extension

	if err := s.uploader.UploadToR2(ctx, key, data, kind.MIME.Value); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s", s.publicURL, key), nil
}

func (s *mediaArchiveService) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: download returned %s", ErrTransport, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if len(data) > maxArchiveSize {
		return nil, errors.New("file exceeds archive size limit")
	}
	return data, nil
}
