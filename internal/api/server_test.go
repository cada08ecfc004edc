package api

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAliveOnAnyPath(t *testing.T) {
	app := NewApp(zap.NewNop())

	for _, path := range []string{"/", "/health", "/some/deep/path"} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "Bot is alive!", string(body), path)
	}
}

func TestHeadIsServedByGetRoute(t *testing.T) {
	app := NewApp(zap.NewNop())

	resp, err := app.Test(httptest.NewRequest(fiber.MethodHead, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestPostIsNotRouted(t *testing.T) {
	app := NewApp(zap.NewNop())

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusMethodNotAllowed, resp.StatusCode)
}
