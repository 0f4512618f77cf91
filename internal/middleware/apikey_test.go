package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyEchoApp() *fiber.App {
	app := fiber.New()
	app.Get("/", APIKey(), func(c *fiber.Ctx) error {
		return c.SendString(GetAPIKey(c))
	})
	return app
}

func extract(t *testing.T, app *fiber.App, headers map[string]string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	return string(buf[:n])
}

func TestAPIKeyFromHeader(t *testing.T) {
	app := keyEchoApp()
	got := extract(t, app, map[string]string{"X-API-Key": "key-from-header"})
	assert.Equal(t, "key-from-header", got)
}

func TestAPIKeyFromBearerToken(t *testing.T) {
	app := keyEchoApp()
	got := extract(t, app, map[string]string{"Authorization": "Bearer key-from-bearer"})
	assert.Equal(t, "key-from-bearer", got)
}

func TestAPIKeyHeaderWinsOverBearer(t *testing.T) {
	app := keyEchoApp()
	got := extract(t, app, map[string]string{
		"X-API-Key":     "header-key",
		"Authorization": "Bearer bearer-key",
	})
	assert.Equal(t, "header-key", got)
}

func TestAPIKeyAbsentNeverRejects(t *testing.T) {
	app := keyEchoApp()
	got := extract(t, app, nil)
	assert.Equal(t, "", got)
}
