package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredLogger_IncludesRequestContext(t *testing.T) {
	var buf bytes.Buffer
	ConfigureLogger(&buf, "production", "info")
	t.Cleanup(func() { ConfigureLogger(os.Stdout, "test", "info") })

	app := fiber.New()
	app.Use(requestid.New(requestid.Config{Generator: func() string { return "req-1" }}))
	app.Use(ContextMiddleware())
	app.Use(StructuredLogger())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusTeapot) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "request processed", line["msg"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "/ping", line["path"])
	assert.EqualValues(t, http.StatusTeapot, line["status"])
}

func TestConfigureLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	ConfigureLogger(&buf, "development", "warn")
	t.Cleanup(func() { ConfigureLogger(os.Stdout, "test", "info") })

	Logger.Info("hidden")
	Logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
