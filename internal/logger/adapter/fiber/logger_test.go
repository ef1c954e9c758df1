package fiber_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/auth"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/logger"
	adapter "github.com/javier19927/proyecto-fullstack-sub002/internal/logger/adapter/fiber"
)

type accessLine struct {
	IP      string  `json:"IP"`
	Status  int     `json:"status"`
	URI     string  `json:"URI"`
	Method  string  `json:"method"`
	Host    string  `json:"host"`
	ActorID *uint64 `json:"actor_id"`
	Error   string  `json:"error"`
}

func newApp(cfg adapter.Config) *fiber.App {
	app := fiber.New()
	app.Use(adapter.New(cfg))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("hello test")
	})

	app.Get("/checkalive", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	app.Get("/me", func(c *fiber.Ctx) error {
		now := time.Now()
		claims := auth.NewSessionClaims(42, "u@example.com", []string{"ADMIN"}, nil, now, now.Add(time.Hour))
		c.SetUserContext(auth.WithClaims(c.UserContext(), claims))

		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Get("/fail", func(_ *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "nope")
	})

	return app
}

func request(t *testing.T, app *fiber.App, target string) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, target, nil), -1)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
}

func decode(t *testing.T, buf *bytes.Buffer) accessLine {
	t.Helper()

	var line accessLine
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line), buf.String())

	return line
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name   string
		target string
		status int
	}{
		{name: "root", target: "/", status: fiber.StatusOK},
		{name: "query string kept", target: "/?test=123", status: fiber.StatusOK},
		{name: "multi slash is logged unchanged", target: "//test", status: fiber.StatusNotFound},
		{name: "multi slash with query", target: "//?test=123", status: fiber.StatusNotFound},
		{name: "unknown path", target: "/no_path//?test=123", status: fiber.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer

			request(t, newApp(adapter.Config{Output: &buf}), tc.target)

			line := decode(t, &buf)
			assert.Equal(t, tc.status, line.Status)
			assert.Equal(t, tc.target, line.URI)
			assert.Equal(t, fiber.MethodGet, line.Method)
			assert.Equal(t, "example.com", line.Host)
			assert.Equal(t, "0.0.0.0", line.IP)
			assert.Nil(t, line.ActorID)
		})
	}
}

func TestNewLogsActor(t *testing.T) {
	var buf bytes.Buffer

	request(t, newApp(adapter.Config{Output: &buf}), "/me")

	line := decode(t, &buf)
	require.NotNil(t, line.ActorID)
	assert.Equal(t, uint64(42), *line.ActorID)
}

func TestNewLogsChainError(t *testing.T) {
	var buf bytes.Buffer

	request(t, newApp(adapter.Config{Output: &buf}), "/fail")

	line := decode(t, &buf)
	assert.Equal(t, fiber.StatusTeapot, line.Status)
	assert.Equal(t, "nope", line.Error)
}

func TestNewSkipsCheckAlive(t *testing.T) {
	var buf bytes.Buffer

	app := newApp(adapter.Config{
		Output:        &buf,
		CheckAliveURI: "/checkalive",
		Config:        logger.Log{DisableCheckAlive: true},
	})

	request(t, app, "/checkalive")
	assert.Empty(t, buf.String())

	request(t, app, "/")
	assert.True(t, strings.Contains(buf.String(), `"URI":"/"`))
}
