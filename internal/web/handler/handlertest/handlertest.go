// Package handlertest wires a fiber app with an in-memory database for handler tests.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/audit"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/auth"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/config"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/dbtest"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/identity"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler"
)

// Env is one isolated test server.
type Env struct {
	App    *fiber.App
	DB     *gorm.DB
	Tokens *auth.Tokens
	Deps   *handler.Deps
}

// New returns an app with the error handler installed, seeded roles and every
// dependency backed by a fresh in-memory database. Handlers are registered by the caller.
func New(t *testing.T) *Env {
	t.Helper()

	db := dbtest.Open(t)
	dbtest.SeedRoles(t, db)

	tokens, err := auth.NewTokens(auth.TokenConfig{Secret: []byte("handler-test-secret-handler-test-secret"), TTL: time.Hour})
	require.NoError(t, err)

	recorder, err := audit.NewRecorder(db, audit.Options{MaxRetries: 0})
	require.NoError(t, err)

	cfg := &config.Config{Webserver: config.Webserver{Port: 8080, URL: "http://localhost"}}

	deps := &handler.Deps{
		Cfg:      cfg,
		DB:       db,
		Guard:    auth.NewGuard(tokens),
		Identity: identity.NewService(db, tokens, recorder),
		Recorder: recorder,
		Appender: recorder,
	}

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler})

	return &Env{App: app, DB: db, Tokens: tokens, Deps: deps}
}

// Token returns an Authorization header value for a credential holding roles.
func (e *Env) Token(t *testing.T, userID uint64, roles ...string) string {
	t.Helper()

	raw, _, err := e.Tokens.Issue(userID, "test@example.org", roles, nil)
	require.NoError(t, err)

	return "Bearer " + raw
}

// Do performs a request. body is sent as JSON unless nil.
func (e *Env) Do(t *testing.T, method, path, authorization string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}

	resp, err := e.App.Test(req, -1)
	require.NoError(t, err)

	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, out
}

// Decode unmarshals a response body.
func Decode[T any](t *testing.T, body []byte) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(body, &out), string(body))

	return out
}

// Count returns the number of rows of model.
func (e *Env) Count(t *testing.T, model any) int64 {
	t.Helper()

	var n int64
	require.NoError(t, e.DB.Model(model).Count(&n).Error)

	return n
}
