package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var guardNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newGuardApp(t *testing.T, tokens *Tokens) *fiber.App {
	t.Helper()

	guard := NewGuard(tokens)
	app := fiber.New()

	whoami := func(c *fiber.Ctx) error {
		claims, ok := Claims(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}

		return c.JSON(claims.Identity())
	}

	app.Get("/me", guard.Authenticate(), whoami)
	app.Post("/usuarios", guard.Require(RequirePermission(PermCrearUsuario)), whoami)
	app.Get("/config", guard.Require(RequireModule(ModuleConfiguracion)), whoami)
	app.Get("/revision", guard.Require(RequireAny(PermRevisarObjetivo, PermRevisarProyecto)), whoami)
	app.Get("/flujo", guard.Require(RequireAll(PermCrearObjetivo, PermValidarObjetivo)), whoami)
	app.Get("/roles", guard.Require(AdminOnly()), whoami)
	app.Get("/usuarios/:id/permisos", guard.Require(SelfOrAdmin("id")), whoami)

	// second guard on the same chain reuses the claims
	app.Get("/chained", guard.Authenticate(), guard.Require(RequirePermission(PermVerReportes)), whoami)

	return app
}

func issue(t *testing.T, tokens *Tokens, userID uint64, roles ...string) string {
	t.Helper()

	raw, _, err := tokens.Issue(userID, "u@example.org", roles, nil)
	require.NoError(t, err)

	return "Bearer " + raw
}

func call(t *testing.T, app *fiber.App, method, path, authorization string) (int, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, body
}

func TestNewGuardNilValidator(t *testing.T) {
	assert.Panics(t, func() { NewGuard(nil) })
}

func TestRequirementConstructorsRejectUnknown(t *testing.T) {
	assert.Panics(t, func() { RequirePermission("CREAR_USUARIOS") })
	assert.Panics(t, func() { RequireAny() })
	assert.Panics(t, func() { RequireAll(PermVerReportes, "NOPE") })
	assert.Panics(t, func() { RequireModule("NOPE") })
}

func TestGuardUnauthorized(t *testing.T) {
	tokens := newTestTokens(t, guardNow)
	app := newGuardApp(t, tokens)

	expiredIssuer := newTestTokens(t, guardNow.Add(-9*time.Hour))

	testCases := []struct {
		name   string
		header string
		code   string
	}{
		{name: "no header", header: "", code: CodeCredentialMissing},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", code: CodeCredentialMissing},
		{name: "garbage", header: "Bearer nonsense", code: CodeCredentialInvalid},
		{name: "expired", header: issue(t, expiredIssuer, 1, "ADMIN"), code: CodeCredentialExpired},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := call(t, app, http.MethodGet, "/me", tc.header)
			assert.Equal(t, http.StatusUnauthorized, status)

			var got UnauthorizedBody
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, "unauthorized", got.Error)
			assert.Equal(t, tc.code, got.Code)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestGuardForbiddenPayload(t *testing.T) {
	tokens := newTestTokens(t, guardNow)
	app := newGuardApp(t, tokens)

	status, body := call(t, app, http.MethodPost, "/usuarios", issue(t, tokens, 3, "REVISOR"))
	require.Equal(t, http.StatusForbidden, status)

	var got struct {
		Error    string   `json:"error"`
		Mode     string   `json:"mode"`
		Required []string `json:"required"`
		Roles    []string `json:"roles"`
	}

	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "forbidden", got.Error)
	assert.Equal(t, ModePermission, got.Mode)
	assert.Equal(t, []string{"CREAR_USUARIO"}, got.Required)
	assert.Equal(t, []string{"REVISOR"}, got.Roles)
}

func TestGuardDecisions(t *testing.T) {
	tokens := newTestTokens(t, guardNow)
	app := newGuardApp(t, tokens)

	testCases := []struct {
		name   string
		method string
		path   string
		roles  []string
		userID uint64
		want   int
	}{
		{name: "admin creates users", method: http.MethodPost, path: "/usuarios", roles: []string{"ADMIN"}, want: 200},
		{name: "admin has configuration module", path: "/config", roles: []string{"ADMIN"}, want: 200},
		{name: "auditor lacks configuration module", path: "/config", roles: []string{"AUDITOR"}, want: 403},
		{name: "revisor any review", path: "/revision", roles: []string{"REVISOR"}, want: 200},
		{name: "planif no review", path: "/revision", roles: []string{"PLANIF"}, want: 403},
		{name: "planif alone lacks all", path: "/flujo", roles: []string{"PLANIF"}, want: 403},
		{name: "planif and valid hold all", path: "/flujo", roles: []string{"PLANIF", "VALID"}, want: 200},
		{name: "admin only", path: "/roles", roles: []string{"ADMIN"}, want: 200},
		{name: "auditor not admin", path: "/roles", roles: []string{"AUDITOR"}, want: 403},
		{name: "unknown role", path: "/chained", roles: []string{"SUPERUSER"}, want: 403},
		{name: "no roles", path: "/me", roles: nil, want: 200},
		{name: "self", path: "/usuarios/7/permisos", roles: []string{"REVISOR"}, userID: 7, want: 200},
		{name: "someone else", path: "/usuarios/8/permisos", roles: []string{"REVISOR"}, userID: 7, want: 403},
		{name: "admin any user", path: "/usuarios/8/permisos", roles: []string{"ADMIN"}, userID: 7, want: 200},
		{name: "unparsable id", path: "/usuarios/me/permisos", roles: []string{"REVISOR"}, userID: 7, want: 403},
		{name: "chained", path: "/chained", roles: []string{"AUDITOR"}, want: 200},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			method := tc.method
			if method == "" {
				method = http.MethodGet
			}

			userID := tc.userID
			if userID == 0 {
				userID = 1
			}

			status, _ := call(t, app, method, tc.path, issue(t, tokens, userID, tc.roles...))
			assert.Equal(t, tc.want, status)
		})
	}
}

func TestGuardAttachesIdentity(t *testing.T) {
	tokens := newTestTokens(t, guardNow)
	app := newGuardApp(t, tokens)

	status, body := call(t, app, http.MethodGet, "/me", issue(t, tokens, 42, "PLANIF", "VALID"))
	require.Equal(t, http.StatusOK, status)

	var got Identity
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, uint64(42), got.ID)
	assert.Equal(t, []string{"PLANIF", "VALID"}, got.Roles)
}
