package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/audit"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/auth"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/controller/role"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/dbtest"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/models"
)

type fixture struct {
	db       *gorm.DB
	tokens   *auth.Tokens
	recorder *audit.Recorder
	svc      *Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db := dbtest.Open(t)
	dbtest.SeedRoles(t, db)

	tokens, err := auth.NewTokens(auth.TokenConfig{Secret: []byte("identity-test-secret-identity-test"), TTL: 8 * time.Hour})
	require.NoError(t, err)

	recorder, err := audit.NewRecorder(db, audit.DefaultOptions())
	require.NoError(t, err)

	return fixture{db: db, tokens: tokens, recorder: recorder, svc: NewService(db, tokens, recorder)}
}

func bitacora(t *testing.T, db *gorm.DB, event string) []models.BitacoraEvent {
	t.Helper()

	var rows []models.BitacoraEvent
	require.NoError(t, db.Where("evento = ?", event).Order("id").Find(&rows).Error)

	return rows
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)
	u := dbtest.CreateUser(t, f.db, "ana@example.org", "s3cret-pass", "PLANIF", "VALID")

	issued, err := f.svc.Login(context.Background(), "  Ana@Example.org ", "s3cret-pass", "10.1.1.1")
	require.NoError(t, err)

	assert.Equal(t, u.ID, issued.User.ID)
	assert.Equal(t, []string{"PLANIF", "VALID"}, issued.User.Roles)
	assert.Contains(t, issued.Perms, auth.PermCrearObjetivo)
	assert.Contains(t, issued.Perms, auth.PermValidarObjetivo)
	assert.NotContains(t, issued.Perms, auth.PermCrearUsuario)

	claims, err := f.tokens.Validate(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	rows := bitacora(t, f.db, EventLogin)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].ActorUserID)
	assert.Equal(t, u.ID, *rows[0].ActorUserID)
	assert.Equal(t, "10.1.1.1", rows[0].IP)
	assert.Equal(t, string(audit.SeverityInfo), rows[0].Severity)
}

func TestLoginFailures(t *testing.T) {
	testCases := []struct {
		name     string
		email    string
		password string
		inactive bool
		wantErr  error
		hasActor bool
	}{
		{name: "unknown email", email: "nadie@example.org", password: "x", wantErr: auth.ErrInvalidLogin},
		{name: "wrong password", email: "ana@example.org", password: "wrong", wantErr: auth.ErrInvalidLogin, hasActor: true},
		{name: "empty password", email: "ana@example.org", password: "", wantErr: auth.ErrInvalidLogin},
		{name: "inactive account", email: "ana@example.org", password: "s3cret-pass", inactive: true, wantErr: auth.ErrUserInactive, hasActor: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			u := dbtest.CreateUser(t, f.db, "ana@example.org", "s3cret-pass", "ADMIN")

			if tc.inactive {
				require.NoError(t, f.db.Model(&u).Update("active", false).Error)
			}

			_, err := f.svc.Login(context.Background(), tc.email, tc.password, "10.0.0.9")
			require.ErrorIs(t, err, tc.wantErr)

			assert.Empty(t, bitacora(t, f.db, EventLogin))

			rows := bitacora(t, f.db, EventLoginFailed)
			require.Len(t, rows, 1)
			assert.Equal(t, string(audit.SeverityWarning), rows[0].Severity)
			assert.Equal(t, tc.hasActor, rows[0].ActorUserID != nil)
			assert.NotContains(t, string(rows[0].Detail), "s3cret-pass")
		})
	}
}

func TestUnknownAccountStillComparesPassword(t *testing.T) {
	f := newFixture(t)
	dbtest.CreateUser(t, f.db, "ana@example.org", "s3cret-pass", "ADMIN")

	var compared []string

	f.svc.unknown = func(password string) {
		compared = append(compared, password)
		models.VerifyUnknownAccount(password)
	}

	_, err := f.svc.Login(context.Background(), "nadie@example.org", "guess-1", "")
	require.ErrorIs(t, err, auth.ErrInvalidLogin)
	assert.Equal(t, []string{"guess-1"}, compared)

	_, err = f.svc.Login(context.Background(), "ana@example.org", "guess-2", "")
	require.ErrorIs(t, err, auth.ErrInvalidLogin)
	assert.Equal(t, []string{"guess-1"}, compared, "known accounts compare against their own hash")
}

func TestIssueUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Issue(context.Background(), 404)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestIssueSkipsInactiveRoles(t *testing.T) {
	f := newFixture(t)
	u := dbtest.CreateUser(t, f.db, "rev@example.org", "pw-pw-pw", "REVISOR", "AUDITOR")

	_, _, err := role.SetActive(f.db, "AUDITOR", false)
	require.NoError(t, err)

	issued, err := f.svc.Issue(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"REVISOR"}, issued.User.Roles)
	assert.False(t, auth.HasModuleAccess(issued.User.Roles, auth.ModuleAuditoria))
}

// Credentials are stateless: removing a role does not affect credentials already
// issued, only the next one.
func TestRoleRemovalAppliesOnNextCredential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := dbtest.CreateUser(t, f.db, "u@example.org", "pw-pw-pw", "PLANIF", "VALID")

	first, err := f.svc.Login(ctx, "u@example.org", "pw-pw-pw", "")
	require.NoError(t, err)

	held, err := f.tokens.Validate(first.Token)
	require.NoError(t, err)
	assert.True(t, auth.HasPermission(held.Roles(), auth.PermCrearProyecto))
	assert.True(t, auth.HasModuleAccess(held.Roles(), auth.ModuleValidacion))

	_, _, err = role.Unassign(f.db, u.ID, "VALID", nil, time.Now().UTC())
	require.NoError(t, err)

	stale, err := f.tokens.Validate(first.Token)
	require.NoError(t, err)
	assert.True(t, auth.HasModuleAccess(stale.Roles(), auth.ModuleValidacion),
		"an unexpired credential keeps the roles it was issued with")

	next, err := f.svc.Issue(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"PLANIF"}, next.User.Roles)
	assert.False(t, auth.HasModuleAccess(next.User.Roles, auth.ModuleValidacion))
	assert.True(t, auth.HasPermission(next.User.Roles, auth.PermCrearProyecto))

	refreshed, err := f.svc.Refresh(ctx, stale, "10.2.2.2")
	require.NoError(t, err)
	assert.Equal(t, []string{"PLANIF"}, refreshed.User.Roles)

	rows := bitacora(t, f.db, EventTokenRefresh)
	require.Len(t, rows, 1)
	assert.Contains(t, string(rows[0].Detail), "VALID")
}

func TestRefreshInactiveUser(t *testing.T) {
	f := newFixture(t)
	u := dbtest.CreateUser(t, f.db, "u@example.org", "pw-pw-pw", "AUDITOR")

	issued, err := f.svc.Issue(context.Background(), u.ID)
	require.NoError(t, err)

	claims, err := f.tokens.Validate(issued.Token)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&u).Update("active", false).Error)

	_, err = f.svc.Refresh(context.Background(), claims, "")
	require.ErrorIs(t, err, auth.ErrUserInactive)
	assert.Empty(t, bitacora(t, f.db, EventTokenRefresh))
}
