package login

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/dbtest"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/models"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler/handlertest"
)

func TestThrottleAllow(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	th := NewThrottle(6, 2) // one token every 10s
	th.now = func() time.Time { return now }

	assert.True(t, th.Allow("10.0.0.1"))
	assert.True(t, th.Allow("10.0.0.1"))
	assert.False(t, th.Allow("10.0.0.1"), "burst spent")
	assert.True(t, th.Allow("10.0.0.2"), "addresses have their own bucket")

	now = now.Add(10 * time.Second)
	assert.True(t, th.Allow("10.0.0.1"))
	assert.False(t, th.Allow("10.0.0.1"))
}

func TestThrottleForgetsIdleAddresses(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	th := NewThrottle(1, 1)
	th.now = func() time.Time { return now }

	th.Allow("10.0.0.1")
	th.Allow("10.0.0.2")
	require.Len(t, th.buckets, 2)

	now = now.Add(idleBucket + time.Minute)
	th.Allow("10.0.0.3")
	assert.Len(t, th.buckets, 1)
}

func TestLoginThrottled(t *testing.T) {
	env := handlertest.New(t)
	env.Deps.Cfg.Auth.LoginPerMinute = 1
	env.Deps.Cfg.Auth.LoginBurst = 2

	s := new(Service)
	require.NoError(t, s.Init(env.App, env.Deps))

	dbtest.CreateUser(t, env.DB, "ana@example.org", "password-1", "ADMIN")

	wrong := Request{Email: "ana@example.org", Password: "password-2"}

	for i := 0; i < 2; i++ {
		status, _ := env.Do(t, http.MethodPost, Path+"/login", "", wrong)
		require.Equal(t, http.StatusUnauthorized, status)
	}

	status, body := env.Do(t, http.MethodPost, Path+"/login", "", Request{Email: "ana@example.org", Password: "password-1"})
	require.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "too_many_requests", handlertest.Decode[handler.ErrorBody](t, body).Error)

	// throttled attempts never reach the identity service
	assert.Equal(t, int64(2), env.Count(t, &models.BitacoraEvent{}))
}
