package permission

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/auth"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler/handlertest"
)

func TestCatalogCoversTheMatrix(t *testing.T) {
	listed := map[auth.Permission]bool{}

	for _, m := range Catalog() {
		require.NotEmpty(t, m.Perms, m.Module)

		for _, p := range m.Perms {
			assert.False(t, listed[p], "%s listed twice", p)
			listed[p] = true

			got, ok := auth.ModuleOf(p)
			require.True(t, ok)
			assert.Equal(t, m.Module, got)
		}
	}

	for _, r := range auth.Roles() {
		for _, p := range auth.RolePermissions(r) {
			assert.True(t, listed[p], "%s grants %s which the catalog does not list", r, p)
		}
	}
}

func TestMatrixRows(t *testing.T) {
	rows := Matrix()
	require.Len(t, rows, len(auth.Roles()))

	byRole := map[auth.RoleCode]Role{}
	for _, r := range rows {
		byRole[r.Role] = r
	}

	assert.Contains(t, byRole[auth.RoleAdmin].Perms, auth.PermAsignarRoles)
	assert.Contains(t, byRole[auth.RoleAdmin].Modules, auth.ModuleConfiguracion)
	assert.NotContains(t, byRole[auth.RoleAuditor].Modules, auth.ModuleObjetivos)
	assert.Contains(t, byRole[auth.RoleValid].Modules, auth.ModuleValidacion)
	assert.NotContains(t, byRole[auth.RoleValid].Perms, auth.PermCrearObjetivo)
}

func TestRoutesNeedCredential(t *testing.T) {
	env := handlertest.New(t)

	s := new(Service)
	require.NoError(t, s.Init(env.App, env.Deps))

	for _, path := range []string{Path + "/catalogo", Path + "/matriz"} {
		status, _ := env.Do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)

		// any authenticated role may read the catalog
		status, _ = env.Do(t, http.MethodGet, path, env.Token(t, 3, "REVISOR"), nil)
		assert.Equal(t, http.StatusOK, status, path)
	}

	_, body := env.Do(t, http.MethodGet, Path+"/matriz", env.Token(t, 3, "REVISOR"), nil)
	assert.Len(t, handlertest.Decode[[]Role](t, body), len(auth.Roles()))
}
