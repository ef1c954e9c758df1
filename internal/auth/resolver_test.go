package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogIsConsistent(t *testing.T) {
	seen := map[Permission]bool{}

	for _, m := range Modules() {
		perms := ModulePermissions(m)
		require.NotEmpty(t, perms, "module %s has no permissions", m)

		for _, p := range perms {
			assert.False(t, seen[p], "permission %s declared twice", p)
			seen[p] = true

			got, ok := ModuleOf(p)
			require.True(t, ok)
			assert.Equal(t, m, got)
		}
	}

	assert.False(t, IsKnownPermission("CREAR_USUARIOS"))
	assert.False(t, IsKnownModule("configuracion_institucional"))
}

func TestEveryRoleHasMatrixEntry(t *testing.T) {
	assert.Equal(t, []RoleCode{RoleAdmin, RoleAuditor, RolePlanif, RoleRevisor, RoleValid}, Roles())

	for _, r := range Roles() {
		assert.NotEmpty(t, RolePermissions(r), "role %s grants nothing", r)
	}
}

func TestHasPermission(t *testing.T) {
	testCases := []struct {
		name  string
		roles []string
		perm  Permission
		want  bool
	}{
		{name: "revisor can not create users", roles: []string{"REVISOR"}, perm: PermCrearUsuario, want: false},
		{name: "admin creates users", roles: []string{"ADMIN"}, perm: PermCrearUsuario, want: true},
		{name: "planif creates objectives", roles: []string{"PLANIF"}, perm: PermCrearObjetivo, want: true},
		{name: "planif can not validate", roles: []string{"PLANIF"}, perm: PermValidarObjetivo, want: false},
		{name: "auditor sees audit", roles: []string{"AUDITOR"}, perm: PermVerAuditoria, want: true},
		{name: "unknown role", roles: []string{"SUPERUSER"}, perm: PermVerAuditoria, want: false},
		{name: "role codes are case sensitive", roles: []string{"admin"}, perm: PermCrearUsuario, want: false},
		{name: "empty set", roles: nil, perm: PermVerReportes, want: false},
		{name: "unknown mixed with known", roles: []string{"SUPERUSER", "VALID"}, perm: PermValidarProyecto, want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HasPermission(tc.roles, tc.perm))
		})
	}
}

func TestHasModuleAccess(t *testing.T) {
	assert.True(t, HasModuleAccess([]string{"ADMIN"}, ModuleConfiguracion))
	assert.True(t, HasModuleAccess([]string{"PLANIF"}, ModuleConfiguracion), "VER_INSTITUCIONES is enough")
	assert.False(t, HasModuleAccess([]string{"REVISOR"}, ModuleConfiguracion))
	assert.False(t, HasModuleAccess([]string{"AUDITOR"}, ModuleValidacion))
	assert.False(t, HasModuleAccess(nil, ModuleReportes))
	assert.False(t, HasModuleAccess([]string{"ADMIN"}, "NO_EXISTE"))
}

func TestAnyAndAll(t *testing.T) {
	roles := []string{"VALID"}

	assert.True(t, HasAnyPermission(roles, []Permission{PermCrearUsuario, PermValidarObjetivo}))
	assert.False(t, HasAnyPermission(roles, []Permission{PermCrearUsuario, PermEmitirObservacion}))
	assert.False(t, HasAnyPermission(roles, nil))

	assert.True(t, HasAllPermissions(roles, []Permission{PermValidarObjetivo, PermVerReportes}))
	assert.False(t, HasAllPermissions(roles, []Permission{PermValidarObjetivo, PermCrearObjetivo}))
	assert.False(t, HasAllPermissions(roles, nil), "an empty list is not a grant")
}

func TestRoleUnion(t *testing.T) {
	union := EffectivePermissions([]string{"PLANIF", "VALID"})

	for _, p := range RolePermissions(RolePlanif) {
		assert.Contains(t, union, p)
	}

	for _, p := range RolePermissions(RoleValid) {
		assert.Contains(t, union, p)
	}

	assert.NotContains(t, union, PermCrearUsuario)
	assert.True(t, HasAllPermissions([]string{"PLANIF", "VALID"}, []Permission{PermCrearObjetivo, PermValidarObjetivo}))
}

func TestEffectivePermissionsIsIdempotent(t *testing.T) {
	once := EffectivePermissions([]string{"AUDITOR"})
	twice := EffectivePermissions([]string{"AUDITOR", "AUDITOR"})

	assert.Equal(t, once, twice)
	assert.IsIncreasing(t, permStrings(once))
	assert.Empty(t, EffectivePermissions([]string{"SUPERUSER"}))
	assert.Empty(t, EffectivePermissions(nil))
}

func TestAccessibleModules(t *testing.T) {
	assert.Equal(t,
		[]Module{ModuleAuditoria, ModuleReportes},
		AccessibleModules([]string{"AUDITOR"}),
	)
	assert.Equal(t,
		[]Module{ModuleObjetivos, ModuleProyectos, ModuleRevision},
		AccessibleModules([]string{"REVISOR"}),
	)
	assert.Empty(t, AccessibleModules([]string{"SUPERUSER"}))
}

func TestDenialUnwrapsForbidden(t *testing.T) {
	var err error = &Denial{Mode: ModePermission, Required: []Permission{PermCrearUsuario}, Roles: []string{"REVISOR"}}

	require.ErrorIs(t, err, ErrForbidden)
	assert.Contains(t, err.Error(), "CREAR_USUARIO")
	assert.Contains(t, err.Error(), "REVISOR")
}

func permStrings(p []Permission) []string {
	out := make([]string, len(p))
	for i, v := range p {
		out[i] = string(v)
	}

	return out
}
