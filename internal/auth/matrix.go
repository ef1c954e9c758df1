package auth

import "sort"

// RoleCode identifies a role in the matrix and in the credential.
type RoleCode string

// Fixed roles. Privilege flows only through the matrix below.
const (
	RoleAdmin   RoleCode = "ADMIN"
	RolePlanif  RoleCode = "PLANIF"
	RoleValid   RoleCode = "VALID"
	RoleRevisor RoleCode = "REVISOR"
	RoleAuditor RoleCode = "AUDITOR"
)

type permissionSet map[Permission]struct{}

// matrix maps each role to its granted permissions. Built once at process start,
// read-only afterwards, so concurrent readers need no locking.
var matrix = buildMatrix(map[RoleCode][]Permission{ //nolint:gochecknoglobals
	RoleAdmin: concat(
		ModulePermissions(ModuleConfiguracion),
		ModulePermissions(ModuleAuditoria),
		ModulePermissions(ModuleReportes),
		[]Permission{PermVerObjetivos, PermVerProyectos},
	),
	RolePlanif: concat(
		ModulePermissions(ModuleObjetivos),
		ModulePermissions(ModuleProyectos),
		[]Permission{PermVerInstituciones, PermVerReportes},
	),
	RoleValid: concat(
		ModulePermissions(ModuleValidacion),
		[]Permission{PermVerObjetivos, PermVerProyectos, PermVerReportes},
	),
	RoleRevisor: concat(
		ModulePermissions(ModuleRevision),
		[]Permission{PermVerObjetivos, PermVerProyectos},
	),
	RoleAuditor: concat(
		ModulePermissions(ModuleAuditoria),
		ModulePermissions(ModuleReportes),
	),
})

func concat(groups ...[]Permission) []Permission {
	var out []Permission
	for _, g := range groups {
		out = append(out, g...)
	}

	return out
}

func buildMatrix(def map[RoleCode][]Permission) map[RoleCode]permissionSet {
	m := make(map[RoleCode]permissionSet, len(def))

	for role, perms := range def {
		set := make(permissionSet, len(perms))

		for _, p := range perms {
			if !IsKnownPermission(p) {
				panic("role " + string(role) + " references unknown permission " + string(p))
			}

			set[p] = struct{}{}
		}

		m[role] = set
	}

	return m
}

// Roles returns the role codes that have a matrix entry, sorted.
func Roles() []RoleCode {
	out := make([]RoleCode, 0, len(matrix))
	for r := range matrix {
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// IsKnownRole reports whether role has a matrix entry.
func IsKnownRole(role RoleCode) bool {
	_, ok := matrix[role]
	return ok
}

// RolePermissions returns the sorted permissions granted to a single role.
// Unknown roles yield an empty slice.
func RolePermissions(role RoleCode) []Permission {
	set := matrix[role]

	out := make([]Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}

	sortPermissions(out)

	return out
}

func sortPermissions(p []Permission) {
	sort.Slice(p, func(i, j int) bool { return p[i] < p[j] })
}
