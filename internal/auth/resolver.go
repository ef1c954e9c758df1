package auth

// The resolver functions are pure: they consult only the immutable matrix and never
// perform I/O. Unknown role codes and empty role sets resolve to no access.

// HasPermission reports whether any of roles grants permission.
func HasPermission(roles []string, permission Permission) bool {
	for _, r := range roles {
		if _, ok := matrix[RoleCode(r)][permission]; ok {
			return true
		}
	}

	return false
}

// HasModuleAccess reports whether roles hold at least one permission of module.
func HasModuleAccess(roles []string, module Module) bool {
	for _, p := range catalog[module] {
		if HasPermission(roles, p) {
			return true
		}
	}

	return false
}

// HasAnyPermission reports whether roles grant at least one of permissions.
func HasAnyPermission(roles []string, permissions []Permission) bool {
	for _, p := range permissions {
		if HasPermission(roles, p) {
			return true
		}
	}

	return false
}

// HasAllPermissions reports whether roles grant every one of permissions.
// An empty permission list is not a grant.
func HasAllPermissions(roles []string, permissions []Permission) bool {
	if len(permissions) == 0 {
		return false
	}

	for _, p := range permissions {
		if !HasPermission(roles, p) {
			return false
		}
	}

	return true
}

// EffectivePermissions returns the sorted union of permissions granted by roles.
func EffectivePermissions(roles []string) []Permission {
	seen := make(permissionSet)

	for _, r := range roles {
		for p := range matrix[RoleCode(r)] {
			seen[p] = struct{}{}
		}
	}

	out := make([]Permission, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}

	sortPermissions(out)

	return out
}

// AccessibleModules returns the sorted modules in which roles hold any permission.
func AccessibleModules(roles []string) []Module {
	var out []Module

	for _, m := range Modules() {
		if HasModuleAccess(roles, m) {
			out = append(out, m)
		}
	}

	return out
}
