package auth

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Requirement modes reported in denials.
const (
	ModePermission  = "permission"
	ModeAny         = "any"
	ModeAll         = "all"
	ModeModule      = "module"
	ModeAdmin       = "admin"
	ModeSelfOrAdmin = "self_or_admin"
)

// Requirement is one authorization check evaluated by the guard after authentication.
// Requirements are built by the constructors below, which reject unknown permissions and
// modules at route registration time.
type Requirement struct {
	mode  string
	perms []Permission
	mod   Module
	check func(c *fiber.Ctx, claims SessionClaims) bool
}

// Mode returns the requirement kind.
func (r Requirement) Mode() string {
	return r.mode
}

func (r Requirement) evaluate(c *fiber.Ctx, claims SessionClaims) *Denial {
	if r.check != nil && r.check(c, claims) {
		return nil
	}

	required := make([]Permission, len(r.perms))
	copy(required, r.perms)

	return &Denial{Mode: r.mode, Required: required, Module: r.mod, Roles: claims.Roles()}
}

func mustKnow(perms []Permission) {
	if len(perms) == 0 {
		panic("auth: requirement needs at least one permission")
	}

	for _, p := range perms {
		if !IsKnownPermission(p) {
			panic("auth: unknown permission " + string(p))
		}
	}
}

// RequirePermission demands one exact permission.
func RequirePermission(p Permission) Requirement {
	mustKnow([]Permission{p})

	return Requirement{
		mode:  ModePermission,
		perms: []Permission{p},
		check: func(_ *fiber.Ctx, claims SessionClaims) bool {
			return HasPermission(claims.roles, p)
		},
	}
}

// RequireAny demands at least one of perms.
func RequireAny(perms ...Permission) Requirement {
	mustKnow(perms)

	return Requirement{
		mode:  ModeAny,
		perms: perms,
		check: func(_ *fiber.Ctx, claims SessionClaims) bool {
			return HasAnyPermission(claims.roles, perms)
		},
	}
}

// RequireAll demands every one of perms.
func RequireAll(perms ...Permission) Requirement {
	mustKnow(perms)

	return Requirement{
		mode:  ModeAll,
		perms: perms,
		check: func(_ *fiber.Ctx, claims SessionClaims) bool {
			return HasAllPermissions(claims.roles, perms)
		},
	}
}

// RequireModule demands any permission inside module.
func RequireModule(m Module) Requirement {
	if !IsKnownModule(m) {
		panic("auth: unknown module " + string(m))
	}

	return Requirement{
		mode: ModeModule,
		mod:  m,
		check: func(_ *fiber.Ctx, claims SessionClaims) bool {
			return HasModuleAccess(claims.roles, m)
		},
	}
}

// AdminOnly demands the ADMIN role.
func AdminOnly() Requirement {
	return Requirement{
		mode: ModeAdmin,
		check: func(_ *fiber.Ctx, claims SessionClaims) bool {
			return claims.HasRole(RoleAdmin)
		},
	}
}

// SelfOrAdmin demands that the route parameter param equals the caller's user id,
// unless the caller is ADMIN. An unparsable parameter is denied.
func SelfOrAdmin(param string) Requirement {
	return Requirement{
		mode: ModeSelfOrAdmin,
		check: func(c *fiber.Ctx, claims SessionClaims) bool {
			if claims.HasRole(RoleAdmin) {
				return true
			}

			target, err := strconv.ParseUint(c.Params(param), 10, 64)
			if err != nil {
				return false
			}

			return target == claims.UserID
		},
	}
}
