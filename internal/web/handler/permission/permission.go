// Package permission exposes the read-only permission catalog and role matrix.
package permission

import (
	"github.com/gofiber/fiber/v2"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/auth"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler"
)

// Path is the route group of the catalog endpoints.
const Path = handler.APIPath + "/permisos"

// Service is the catalog handler service.
type Service struct{}

// Handler is the catalog handler.
var Handler = Service{}

// Module is one catalog entry.
type Module struct {
	Module auth.Module       `json:"modulo"`
	Perms  []auth.Permission `json:"permisos"`
}

// Role is one matrix row.
type Role struct {
	Role    auth.RoleCode     `json:"rol"`
	Perms   []auth.Permission `json:"permisos"`
	Modules []auth.Module     `json:"modulos"`
}

// Catalog returns every module with its permissions.
func Catalog() []Module {
	modules := auth.Modules()

	out := make([]Module, len(modules))
	for i, m := range modules {
		out[i] = Module{Module: m, Perms: auth.ModulePermissions(m)}
	}

	return out
}

// Matrix returns the permissions and modules of every role.
func Matrix() []Role {
	roles := auth.Roles()

	out := make([]Role, len(roles))
	for i, r := range roles {
		out[i] = Role{
			Role:    r,
			Perms:   auth.RolePermissions(r),
			Modules: auth.AccessibleModules([]string{string(r)}),
		}
	}

	return out
}

// Init registers the routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	app.Route(Path, func(router fiber.Router) {
		router.Get("/catalogo", deps.Guard.Authenticate(), s.Catalog)
		router.Get("/matriz", deps.Guard.Authenticate(), s.Matrix)
	})

	return nil
}

// Catalog handles GET /api/permisos/catalogo.
func (s *Service) Catalog(c *fiber.Ctx) error {
	return c.JSON(Catalog())
}

// Matrix handles GET /api/permisos/matriz.
func (s *Service) Matrix(c *fiber.Ctx) error {
	return c.JSON(Matrix())
}
