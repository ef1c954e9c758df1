// Package role provides the ADMIN-only role administration endpoints. Roles are never
// deleted: DELETE deactivates and a dedicated route reactivates.
package role

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/audit"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/auth"
	controller "github.com/javier19927/proyecto-fullstack-sub002/internal/db/controller/role"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/models"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler"
)

const (
	// Path is the route group of role administration.
	Path = handler.APIPath + "/roles"

	// Table is the audited table name.
	Table = "roles"
)

// Service is the role administration handler service.
type Service struct {
	db       *gorm.DB
	appender audit.Appender
}

// Handler is the role administration handler.
var Handler = Service{}

// CreateRequest is the payload of POST /api/roles.
type CreateRequest struct {
	Code        string `json:"codigo" validate:"required,max=30"`
	Name        string `json:"nombre" validate:"required,max=100"`
	Description string `json:"descripcion" validate:"max=255"`
	Level       int    `json:"nivel" validate:"required,gte=1,lte=99"`
}

// UpdateRequest is the payload of PUT /api/roles/:code.
type UpdateRequest struct {
	Name        string `json:"nombre" validate:"required,max=100"`
	Description string `json:"descripcion" validate:"max=255"`
	Level       int    `json:"nivel" validate:"required,gte=1,lte=99"`
}

// View is a role with the permissions the matrix grants it.
type View struct {
	models.Role
	Perms []auth.Permission `json:"permisos"`
}

func viewOf(r models.Role) View {
	return View{Role: r, Perms: auth.RolePermissions(auth.RoleCode(r.Code))}
}

// Init initializes the role administration handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.db = deps.DB
	s.appender = deps.Appender

	admin := deps.Guard.Require(auth.AdminOnly())

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, admin, s.List)
		router.Post(handler.RouterRootPath, admin, s.Create)
		router.Get("/:code", admin, s.Get)
		router.Put("/:code", admin, s.Update)
		router.Delete("/:code", admin, s.Deactivate)
		router.Post("/:code/activate", admin, s.Activate)
	})

	return nil
}

// List returns the roles ordered by level. ?inactivos=true includes deactivated ones.
func (s *Service) List(c *fiber.Ctx) error {
	roles, err := controller.GetAll(s.db.WithContext(c.UserContext()), c.QueryBool("inactivos"))
	if err != nil {
		return err
	}

	out := make([]View, len(roles))
	for i, r := range roles {
		out[i] = viewOf(r)
	}

	return c.JSON(out)
}

// Get returns one role.
func (s *Service) Get(c *fiber.Ctx) error {
	r, err := controller.Get(s.db.WithContext(c.UserContext()), c.Params("code"))
	if err != nil {
		return mapError(err)
	}

	return c.JSON(viewOf(*r))
}

// Create adds a role whose code has a permission matrix entry.
func (s *Service) Create(c *fiber.Ctx) error {
	req := new(CreateRequest)
	if err := handler.Bind(c, req); err != nil {
		return err
	}

	created, err := controller.Create(s.db.WithContext(c.UserContext()), models.Role{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Level:       req.Level,
	})
	if err != nil {
		return mapError(err)
	}

	if err = s.record(c, audit.ActionInsert, created.ID, nil, created); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(viewOf(*created))
}

// Update changes name, description and level.
func (s *Service) Update(c *fiber.Ctx) error {
	req := new(UpdateRequest)
	if err := handler.Bind(c, req); err != nil {
		return err
	}

	before, after, err := controller.Update(
		s.db.WithContext(c.UserContext()), c.Params("code"), req.Name, req.Description, req.Level,
	)
	if err != nil {
		return mapError(err)
	}

	if err = s.record(c, audit.ActionUpdate, after.ID, before, after); err != nil {
		return err
	}

	return c.JSON(viewOf(*after))
}

// Deactivate soft deletes a role. Users holding it lose its permissions on their next credential.
func (s *Service) Deactivate(c *fiber.Ctx) error {
	return s.setActive(c, false, audit.ActionInactivate)
}

// Activate reverts a deactivation.
func (s *Service) Activate(c *fiber.Ctx) error {
	return s.setActive(c, true, audit.ActionActivate)
}

func (s *Service) setActive(c *fiber.Ctx, active bool, action audit.Action) error {
	before, after, err := controller.SetActive(s.db.WithContext(c.UserContext()), c.Params("code"), active)
	if err != nil {
		return mapError(err)
	}

	if err = s.record(c, action, after.ID, before, after); err != nil {
		return err
	}

	return c.JSON(viewOf(*after))
}

func (s *Service) record(c *fiber.Ctx, action audit.Action, id uint, before, after *models.Role) error {
	ip, ua := handler.Client(c)

	entry := audit.AuditEntry{
		Action:    action,
		Table:     Table,
		RecordID:  strconv.FormatUint(uint64(id), 10),
		Actor:     handler.Actor(c),
		After:     after,
		IP:        ip,
		UserAgent: ua,
	}

	if before != nil {
		entry.Before = before
	}

	_, err := s.appender.RecordAudit(c.UserContext(), entry)

	return err
}

func mapError(err error) error {
	switch {
	case errors.Is(err, controller.ErrRoleNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, controller.ErrRoleAlreadyExists), errors.Is(err, controller.ErrRoleUnchanged):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, controller.ErrRoleNotInMatrix),
		errors.Is(err, controller.ErrRoleCodeEmpty),
		errors.Is(err, controller.ErrRoleNameEmpty):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return err
	}
}
