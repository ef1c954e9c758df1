// Package user provides the account administration endpoints, the user role
// assignment endpoints and the per-user permission view.
package user

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/audit"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/auth"
	rolecontroller "github.com/javier19927/proyecto-fullstack-sub002/internal/db/controller/role"
	controller "github.com/javier19927/proyecto-fullstack-sub002/internal/db/controller/user"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/models"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler"
)

const (
	// Path is the base path for user management.
	Path = handler.APIPath + "/usuarios"

	// Table is the audited table of accounts.
	Table = "usuarios"
	// AssignmentTable is the audited table of role assignments.
	AssignmentTable = "usuario_roles"
)

// Service provides account administration and role assignment.
type Service struct {
	db       *gorm.DB
	appender audit.Appender
	now      func() time.Time
}

// Handler is the exported instance.
var Handler = Service{}

// ListQuery are the query parameters of GET /api/usuarios.
type ListQuery struct {
	Search      string `query:"q" validate:"max=100"`
	Institution uint64 `query:"institucion"`
	Inactive    bool   `query:"inactivos"`
	Page        int    `query:"page" validate:"gte=0"`
	Limit       int    `query:"limit" validate:"gte=0,lte=100"`
}

// ListResponse is one page of accounts.
type ListResponse struct {
	Items []models.User `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Pages int           `json:"pages"`
}

// CreateRequest is the payload of POST /api/usuarios.
type CreateRequest struct {
	Email         string   `json:"email" validate:"required,email,max=255"`
	Password      string   `json:"password" validate:"required,min=8,max=128"`
	Name          string   `json:"nombre" validate:"required,max=200"`
	InstitutionID *uint64  `json:"institucion_id"`
	Roles         []string `json:"roles" validate:"dive,required,max=30"`
}

// UpdateRequest is the payload of PUT /api/usuarios/:id. Absent fields are kept.
type UpdateRequest struct {
	Email         *string `json:"email" validate:"omitempty,email,max=255"`
	Password      *string `json:"password" validate:"omitempty,min=8,max=128"`
	Name          *string `json:"nombre" validate:"omitempty,max=200"`
	InstitutionID *uint64 `json:"institucion_id"`
	ClearInst     bool    `json:"sin_institucion"`
}

// AssignRequest is the payload of POST /api/usuarios/:id/roles.
type AssignRequest struct {
	Role string `json:"rol" validate:"required,max=30"`
}

// Normalize trims the name and normalizes the email before validation.
func (r *CreateRequest) Normalize() {
	r.Email = handler.NormalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
}

// Normalize trims the present fields before validation.
func (r *UpdateRequest) Normalize() {
	if r.Email != nil {
		email := handler.NormalizeEmail(*r.Email)
		r.Email = &email
	}

	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		r.Name = &name
	}
}

// Permissions is the permission view of one user.
type Permissions struct {
	UserID  uint64            `json:"usuario_id"`
	Roles   []string          `json:"roles"`
	Perms   []auth.Permission `json:"permisos"`
	Modules []auth.Module     `json:"modulos"`
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.db = deps.DB
	s.appender = deps.Appender

	if s.now == nil {
		s.now = time.Now
	}

	g := deps.Guard

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, g.Require(auth.RequirePermission(auth.PermVerUsuarios)), s.List)
		router.Post(handler.RouterRootPath, g.Require(auth.RequirePermission(auth.PermCrearUsuario)), s.Create)
		router.Get("/:id", g.Require(auth.RequirePermission(auth.PermVerUsuarios)), s.Get)
		router.Put("/:id", g.Require(auth.RequirePermission(auth.PermEditarUsuario)), s.Update)
		router.Delete("/:id", g.Require(auth.RequirePermission(auth.PermEliminarUsuario)), s.Deactivate)
		router.Post("/:id/activate", g.Require(auth.RequirePermission(auth.PermEditarUsuario)), s.Activate)

		router.Get("/:id/roles", g.Require(auth.RequirePermission(auth.PermVerUsuarios)), s.Roles)
		router.Post("/:id/roles", g.Require(auth.RequirePermission(auth.PermAsignarRoles)), s.Assign)
		router.Delete("/:id/roles/:code", g.Require(auth.RequirePermission(auth.PermAsignarRoles)), s.Unassign)

		router.Get("/:id/permisos", g.Require(auth.SelfOrAdmin("id")), s.Permissions)
	})

	return nil
}

// List shows accounts with simple pagination and search.
func (s *Service) List(c *fiber.Ctx) error {
	q := new(ListQuery)
	if err := handler.BindQuery(c, q); err != nil {
		return err
	}

	lq := controller.ListQuery{
		Search:          q.Search,
		InstitutionID:   handler.OptionalID(q.Institution),
		IncludeInactive: q.Inactive,
		Page:            max(q.Page, 1),
		Limit:           q.Limit,
	}

	if lq.Limit == 0 {
		lq.Limit = controller.DefaultPageSize
	}

	users, total, err := controller.List(s.db.WithContext(c.UserContext()), lq)
	if err != nil {
		return err
	}

	return c.JSON(ListResponse{
		Items: users,
		Total: total,
		Page:  lq.Page,
		Limit: lq.Limit,
		Pages: int(math.Ceil(float64(total) / float64(lq.Limit))),
	})
}

// Get returns one account.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	u, err := controller.Get(s.db.WithContext(c.UserContext()), id)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(u)
}

// Create adds an account and, when the caller may assign roles, its initial roles.
// The account and each assignment are audited separately.
func (s *Service) Create(c *fiber.Ctx) error {
	req := new(CreateRequest)
	if err := handler.Bind(c, req); err != nil {
		return err
	}

	if len(req.Roles) > 0 {
		claims, _ := auth.Claims(c)
		if !auth.HasPermission(claims.Roles(), auth.PermAsignarRoles) {
			return c.Status(fiber.StatusForbidden).JSON(auth.ForbiddenBody{
				Error: "forbidden",
				Denial: &auth.Denial{
					Mode:     auth.ModePermission,
					Required: []auth.Permission{auth.PermAsignarRoles},
					Roles:    claims.Roles(),
				},
			})
		}
	}

	hash, err := models.HashPassword(req.Password)
	if err != nil {
		return err
	}

	ctx := c.UserContext()

	var (
		created     *models.User
		assignments []*models.UserRoleAssignment
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err = controller.Create(tx, models.User{
			Email:         req.Email,
			Password:      hash,
			Name:          req.Name,
			InstitutionID: req.InstitutionID,
		})
		if err != nil {
			return err
		}

		for _, code := range req.Roles {
			_, a, aerr := rolecontroller.Assign(tx, created.ID, code, handler.Actor(c), s.now().UTC())
			if aerr != nil {
				return aerr
			}

			assignments = append(assignments, a)
		}

		return nil
	})
	if err != nil {
		return mapError(err)
	}

	if err = s.record(c, audit.ActionInsert, Table, created.ID, nil, created); err != nil {
		return err
	}

	for _, a := range assignments {
		if err = s.record(c, audit.ActionInsert, AssignmentTable, a.ID, nil, a); err != nil {
			return err
		}
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update changes the editable fields of an account.
func (s *Service) Update(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	req := new(UpdateRequest)
	if err = handler.Bind(c, req); err != nil {
		return err
	}

	ch := controller.Changes{
		Name:          req.Name,
		Email:         req.Email,
		InstitutionID: req.InstitutionID,
		ClearInst:     req.ClearInst,
	}

	if req.Password != nil {
		hash, herr := models.HashPassword(*req.Password)
		if herr != nil {
			return herr
		}

		ch.PasswordHash = &hash
	}

	before, after, err := controller.Update(s.db.WithContext(c.UserContext()), id, ch)
	if err != nil {
		return mapError(err)
	}

	if err = s.record(c, audit.ActionUpdate, Table, after.ID, before, after); err != nil {
		return err
	}

	return c.JSON(after)
}

// Deactivate disables an account. Callers can not disable themselves.
func (s *Service) Deactivate(c *fiber.Ctx) error {
	return s.setActive(c, false, audit.ActionInactivate)
}

// Activate re-enables an account.
func (s *Service) Activate(c *fiber.Ctx) error {
	return s.setActive(c, true, audit.ActionActivate)
}

func (s *Service) setActive(c *fiber.Ctx, active bool, action audit.Action) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	if actor := handler.Actor(c); !active && actor != nil && *actor == id {
		return fiber.NewError(fiber.StatusConflict, "you can not deactivate your own account")
	}

	before, after, err := controller.SetActive(s.db.WithContext(c.UserContext()), id, active)
	if err != nil {
		return mapError(err)
	}

	if err = s.record(c, action, Table, after.ID, before, after); err != nil {
		return err
	}

	return c.JSON(after)
}

// Roles lists the user's role assignments. ?inactivos=true includes deactivated ones.
func (s *Service) Roles(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	db := s.db.WithContext(c.UserContext())

	if _, err = controller.Get(db, id); err != nil {
		return mapError(err)
	}

	out, err := rolecontroller.Assignments(db, id, c.QueryBool("inactivos"))
	if err != nil {
		return err
	}

	return c.JSON(out)
}

// Assign grants a role. A deactivated assignment of the same role is reactivated.
func (s *Service) Assign(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	req := new(AssignRequest)
	if err = handler.Bind(c, req); err != nil {
		return err
	}

	before, after, err := rolecontroller.Assign(
		s.db.WithContext(c.UserContext()), id, req.Role, handler.Actor(c), s.now().UTC(),
	)
	if err != nil {
		return mapError(err)
	}

	action, status := audit.ActionInsert, fiber.StatusCreated
	if before != nil {
		action, status = audit.ActionActivate, fiber.StatusOK
	}

	if err = s.record(c, action, AssignmentTable, after.ID, before, after); err != nil {
		return err
	}

	return c.Status(status).JSON(after)
}

// Unassign deactivates a role assignment. The user keeps the role until the
// current credential expires or is refreshed.
func (s *Service) Unassign(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	before, after, err := rolecontroller.Unassign(
		s.db.WithContext(c.UserContext()), id, c.Params("code"), handler.Actor(c), s.now().UTC(),
	)
	if err != nil {
		return mapError(err)
	}

	if err = s.record(c, audit.ActionInactivate, AssignmentTable, after.ID, before, after); err != nil {
		return err
	}

	return c.JSON(after)
}

// Permissions computes the user's permissions from the assignments active right now,
// which may differ from what the user's current credential carries.
func (s *Service) Permissions(c *fiber.Ctx) error {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		return err
	}

	db := s.db.WithContext(c.UserContext())

	if _, err = controller.Get(db, id); err != nil {
		return mapError(err)
	}

	codes, err := rolecontroller.ActiveRoleCodes(db, id)
	if err != nil {
		return err
	}

	return c.JSON(Permissions{
		UserID:  id,
		Roles:   codes,
		Perms:   auth.EffectivePermissions(codes),
		Modules: auth.AccessibleModules(codes),
	})
}

func (s *Service) record(c *fiber.Ctx, action audit.Action, table string, id uint64, before, after any) error {
	ip, ua := handler.Client(c)

	_, err := s.appender.RecordAudit(c.UserContext(), audit.AuditEntry{
		Action:    action,
		Table:     table,
		RecordID:  strconv.FormatUint(id, 10),
		Actor:     handler.Actor(c),
		Before:    before,
		After:     after,
		IP:        ip,
		UserAgent: ua,
	})

	return err
}

func mapError(err error) error {
	switch {
	case errors.Is(err, controller.ErrUserNotFound),
		errors.Is(err, rolecontroller.ErrUserNotFound),
		errors.Is(err, rolecontroller.ErrRoleNotFound),
		errors.Is(err, rolecontroller.ErrAssignmentNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, controller.ErrEmailTaken),
		errors.Is(err, controller.ErrUserUnchanged),
		errors.Is(err, rolecontroller.ErrAssignmentExists),
		errors.Is(err, rolecontroller.ErrRoleInactive):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, controller.ErrInstitutionNotFound),
		errors.Is(err, rolecontroller.ErrRoleCodeEmpty):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return err
	}
}
