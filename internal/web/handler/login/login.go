// Package login provides the credential endpoints: login, refresh and the caller's
// own identity.
package login

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/auth"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/identity"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler"
)

const (
	// Path is the route group of the credential endpoints.
	Path = handler.APIPath + "/auth"
)

// Service is the login handler service.
type Service struct {
	identity *identity.Service
}

// Handler is the login handler.
var Handler = Service{}

// Request is the login payload.
type Request struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

// Normalize trims and lowercases the email.
func (r *Request) Normalize() {
	r.Email = handler.NormalizeEmail(r.Email)
}

// Me describes the caller as seen by the guard.
type Me struct {
	User      auth.Identity     `json:"usuario"`
	Perms     []auth.Permission `json:"permisos"`
	Modules   []auth.Module     `json:"modulos"`
	ExpiresAt time.Time         `json:"expira"`
}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.identity = deps.Identity

	login := []fiber.Handler{s.Login}
	if a := deps.Cfg.Auth; a.LoginPerMinute > 0 {
		login = append([]fiber.Handler{NewThrottle(a.LoginPerMinute, a.LoginBurst).Handler()}, login...)
	}

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Post("/login", login...)
		router.Post("/refresh", deps.Guard.Authenticate(), s.Refresh)
		router.Get("/me", deps.Guard.Authenticate(), s.Me)
	})

	return nil
}

// Login verifies email and password and returns a fresh credential.
func (s *Service) Login(c *fiber.Ctx) error {
	req := new(Request)
	if err := handler.Bind(c, req); err != nil {
		return err
	}

	ip, _ := handler.Client(c)

	issued, err := s.identity.Login(c.UserContext(), req.Email, req.Password, ip)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidLogin) || errors.Is(err, auth.ErrUserInactive) {
			return unauthorized(c)
		}

		return err
	}

	return c.JSON(issued)
}

// Refresh reissues the caller's credential with the roles held right now.
func (s *Service) Refresh(c *fiber.Ctx) error {
	claims, ok := auth.Claims(c)
	if !ok {
		return ErrNoClaims
	}

	ip, _ := handler.Client(c)

	issued, err := s.identity.Refresh(c.UserContext(), claims, ip)
	if err != nil {
		if errors.Is(err, auth.ErrUserInactive) || errors.Is(err, identity.ErrUserNotFound) {
			return unauthorized(c)
		}

		return err
	}

	return c.JSON(issued)
}

// Me returns the caller's identity with the permissions its credential grants.
func (s *Service) Me(c *fiber.Ctx) error {
	claims, ok := auth.Claims(c)
	if !ok {
		return ErrNoClaims
	}

	roles := claims.Roles()

	return c.JSON(Me{
		User:      claims.Identity(),
		Perms:     auth.EffectivePermissions(roles),
		Modules:   auth.AccessibleModules(roles),
		ExpiresAt: claims.ExpiresAt,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(auth.UnauthorizedBody{
		Error:   "unauthorized",
		Code:    auth.CodeCredentialInvalid,
		Message: messageInvalidLogin,
	})
}
