// Package bitacora serves the operational event log: listing, statistics and the
// endpoint clients use to record their own events.
package bitacora

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/audit"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/auth"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler"
)

// Path is the route group of the bitacora.
const Path = handler.APIPath + "/bitacora"

// Service is the bitacora handler service.
type Service struct {
	recorder *audit.Recorder
	appender audit.Appender
}

// Handler is the bitacora handler.
var Handler = Service{}

// ListQuery are the listing filters.
type ListQuery struct {
	Module   string `query:"modulo" validate:"max=64"`
	Event    string `query:"evento" validate:"max=100"`
	Severity string `query:"nivel" validate:"omitempty,oneof=INFO WARNING ERROR DEBUG"`
	User     uint64 `query:"usuario"`
	From     string `query:"desde"`
	To       string `query:"hasta"`
	Page     int    `query:"page" validate:"gte=0"`
	Limit    int    `query:"limit" validate:"gte=0"`
}

// CreateRequest is an event reported by a client. The actor is always the caller.
type CreateRequest struct {
	Event       string          `json:"evento" validate:"required,max=100"`
	Description string          `json:"descripcion" validate:"required,max=1000"`
	Module      string          `json:"modulo" validate:"required,max=64"`
	Severity    string          `json:"nivel" validate:"required,oneof=INFO WARNING ERROR DEBUG"`
	Detail      json.RawMessage `json:"detalle"`
}

// Init registers the routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.recorder = deps.Recorder
	s.appender = deps.Appender

	g := deps.Guard

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, g.Require(auth.RequirePermission(auth.PermVerBitacora)), s.List)
		router.Post(handler.RouterRootPath, g.Authenticate(), s.Create)
		router.Get("/estadisticas", g.Require(auth.RequirePermission(auth.PermVerEstadisticas)), s.Stats)
	})

	return nil
}

// List returns one page of events, newest first.
func (s *Service) List(c *fiber.Ctx) error {
	q := new(ListQuery)
	if err := handler.BindQuery(c, q); err != nil {
		return err
	}

	from, to, err := handler.Window(q.From, q.To)
	if err != nil {
		return err
	}

	page, err := s.recorder.Bitacora().List(c.UserContext(), audit.Filter{
		Scope:   q.Module,
		Kind:    q.Severity,
		Name:    q.Event,
		ActorID: handler.OptionalID(q.User),
		From:    from,
		To:      to,
	}, handler.Page(q.Page, q.Limit))
	if err != nil {
		return err
	}

	return c.JSON(page)
}

// Stats returns the dashboard rollups.
func (s *Service) Stats(c *fiber.Ctx) error {
	stats, err := s.recorder.Bitacora().Stats(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(stats)
}

// Create records a client event.
func (s *Service) Create(c *fiber.Ctx) error {
	req := new(CreateRequest)
	if err := handler.Bind(c, req); err != nil {
		return err
	}

	ip, _ := handler.Client(c)

	row, err := s.appender.RecordEvent(c.UserContext(), audit.LogEntry{
		EventName:   req.Event,
		Description: req.Description,
		Module:      req.Module,
		Severity:    audit.Severity(req.Severity),
		Actor:       handler.Actor(c),
		IP:          ip,
		Detail:      req.Detail,
	})
	if err != nil {
		if errors.Is(err, audit.ErrInvalidLogEntry) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return err
	}

	return c.Status(fiber.StatusCreated).JSON(row)
}
