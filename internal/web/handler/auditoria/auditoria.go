// Package auditoria serves the read side of the data-mutation audit trail.
package auditoria

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/audit"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/auth"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler"
)

const (
	// Path is the route group of the audit trail.
	Path = handler.APIPath + "/auditoria"

	// EventExport is the bitacora event written for every export.
	EventExport = "EXPORTAR_AUDITORIA"
)

// Service is the audit trail handler service.
type Service struct {
	recorder *audit.Recorder
	appender audit.Appender
}

// Handler is the audit trail handler.
var Handler = Service{}

// ListQuery are the filters of the listing and the export.
type ListQuery struct {
	Table  string `query:"tabla" validate:"max=64"`
	Action string `query:"accion" validate:"omitempty,oneof=INSERT UPDATE DELETE ACTIVATE INACTIVATE"`
	Record string `query:"registro" validate:"max=64"`
	User   uint64 `query:"usuario"`
	From   string `query:"desde"`
	To     string `query:"hasta"`
	Page   int    `query:"page" validate:"gte=0"`
	Limit  int    `query:"limit" validate:"gte=0"`
	Format string `query:"formato" validate:"omitempty,oneof=csv ndjson json"`
}

// Filter converts the query into a log filter.
func (q *ListQuery) Filter() (audit.Filter, error) {
	from, to, err := handler.Window(q.From, q.To)
	if err != nil {
		return audit.Filter{}, err
	}

	return audit.Filter{
		Scope:   q.Table,
		Kind:    q.Action,
		Record:  q.Record,
		ActorID: handler.OptionalID(q.User),
		From:    from,
		To:      to,
	}, nil
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
		router.Get(handler.RouterRootPath, g.Require(auth.RequirePermission(auth.PermVerAuditoria)), s.List)
		router.Get("/estadisticas", g.Require(auth.RequirePermission(auth.PermVerEstadisticas)), s.Stats)
		router.Get("/registro/:tabla/:id", g.Require(auth.RequirePermission(auth.PermVerAuditoria)), s.History)
		router.Get("/exportar", g.Require(auth.RequirePermission(auth.PermExportarAuditoria)), s.Export)
	})

	return nil
}

func parse(c *fiber.Ctx) (*ListQuery, audit.Filter, error) {
	q := new(ListQuery)
	if err := handler.BindQuery(c, q); err != nil {
		return nil, audit.Filter{}, err
	}

	f, err := q.Filter()
	if err != nil {
		return nil, audit.Filter{}, err
	}

	return q, f, nil
}

// List returns one page of audit rows, newest first.
func (s *Service) List(c *fiber.Ctx) error {
	q, f, err := parse(c)
	if err != nil {
		return err
	}

	page, err := s.recorder.Audit().List(c.UserContext(), f, handler.Page(q.Page, q.Limit))
	if err != nil {
		return err
	}

	return c.JSON(page)
}

// Stats returns the dashboard rollups.
func (s *Service) Stats(c *fiber.Ctx) error {
	stats, err := s.recorder.Audit().Stats(c.UserContext())
	if err != nil {
		return err
	}

	return c.JSON(stats)
}

// History returns every change of one row, oldest first.
func (s *Service) History(c *fiber.Ctx) error {
	rows, err := s.recorder.Audit().History(c.UserContext(), c.Params("tabla"), c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(rows)
}

// Export downloads every row matching the filters. The export itself is written to
// the bitacora before the file is sent.
func (s *Service) Export(c *fiber.Ctx) error {
	q, f, err := parse(c)
	if err != nil {
		return err
	}

	format := audit.ExportFormat(q.Format)
	if format == "" {
		format = audit.ExportFormatCSV
	}

	var buf bytes.Buffer

	n, err := s.recorder.ExportAudit(c.UserContext(), f, format, &buf)
	if err != nil {
		if errors.Is(err, audit.ErrUnknownExportFormat) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return err
	}

	ip, _ := handler.Client(c)

	_, err = s.appender.RecordEvent(c.UserContext(), audit.LogEntry{
		EventName:   EventExport,
		Description: "exportacion de auditoria",
		Module:      string(auth.ModuleAuditoria),
		Severity:    audit.SeverityInfo,
		Actor:       handler.Actor(c),
		IP:          ip,
		Detail: map[string]any{
			"formato":  format,
			"filas":    n,
			"tabla":    q.Table,
			"accion":   q.Action,
			"registro": q.Record,
			"usuario":  q.User,
			"desde":    q.From,
			"hasta":    q.To,
		},
	})
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, format.ContentType())
	c.Set(fiber.HeaderContentDisposition, "attachment; filename=auditoria."+string(format))
	c.Set("X-Total-Count", strconv.FormatInt(n, 10))

	return c.Send(buf.Bytes())
}
