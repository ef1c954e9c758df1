package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/audit"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/auth"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/config"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/identity"
)

// ErrNilDeps is returned by Init when a required dependency is missing.
var ErrNilDeps = errors.New(ErrNilACDFatalLogMsg)

// Deps are the shared services handed to every handler.
type Deps struct {
	Cfg      *config.Config
	DB       *gorm.DB
	Guard    *auth.Guard
	Identity *identity.Service
	// Recorder serves the read projections of both streams.
	Recorder *audit.Recorder
	// Appender receives every audit and bitacora write. It is usually Recorder.
	Appender audit.Appender
}

// Valid reports whether every dependency is set.
func (d *Deps) Valid() bool {
	return d != nil && d.Cfg != nil && d.DB != nil && d.Guard != nil &&
		d.Identity != nil && d.Recorder != nil && d.Appender != nil
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps) error
}
