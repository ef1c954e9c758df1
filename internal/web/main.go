package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/audit"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/auth"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/config"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/identity"
	accesslog "github.com/javier19927/proyecto-fullstack-sub002/internal/logger/adapter/fiber"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler/admin/role"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler/admin/user"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler/auditoria"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler/bitacora"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler/login"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web/handler/permission"
)

const (
	// CheckAlivePath answers 200 while the service takes traffic and 503 while draining.
	CheckAlivePath = "/checkalive"

	// MetricsPath exposes the prometheus registry.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	deps         *handler.Deps
}

// handlers are initialized in this order.
func handlers() []handler.Service {
	return []handler.Service{
		&login.Handler,
		&permission.Handler,
		&role.Handler,
		&user.Handler,
		&auditoria.Handler,
		&bitacora.Handler,
	}
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan error, 1)

	s.alive.Store(true)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			doneFiber <- err
			return
		}

		doneFiber <- nil
	}()

	return <-doneFiber // wait for fiber to stop
}

// WaitShutdown blocks until SIGINT or SIGTERM and shuts the server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// Deps returns the services shared by the handlers.
func (s *Service) Deps() *handler.Deps {
	return s.deps
}

// NewDeps builds the credential, identity and audit services from cfg.
func NewDeps(cfg *config.Config, db *gorm.DB) (*handler.Deps, error) {
	tokens, err := auth.NewTokens(auth.TokenConfig{
		Secret: []byte(cfg.Auth.TokenSecret),
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.Issuer,
		Leeway: cfg.Auth.Leeway,
	})
	if err != nil {
		return nil, err
	}

	recorder, err := audit.NewRecorder(db, audit.Options{
		MaxRetries:      cfg.Audit.MaxRetries,
		RetryDelay:      cfg.Audit.RetryDelay,
		DefaultPageSize: cfg.Audit.DefaultPageSize,
		MaxPageSize:     cfg.Audit.MaxPageSize,
		StatsWindowDays: cfg.Audit.StatsWindowDays,
		DailyWindowDays: cfg.Audit.DailyWindowDays,
		TopN:            cfg.Audit.TopN,
	})
	if err != nil {
		return nil, err
	}

	return &handler.Deps{
		Cfg:      cfg,
		DB:       db,
		Guard:    auth.NewGuard(tokens),
		Identity: identity.NewService(db, tokens, recorder),
		Recorder: recorder,
		Appender: recorder,
	}, nil
}

// New creates the web service with every API route registered.
func New(cfg *config.Config, db *gorm.DB) (*Service, error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}

	if db == nil {
		return nil, handler.ErrNilDeps
	}

	deps, err := NewDeps(cfg, db)
	if err != nil {
		return nil, err
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			BodyLimit:      cfg.Webserver.BodyLimit,
			ErrorHandler:   handler.ErrorHandler,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))

	app.Use(accesslog.New(accesslog.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	if cfg.Webserver.AllowOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.Webserver.AllowOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		}))
	}

	service := &Service{
		cfg:  cfg,
		App:  app,
		db:   db,
		deps: deps,
	}

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendStatus(fiber.StatusOK)
	})

	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	// init handlers (they register their own routes with access guards)
	for _, h := range handlers() {
		if err = h.Init(app, deps); err != nil {
			return nil, err
		}
	}

	return service, nil
}
