// Package daemon opens the database, prepares the schema and runs the web service.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/config"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/dsn"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/models"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/web"
)

const slowQueryThreshold = 200 * time.Millisecond

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	db         *gorm.DB
	webService *web.Service
}

// Open connects to the configured engine. SQL statements are logged in debug mode.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := dsn.Dialector(cfg)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if cfg.DB.Debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true, // constraint violations surface as gorm sentinel errors
		Logger: gormlogger.New(&log.Logger, gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

// New opens and prepares the database and builds the web service.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}

	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if err = Migrate(db); err != nil {
		return nil, err
	}

	webService, err := web.New(cfg, db)
	if err != nil {
		return nil, err
	}

	res, err := Seed(context.Background(), cfg, db, webService.Deps().Appender)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("engine", db.Dialector.Name()).
		Int("roles_created", res.RolesCreated).
		Bool("admin_created", res.AdminCreated).
		Msg("database ready")

	return &Daemon{cfg: cfg, db: db, webService: webService}, nil
}

// Start serves until SIGINT or SIGTERM and returns after the graceful shutdown.
func (d *Daemon) Start() error {
	done := make(chan struct{})

	go func() {
		d.webService.WaitShutdown()
		close(done)
	}()

	if err := d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port)); err != nil {
		return err
	}

	<-done

	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
