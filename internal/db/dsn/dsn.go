// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/config"
)

// DefaultSQLitePath is used when db.path is empty on the sqlite engine.
const DefaultSQLitePath = "planificacion.db"

// ErrConfigNil is returned when no configuration is given.
var ErrConfigNil = config.ErrConfigNil

// Create builds the Data Source Name for the configured engine.
func Create(cfg *config.Config) (string, error) {
	if cfg == nil {
		return "", ErrConfigNil
	}

	db := cfg.DB

	switch db.GormEngine {
	case config.EngineMySQL, "":
		out := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
			db.User,
			db.Password,
			db.Host,
			db.Port,
			db.Name,
		)
		if db.Extras != "" {
			out += "?" + db.Extras
		}

		return out, nil
	case config.EnginePostgres:
		parts := []string{
			"host=" + db.Host,
			fmt.Sprintf("port=%d", db.Port),
			"user=" + db.User,
			"password=" + db.Password,
			"dbname=" + db.Name,
		}
		if db.Extras != "" {
			parts = append(parts, db.Extras)
		}

		return strings.Join(parts, " "), nil
	case config.EngineSQLite:
		path := db.Path
		if path == "" {
			path = DefaultSQLitePath
		}

		if db.Extras != "" {
			path += "?" + db.Extras
		}

		return path, nil
	default:
		return "", fmt.Errorf("%w: %q", config.ErrUnknownGormEngine, db.GormEngine)
	}
}

// Dialector returns the gorm driver for the configured engine.
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	out, err := Create(cfg)
	if err != nil {
		return nil, err
	}

	switch cfg.DB.GormEngine {
	case config.EnginePostgres:
		return postgres.Open(out), nil
	case config.EngineSQLite:
		return sqlite.Open(out), nil
	default:
		return mysql.Open(out), nil
	}
}
