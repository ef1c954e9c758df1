package config

import (
	"time"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
	Audit     Audit
	Seed      Seed
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool   // disable recover middleware
	Port           int    // listening port for the webserver
	ShutDownTime   int    // seconds to drain connections on shutdown
	URL            string // base url for the webserver
	AllowOrigins   string // comma separated CORS origins for the dashboard
	BodyLimit      int    // max request body in bytes, 0 keeps the fiber default
}

// Auth holds credential signing settings.
type Auth struct {
	TokenSecret string        // HS256 secret, overridable with PLANIFICACION_TOKEN_SECRET
	TokenTTL    time.Duration // credential lifetime
	Issuer      string
	Leeway      time.Duration // clock skew tolerated on exp/iat

	LoginPerMinute int // login attempts per client address and minute, 0 disables throttling
	LoginBurst     int
}

// Audit holds the audit trail append and read settings.
type Audit struct {
	MaxRetries      int           // append attempts after the first failure
	RetryDelay      time.Duration // base backoff between attempts
	DefaultPageSize int
	MaxPageSize     int
	StatsWindowDays int // headline rollups window
	DailyWindowDays int // daily activity series window
	TopN            int
}

// Seed describes the bootstrap administrator created on an empty database.
type Seed struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}
