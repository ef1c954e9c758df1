package config

// DB holds the database configuration settings.
type DB struct {
	GormEngine string // mysql, postgres or sqlite
	Extras     string // driver specific query string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	Path       string // sqlite file, ":memory:" for an ephemeral store
	Debug      bool   // log every SQL statement
}
