// Package main provides the entry point of the institutional planning platform's
// authorization core. It serves a JSON API with the Fiber framework: signed
// credentials, a fixed role permission matrix enforced on every route, and the
// auditoria and bitacora logs recorded through gorm. Run "planificacion start" to
// serve, "planificacion matrix" to print the permission matrix.
package main
