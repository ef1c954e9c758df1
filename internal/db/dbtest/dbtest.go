// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/models"
)

// Open returns a fresh in-memory SQLite database with every model migrated.
// The pool is pinned to one connection so all queries see the same memory store.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard, TranslateError: true})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...), "failed to migrate test database")

	return db
}

// Roles are the fixed roles in display order.
var Roles = []models.Role{ //nolint:gochecknoglobals
	{Code: "ADMIN", Name: "Administrador", Level: 1},
	{Code: "PLANIF", Name: "Planificador", Level: 2},
	{Code: "VALID", Name: "Validador", Level: 3},
	{Code: "REVISOR", Name: "Revisor", Level: 4},
	{Code: "AUDITOR", Name: "Auditor", Level: 5},
}

// SeedRoles inserts the fixed roles as active.
func SeedRoles(t *testing.T, db *gorm.DB) {
	t.Helper()

	for _, r := range Roles {
		r.Active = true
		require.NoError(t, db.Create(&r).Error, "failed to seed role %s", r.Code)
	}
}

// CreateUser inserts an active user holding the given role codes.
func CreateUser(t *testing.T, db *gorm.DB, email, password string, roles ...string) models.User {
	t.Helper()

	hash, err := models.HashPassword(password)
	require.NoError(t, err)

	u := models.User{Email: email, Password: hash, Name: email, Active: true}
	require.NoError(t, db.Create(&u).Error)

	for _, code := range roles {
		var r models.Role
		require.NoError(t, db.Where("code = ?", code).First(&r).Error, "role %s not seeded", code)

		a := models.UserRoleAssignment{UserID: u.ID, RoleID: r.ID, Active: true, AssignedAt: time.Now().UTC()}
		require.NoError(t, db.Omit("Role", "User").Create(&a).Error)
	}

	return u
}
