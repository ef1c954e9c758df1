// Package role provides persistence for roles and user role assignments.
// Nothing here ever hard deletes a row: roles and assignments are deactivated.
package role

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/auth"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/models"
)

const (
	codeQueryPattern = "code = ?"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrRoleNotFound is returned when no role has the given code.
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleCodeEmpty is returned when a role code is missing.
	ErrRoleCodeEmpty = errors.New("role code cannot be empty")
	// ErrRoleNameEmpty is returned when a role name is missing.
	ErrRoleNameEmpty = errors.New("role name cannot be empty")
	// ErrRoleAlreadyExists is returned when creating a role whose code is taken.
	ErrRoleAlreadyExists = errors.New("role already exists")
	// ErrRoleNotInMatrix is returned for codes the permission matrix does not know.
	ErrRoleNotInMatrix = errors.New("role code has no permission matrix entry")
	// ErrRoleUnchanged is returned when activation state already matches the request.
	ErrRoleUnchanged = errors.New("role already in requested state")
)

// Get retrieves a role by its code.
func Get(db *gorm.DB, code string) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if code == "" {
		return nil, ErrRoleCodeEmpty
	}

	var r models.Role

	result := db.Where(codeQueryPattern, code).First(&r)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}

		return nil, result.Error
	}

	return &r, nil
}

// GetAll lists roles ordered by level, optionally including inactive ones.
func GetAll(db *gorm.DB, includeInactive bool) ([]models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	q := db.Order("level ASC").Order("code ASC")
	if !includeInactive {
		q = q.Where("active = ?", true)
	}

	roles := []models.Role{}
	if err := q.Find(&roles).Error; err != nil {
		return nil, err
	}

	return roles, nil
}

// Create persists a new active role. Only codes with a matrix entry are accepted.
func Create(db *gorm.DB, r models.Role) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if r.Code == "" {
		return nil, ErrRoleCodeEmpty
	}

	if strings.TrimSpace(r.Name) == "" {
		return nil, ErrRoleNameEmpty
	}

	if !auth.IsKnownRole(auth.RoleCode(r.Code)) {
		return nil, ErrRoleNotInMatrix
	}

	var existing models.Role

	result := db.Where(codeQueryPattern, r.Code).First(&existing)
	if result.Error == nil {
		return nil, ErrRoleAlreadyExists
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	created := models.Role{
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Level:       r.Level,
		Active:      true,
	}

	if err := db.Create(&created).Error; err != nil {
		return nil, err
	}

	return &created, nil
}

// Update changes the descriptive fields of a role and returns the row before and after.
func Update(db *gorm.DB, code, name, description string, level int) (before, after *models.Role, err error) {
	if db == nil {
		return nil, nil, ErrDBNil
	}

	if strings.TrimSpace(name) == "" {
		return nil, nil, ErrRoleNameEmpty
	}

	before, err = Get(db, code)
	if err != nil {
		return nil, nil, err
	}

	next := *before
	next.Name = name
	next.Description = description
	next.Level = level

	if err = db.Save(&next).Error; err != nil {
		return nil, nil, err
	}

	return before, &next, nil
}

// SetActive soft deletes (active=false) or reactivates a role.
func SetActive(db *gorm.DB, code string, active bool) (before, after *models.Role, err error) {
	if db == nil {
		return nil, nil, ErrDBNil
	}

	before, err = Get(db, code)
	if err != nil {
		return nil, nil, err
	}

	if before.Active == active {
		return nil, nil, ErrRoleUnchanged
	}

	next := *before
	next.Active = active

	if err = db.Model(&next).Update("active", active).Error; err != nil {
		return nil, nil, err
	}

	return before, &next, nil
}
