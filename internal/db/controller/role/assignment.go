package role

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/models"
)

var (
	// ErrUserNotFound is returned when the target user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrRoleInactive is returned when assigning a deactivated role.
	ErrRoleInactive = errors.New("role is inactive")
	// ErrAssignmentExists is returned when the user already holds the role.
	ErrAssignmentExists = errors.New("role already assigned")
	// ErrAssignmentNotFound is returned when the user holds no active assignment of the role.
	ErrAssignmentNotFound = errors.New("role assignment not found")
)

// Assignments lists a user's assignments with their role, newest first.
func Assignments(db *gorm.DB, userID uint64, includeInactive bool) ([]models.UserRoleAssignment, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	q := db.Preload("Role").Where("user_id = ?", userID).Order("assigned_at DESC").Order("id DESC")
	if !includeInactive {
		q = q.Where("active = ?", true)
	}

	out := []models.UserRoleAssignment{}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}

	return out, nil
}

// ActiveRoleCodes returns the codes of every active role the user holds through an
// active assignment. This is what a freshly issued credential carries.
func ActiveRoleCodes(db *gorm.DB, userID uint64) ([]string, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	codes := []string{}

	err := db.Model(&models.UserRoleAssignment{}).
		Joins("JOIN roles ON roles.id = usuario_roles.role_id").
		Where("usuario_roles.user_id = ? AND usuario_roles.active = ? AND roles.active = ?", userID, true, true).
		Order("roles.level ASC").
		Order("roles.code ASC").
		Pluck("roles.code", &codes).Error
	if err != nil {
		return nil, err
	}

	return codes, nil
}

// Assign grants code to userID. A previously deactivated assignment is reactivated
// instead of duplicated, in which case before holds its prior state; before is nil
// for a new row.
func Assign(
	db *gorm.DB,
	userID uint64,
	code string,
	by *uint64,
	now time.Time,
) (before, after *models.UserRoleAssignment, err error) {
	if db == nil {
		return nil, nil, ErrDBNil
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		r, err := Get(tx, code)
		if err != nil {
			return err
		}

		if !r.Active {
			return ErrRoleInactive
		}

		if err = userExists(tx, userID); err != nil {
			return err
		}

		var existing models.UserRoleAssignment

		res := tx.Where("user_id = ? AND role_id = ?", userID, r.ID).First(&existing)

		switch {
		case errors.Is(res.Error, gorm.ErrRecordNotFound):
			created := models.UserRoleAssignment{
				UserID:     userID,
				RoleID:     r.ID,
				Active:     true,
				AssignedAt: now,
				AssignedBy: by,
			}

			if err = tx.Omit("Role", "User").Create(&created).Error; err != nil {
				return err
			}

			created.Role = *r
			after = &created

			return nil
		case res.Error != nil:
			return res.Error
		case existing.Active:
			return ErrAssignmentExists
		}

		prev := existing
		existing.Active = true
		existing.AssignedAt = now
		existing.AssignedBy = by
		existing.DeactivatedAt = nil
		existing.DeactivatedBy = nil

		err = tx.Model(&existing).Select("Active", "AssignedAt", "AssignedBy", "DeactivatedAt", "DeactivatedBy").
			Updates(&existing).Error
		if err != nil {
			return err
		}

		prev.Role = *r
		existing.Role = *r
		before, after = &prev, &existing

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return before, after, nil
}

// Unassign deactivates the user's active assignment of code.
func Unassign(
	db *gorm.DB,
	userID uint64,
	code string,
	by *uint64,
	now time.Time,
) (before, after *models.UserRoleAssignment, err error) {
	if db == nil {
		return nil, nil, ErrDBNil
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		r, err := Get(tx, code)
		if err != nil {
			return err
		}

		var existing models.UserRoleAssignment

		res := tx.Where("user_id = ? AND role_id = ? AND active = ?", userID, r.ID, true).First(&existing)
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}

		if res.Error != nil {
			return res.Error
		}

		prev := existing
		existing.Active = false
		existing.DeactivatedAt = &now
		existing.DeactivatedBy = by

		err = tx.Model(&existing).Select("Active", "DeactivatedAt", "DeactivatedBy").Updates(&existing).Error
		if err != nil {
			return err
		}

		prev.Role = *r
		existing.Role = *r
		before, after = &prev, &existing

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return before, after, nil
}

func userExists(db *gorm.DB, userID uint64) error {
	var count int64

	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		return ErrUserNotFound
	}

	return nil
}
