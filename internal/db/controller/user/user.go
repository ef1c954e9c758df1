// Package user provides persistence for platform accounts. Accounts are deactivated,
// never deleted.
package user

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/models"
)

// Page sizes of List.
const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrUserNotFound is returned when no account has the given id.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when another account already uses the email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInstitutionNotFound is returned when the referenced institution does not exist.
	ErrInstitutionNotFound = errors.New("institution not found")
	// ErrUserUnchanged is returned when activation state already matches the request.
	ErrUserUnchanged = errors.New("user already in requested state")
)

// ListQuery selects a page of accounts.
type ListQuery struct {
	Search          string
	InstitutionID   *uint64
	IncludeInactive bool
	Page            int
	Limit           int
}

// NormalizeEmail is the stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Get retrieves an account by id.
func Get(db *gorm.DB, id uint64) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var u models.User

	if err := db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return &u, nil
}

// List returns one page of accounts, newest first, and the total matching count.
func List(db *gorm.DB, q ListQuery) ([]models.User, int64, error) {
	if db == nil {
		return nil, 0, ErrDBNil
	}

	if q.Page < 1 {
		q.Page = 1
	}

	if q.Limit <= 0 || q.Limit > MaxPageSize {
		q.Limit = DefaultPageSize
	}

	tx := db.Model(&models.User{})

	if q.Search != "" {
		like := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}

	if q.InstitutionID != nil {
		tx = tx.Where("institution_id = ?", *q.InstitutionID)
	}

	if !q.IncludeInactive {
		tx = tx.Where("active = ?", true)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := []models.User{}

	err := tx.Order("id DESC").Limit(q.Limit).Offset((q.Page - 1) * q.Limit).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Create persists a new active account. u.Password must already be hashed.
func Create(db *gorm.DB, u models.User) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	u.Email = NormalizeEmail(u.Email)

	if err := checkEmail(db, u.Email, 0); err != nil {
		return nil, err
	}

	if err := checkInstitution(db, u.InstitutionID); err != nil {
		return nil, err
	}

	created := models.User{
		Email:         u.Email,
		Password:      u.Password,
		Name:          u.Name,
		InstitutionID: u.InstitutionID,
		Active:        true,
	}

	if err := db.Omit("Institution", "Assignments").Create(&created).Error; err != nil {
		return nil, err
	}

	return &created, nil
}

// Changes are the editable account fields. A nil field is left untouched.
type Changes struct {
	Name          *string
	Email         *string
	InstitutionID *uint64
	ClearInst     bool
	PasswordHash  *string
}

// Update applies ch and returns the account before and after.
func Update(db *gorm.DB, id uint64, ch Changes) (before, after *models.User, err error) {
	before, err = Get(db, id)
	if err != nil {
		return nil, nil, err
	}

	next := *before

	if ch.Name != nil {
		next.Name = *ch.Name
	}

	if ch.Email != nil {
		next.Email = NormalizeEmail(*ch.Email)
		if err = checkEmail(db, next.Email, id); err != nil {
			return nil, nil, err
		}
	}

	switch {
	case ch.ClearInst:
		next.InstitutionID = nil
	case ch.InstitutionID != nil:
		if err = checkInstitution(db, ch.InstitutionID); err != nil {
			return nil, nil, err
		}

		inst := *ch.InstitutionID
		next.InstitutionID = &inst
	}

	if ch.PasswordHash != nil {
		next.Password = *ch.PasswordHash
	}

	err = db.Model(&next).Select("Name", "Email", "InstitutionID", "Password").Updates(&next).Error
	if err != nil {
		return nil, nil, err
	}

	return before, &next, nil
}

// SetActive deactivates or reactivates an account.
func SetActive(db *gorm.DB, id uint64, active bool) (before, after *models.User, err error) {
	before, err = Get(db, id)
	if err != nil {
		return nil, nil, err
	}

	if before.Active == active {
		return nil, nil, ErrUserUnchanged
	}

	next := *before
	next.Active = active

	if err = db.Model(&next).Update("active", active).Error; err != nil {
		return nil, nil, err
	}

	return before, &next, nil
}

func checkEmail(db *gorm.DB, email string, self uint64) error {
	var count int64

	if err := db.Model(&models.User{}).Where("email = ? AND id <> ?", email, self).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return ErrEmailTaken
	}

	return nil
}

func checkInstitution(db *gorm.DB, id *uint64) error {
	if id == nil {
		return nil
	}

	var count int64

	if err := db.Model(&models.Institution{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return err
	}

	if count == 0 {
		return ErrInstitutionNotFound
	}

	return nil
}
