// Package models contains the gorm models of the planning platform.
package models

import (
	"fmt"
	"sync"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// User is a platform account. Roles are held through UserRoleAssignment rows.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Active indicates whether the user account can log in.
	Active bool `gorm:"not null;default:true" json:"activo"`
	// Email is the login name.
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	// Password is the Argon2id hash.
	Password string `gorm:"size:255;not null" json:"-"`
	// Name is the display name.
	Name string `gorm:"size:200" json:"nombre"`
	// InstitutionID scopes the user, nil for platform wide accounts.
	InstitutionID *uint64      `gorm:"index" json:"institucion_id,omitempty"`
	Institution   *Institution `gorm:"foreignKey:InstitutionID;constraint:OnDelete:SET NULL" json:"-"`
	// Assignments lists every role assignment, active or not.
	Assignments []UserRoleAssignment `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "usuarios"
}

// HashPassword hashes a plaintext password using Argon2id with the default parameters.
func HashPassword(password string) (string, error) {
	hashed, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return hashed, nil
}

// unknownAccountHash is compared against when no account matches a login, so that
// unknown and known emails cost one argon2id comparison each.
var unknownAccountHash = sync.OnceValue(func() string { //nolint:gochecknoglobals
	hashed, err := argon2id.CreateHash("unknown-account", argon2id.DefaultParams)
	if err != nil {
		log.Error().Err(err).Msg("failed to create unknown account hash")
	}

	return hashed
})

// VerifyUnknownAccount runs a full password comparison that never matches.
func VerifyUnknownAccount(password string) {
	if hashed := unknownAccountHash(); hashed != "" {
		_, _ = argon2id.ComparePasswordAndHash(password, hashed)
	}
}

// VerifyPassword compares password against the stored hash in constant time.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", u.ID).Msg("failed to verify password")
		return false
	}

	return match
}
