package models

import "time"

// Role is a persisted role. Privileges are not stored here: they come from the
// role permission matrix keyed by Code. Level orders roles for display only.
type Role struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Code        string    `gorm:"uniqueIndex;size:30;not null" json:"codigo"`
	Name        string    `gorm:"size:100;not null" json:"nombre"`
	Description string    `gorm:"size:255" json:"descripcion"`
	Level       int       `gorm:"not null;default:99" json:"nivel"`
	Active      bool      `gorm:"not null;default:true;index" json:"activo"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}
