package models

import "time"

// Institution scopes users. Only its id travels in credentials.
type Institution struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;size:30;not null" json:"codigo"`
	Name      string    `gorm:"size:255;not null" json:"nombre"`
	Active    bool      `gorm:"not null;default:true" json:"activo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Institution model.
func (Institution) TableName() string {
	return "instituciones"
}
