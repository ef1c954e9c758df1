package models

import "time"

// UserRoleAssignment links a user to a role. Assignments are deactivated, never
// deleted, so the audit trail can always resolve who held what.
type UserRoleAssignment struct {
	ID            uint64     `gorm:"primaryKey" json:"id"`
	UserID        uint64     `gorm:"not null;uniqueIndex:idx_usuario_rol" json:"usuario_id"`
	RoleID        uint       `gorm:"not null;uniqueIndex:idx_usuario_rol" json:"rol_id"`
	Role          Role       `gorm:"foreignKey:RoleID;constraint:OnDelete:RESTRICT" json:"rol"`
	User          User       `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	Active        bool       `gorm:"not null;default:true;index" json:"activo"`
	AssignedAt    time.Time  `gorm:"not null" json:"asignado_en"`
	AssignedBy    *uint64    `json:"asignado_por,omitempty"`
	DeactivatedAt *time.Time `json:"desactivado_en,omitempty"`
	DeactivatedBy *uint64    `json:"desactivado_por,omitempty"`
}

// TableName specifies the database table name for the UserRoleAssignment model.
func (UserRoleAssignment) TableName() string {
	return "usuario_roles"
}
