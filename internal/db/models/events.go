package models

import "time"

// AuditEvent is one data mutation record of the auditoria stream. Rows are append-only.
type AuditEvent struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Action      string    `gorm:"column:accion;size:20;not null;index" json:"accion"`
	Table       string    `gorm:"column:tabla;size:64;not null;index:idx_auditoria_registro" json:"tabla"`
	RecordID    string    `gorm:"column:registro_id;size:64;not null;index:idx_auditoria_registro" json:"registro_id"`
	ActorUserID *uint64   `gorm:"column:usuario_id;index" json:"usuario_id"`
	OccurredAt  time.Time `gorm:"column:fecha;not null;index" json:"fecha"`
	Before      JSON      `gorm:"column:datos_anteriores" json:"datos_anteriores"`
	After       JSON      `gorm:"column:datos_nuevos" json:"datos_nuevos"`
	IP          string    `gorm:"column:ip;size:45" json:"ip"`
	UserAgent   string    `gorm:"column:user_agent;size:512" json:"user_agent"`
}

// TableName specifies the database table name for the AuditEvent model.
func (AuditEvent) TableName() string {
	return "auditoria"
}

// BitacoraEvent is one operational record of the bitacora stream. Rows are append-only.
type BitacoraEvent struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	EventName   string    `gorm:"column:evento;size:100;not null;index" json:"evento"`
	Description string    `gorm:"column:descripcion;size:1000;not null" json:"descripcion"`
	Module      string    `gorm:"column:modulo;size:64;not null;index" json:"modulo"`
	Severity    string    `gorm:"column:nivel;size:10;not null;index" json:"nivel"`
	ActorUserID *uint64   `gorm:"column:usuario_id;index" json:"usuario_id"`
	OccurredAt  time.Time `gorm:"column:fecha;not null;index" json:"fecha"`
	IP          string    `gorm:"column:ip;size:45" json:"ip"`
	Detail      JSON      `gorm:"column:detalle" json:"detalle"`
}

// TableName specifies the database table name for the BitacoraEvent model.
func (BitacoraEvent) TableName() string {
	return "bitacora"
}

// All returns every model for auto migration, parents first.
func All() []any {
	return []any{
		&Institution{},
		&Role{},
		&User{},
		&UserRoleAssignment{},
		&AuditEvent{},
		&BitacoraEvent{},
	}
}
