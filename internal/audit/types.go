package audit

// Action is the kind of data mutation an AuditEvent records.
type Action string

// Actions accepted by RecordAudit.
const (
	ActionInsert     Action = "INSERT"
	ActionUpdate     Action = "UPDATE"
	ActionDelete     Action = "DELETE"
	ActionActivate   Action = "ACTIVATE"
	ActionInactivate Action = "INACTIVATE"
)

// Actions returns every known action.
func Actions() []Action {
	return []Action{ActionInsert, ActionUpdate, ActionDelete, ActionActivate, ActionInactivate}
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionInsert, ActionUpdate, ActionDelete, ActionActivate, ActionInactivate:
		return true
	}

	return false
}

// Severity grades a BitacoraEvent.
type Severity string

// Severities accepted by RecordEvent.
const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
	SeverityDebug   Severity = "DEBUG"
)

// Severities returns every known severity.
func Severities() []Severity {
	return []Severity{SeverityInfo, SeverityWarning, SeverityError, SeverityDebug}
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityDebug:
		return true
	}

	return false
}

// Operational modules used by bitacora events the platform writes itself.
const (
	ModuleAutenticacion = "AUTENTICACION"
	ModuleSeguridad     = "SEGURIDAD"
	ModuleSistema       = "SISTEMA"
)
