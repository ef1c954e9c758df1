package audit

import "errors"

var (
	// ErrInvalidAuditEntry is returned when a data mutation record lacks its action,
	// table or record id, or carries snapshots that contradict its action.
	ErrInvalidAuditEntry = errors.New("invalid audit entry")

	// ErrInvalidLogEntry is returned when an operational event lacks its name,
	// description or module, or has an unknown severity.
	ErrInvalidLogEntry = errors.New("invalid log entry")

	// ErrAppendFailed is returned when the store rejected every append attempt.
	ErrAppendFailed = errors.New("audit append failed")

	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")

	// ErrUnsupportedFilter is returned when a filter names a column the stream does not have.
	ErrUnsupportedFilter = errors.New("filter not supported by this stream")
)
