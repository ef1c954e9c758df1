package handler

const (
	// APIPath is the prefix of every JSON route.
	APIPath = "/api"

	// RouterRootPath is the root path inside a route group.
	RouterRootPath = "/"

	// ErrNilACDFatalLogMsg is used if app or one of the dependencies is nil.
	ErrNilACDFatalLogMsg = "app or handler dependencies are nil"

	// ErrCodeAuditFailed marks responses whose effect may be committed but could not be audited.
	ErrCodeAuditFailed = "audit_failed"
)
