// Package audit records and reads the two append-only streams of the platform:
// auditoria, one row per data mutation with before and after snapshots, and
// bitacora, operational events graded by severity.
//
// Both streams are instances of EventLog, which only ever inserts. Handlers call
// the Recorder after the access guard allowed the request and after their own
// effect, and must fail the request when the append fails.
package audit
