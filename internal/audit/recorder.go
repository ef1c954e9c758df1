package audit

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/models"
)

// AuditEntry describes one data mutation. Before and After are snapshots stored
// verbatim; any JSON-marshalable value or json.RawMessage is accepted.
type AuditEntry struct {
	Action    Action
	Table     string
	RecordID  string
	Actor     *uint64
	Before    any
	After     any
	IP        string
	UserAgent string
}

// LogEntry describes one operational event.
type LogEntry struct {
	EventName   string
	Description string
	Module      string
	Severity    Severity
	Actor       *uint64
	IP          string
	Detail      any
}

// Appender is the write side of both streams.
type Appender interface {
	RecordAudit(ctx context.Context, e AuditEntry) (*models.AuditEvent, error)
	RecordEvent(ctx context.Context, e LogEntry) (*models.BitacoraEvent, error)
}

var _ Appender = (*Recorder)(nil)

// Recorder is the append side of both streams. It is safe for concurrent use;
// appends from concurrent requests are not ordered relative to each other.
type Recorder struct {
	audit    *EventLog[models.AuditEvent]
	bitacora *EventLog[models.BitacoraEvent]
	opts     Options
}

// AuditSchema is the column layout of the auditoria table.
var AuditSchema = Schema{ //nolint:gochecknoglobals
	Stream:       "auditoria",
	ScopeColumn:  "tabla",
	KindColumn:   "accion",
	RecordColumn: "registro_id",
	ActorColumn:  "usuario_id",
	TimeColumn:   "fecha",
	TopColumn:    "usuario_id",
}

// BitacoraSchema is the column layout of the bitacora table.
var BitacoraSchema = Schema{ //nolint:gochecknoglobals
	Stream:      "bitacora",
	ScopeColumn: "modulo",
	KindColumn:  "nivel",
	NameColumn:  "evento",
	ActorColumn: "usuario_id",
	TimeColumn:  "fecha",
	TopColumn:   "evento",
}

// NewRecorder creates the recorder and both logs on db.
func NewRecorder(db *gorm.DB, opts Options) (*Recorder, error) {
	opts = opts.withDefaults()

	a, err := NewEventLog[models.AuditEvent](db, AuditSchema, opts)
	if err != nil {
		return nil, err
	}

	b, err := NewEventLog[models.BitacoraEvent](db, BitacoraSchema, opts)
	if err != nil {
		return nil, err
	}

	return &Recorder{audit: a, bitacora: b, opts: opts}, nil
}

// Audit returns the auditoria log for read projections.
func (r *Recorder) Audit() *EventLog[models.AuditEvent] {
	return r.audit
}

// Bitacora returns the bitacora log for read projections.
func (r *Recorder) Bitacora() *EventLog[models.BitacoraEvent] {
	return r.bitacora
}

// RecordAudit validates e and appends it to auditoria. INSERT must not carry a
// before snapshot and UPDATE must carry both.
func (r *Recorder) RecordAudit(ctx context.Context, e AuditEntry) (*models.AuditEvent, error) {
	row, err := r.auditRow(e)
	if err != nil {
		log.Error().Err(err).
			Str("stream", AuditSchema.Stream).
			Str("action", string(e.Action)).
			Str("table", e.Table).
			Str("record_id", e.RecordID).
			Interface("actor_id", e.Actor).
			Msg("rejected audit entry")

		return nil, err
	}

	if err = r.audit.Append(ctx, row); err != nil {
		log.Error().Err(err).
			Str("stream", AuditSchema.Stream).
			Str("action", row.Action).
			Str("table", row.Table).
			Str("record_id", row.RecordID).
			Interface("actor_id", row.ActorUserID).
			Int("attempts", r.opts.MaxRetries+1).
			Msg("audit append failed")

		return nil, err
	}

	return row, nil
}

func (r *Recorder) auditRow(e AuditEntry) (*models.AuditEvent, error) {
	switch {
	case e.Action == "":
		return nil, fmt.Errorf("%w: action is required", ErrInvalidAuditEntry)
	case !e.Action.Valid():
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidAuditEntry, e.Action)
	case strings.TrimSpace(e.Table) == "":
		return nil, fmt.Errorf("%w: table is required", ErrInvalidAuditEntry)
	case strings.TrimSpace(e.RecordID) == "":
		return nil, fmt.Errorf("%w: record id is required", ErrInvalidAuditEntry)
	}

	before, err := models.NewJSON(e.Before)
	if err != nil {
		return nil, fmt.Errorf("%w: before: %w", ErrInvalidAuditEntry, err)
	}

	after, err := models.NewJSON(e.After)
	if err != nil {
		return nil, fmt.Errorf("%w: after: %w", ErrInvalidAuditEntry, err)
	}

	switch e.Action {
	case ActionInsert:
		if before.Present() {
			return nil, fmt.Errorf("%w: INSERT must not carry a before snapshot", ErrInvalidAuditEntry)
		}
	case ActionUpdate:
		if !before.Present() || !after.Present() {
			return nil, fmt.Errorf("%w: UPDATE needs before and after snapshots", ErrInvalidAuditEntry)
		}
	}

	return &models.AuditEvent{
		Action:      string(e.Action),
		Table:       strings.TrimSpace(e.Table),
		RecordID:    strings.TrimSpace(e.RecordID),
		ActorUserID: copyID(e.Actor),
		OccurredAt:  r.opts.Now().UTC(),
		Before:      before,
		After:       after,
		IP:          e.IP,
		UserAgent:   truncate(e.UserAgent, 512),
	}, nil
}

// RecordEvent validates e and appends it to bitacora.
func (r *Recorder) RecordEvent(ctx context.Context, e LogEntry) (*models.BitacoraEvent, error) {
	row, err := r.eventRow(e)
	if err != nil {
		log.Error().Err(err).
			Str("stream", BitacoraSchema.Stream).
			Str("event", e.EventName).
			Str("module", e.Module).
			Interface("actor_id", e.Actor).
			Msg("rejected log entry")

		return nil, err
	}

	if err = r.bitacora.Append(ctx, row); err != nil {
		log.Error().Err(err).
			Str("stream", BitacoraSchema.Stream).
			Str("event", row.EventName).
			Str("module", row.Module).
			Interface("actor_id", row.ActorUserID).
			Int("attempts", r.opts.MaxRetries+1).
			Msg("bitacora append failed")

		return nil, err
	}

	return row, nil
}

func (r *Recorder) eventRow(e LogEntry) (*models.BitacoraEvent, error) {
	switch {
	case strings.TrimSpace(e.EventName) == "":
		return nil, fmt.Errorf("%w: event name is required", ErrInvalidLogEntry)
	case strings.TrimSpace(e.Description) == "":
		return nil, fmt.Errorf("%w: description is required", ErrInvalidLogEntry)
	case strings.TrimSpace(e.Module) == "":
		return nil, fmt.Errorf("%w: module is required", ErrInvalidLogEntry)
	case !e.Severity.Valid():
		return nil, fmt.Errorf("%w: unknown severity %q", ErrInvalidLogEntry, e.Severity)
	}

	detail, err := models.NewJSON(e.Detail)
	if err != nil {
		return nil, fmt.Errorf("%w: detail: %w", ErrInvalidLogEntry, err)
	}

	return &models.BitacoraEvent{
		EventName:   strings.TrimSpace(e.EventName),
		Description: truncate(strings.TrimSpace(e.Description), 1000),
		Module:      strings.TrimSpace(e.Module),
		Severity:    string(e.Severity),
		ActorUserID: copyID(e.Actor),
		OccurredAt:  r.opts.Now().UTC(),
		IP:          e.IP,
		Detail:      detail,
	}, nil
}

func copyID(id *uint64) *uint64 {
	if id == nil {
		return nil
	}

	v := *id

	return &v
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}
