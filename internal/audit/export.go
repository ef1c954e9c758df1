package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/models"
)

// ExportFormat selects the encoding of an audit export.
type ExportFormat string

// Supported export formats.
const (
	ExportFormatCSV    ExportFormat = "csv"
	ExportFormatNDJSON ExportFormat = "ndjson"
	ExportFormatJSON   ExportFormat = "json"
)

const exportBatchSize = 500

// ErrUnknownExportFormat is returned for formats other than csv, ndjson and json.
var ErrUnknownExportFormat = errors.New("unknown export format")

// ContentType returns the MIME type of the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatCSV:
		return "text/csv; charset=utf-8"
	case ExportFormatNDJSON:
		return "application/x-ndjson"
	default:
		return "application/json"
	}
}

// Valid reports whether f is supported.
func (f ExportFormat) Valid() bool {
	switch f {
	case ExportFormatCSV, ExportFormatNDJSON, ExportFormatJSON:
		return true
	}

	return false
}

var csvHeader = []string{ //nolint:gochecknoglobals
	"id", "fecha", "accion", "tabla", "registro_id", "usuario_id",
	"ip", "user_agent", "datos_anteriores", "datos_nuevos",
}

// ExportAudit writes every auditoria row matching f to w in insertion order and returns
// the number of rows written.
func (r *Recorder) ExportAudit(ctx context.Context, f Filter, format ExportFormat, w io.Writer) (int64, error) {
	if !format.Valid() {
		return 0, ErrUnknownExportFormat
	}

	enc := newExportEncoder(format, w)

	if err := enc.begin(); err != nil {
		return 0, err
	}

	var n int64

	err := r.audit.Scan(ctx, f, exportBatchSize, func(rows []models.AuditEvent) error {
		for i := range rows {
			if err := enc.row(&rows[i]); err != nil {
				return err
			}

			n++
		}

		return nil
	})
	if err != nil {
		return n, err
	}

	return n, enc.end()
}

type exportEncoder struct {
	format ExportFormat
	w      io.Writer
	csv    *csv.Writer
	json   *json.Encoder
	first  bool
}

func newExportEncoder(format ExportFormat, w io.Writer) *exportEncoder {
	e := &exportEncoder{format: format, w: w, first: true}

	switch format {
	case ExportFormatCSV:
		e.csv = csv.NewWriter(w)
	default:
		e.json = json.NewEncoder(w)
	}

	return e
}

func (e *exportEncoder) begin() error {
	switch e.format {
	case ExportFormatCSV:
		return e.csv.Write(csvHeader)
	case ExportFormatJSON:
		_, err := io.WriteString(e.w, "[")
		return err
	}

	return nil
}

func (e *exportEncoder) row(ev *models.AuditEvent) error {
	switch e.format {
	case ExportFormatCSV:
		actor := ""
		if ev.ActorUserID != nil {
			actor = strconv.FormatUint(*ev.ActorUserID, 10)
		}

		return e.csv.Write([]string{
			strconv.FormatUint(ev.ID, 10),
			ev.OccurredAt.UTC().Format(time.RFC3339),
			ev.Action,
			ev.Table,
			ev.RecordID,
			actor,
			ev.IP,
			ev.UserAgent,
			string(ev.Before),
			string(ev.After),
		})
	case ExportFormatJSON:
		if !e.first {
			if _, err := io.WriteString(e.w, ","); err != nil {
				return err
			}
		}

		e.first = false
	}

	return e.json.Encode(ev)
}

func (e *exportEncoder) end() error {
	switch e.format {
	case ExportFormatCSV:
		e.csv.Flush()
		return e.csv.Error()
	case ExportFormatJSON:
		_, err := io.WriteString(e.w, "]")
		return err
	}

	return nil
}
