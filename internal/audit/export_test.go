package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/dbtest"
	"github.com/javier19927/proyecto-fullstack-sub002/internal/db/models"
)

func TestExportAudit(t *testing.T) {
	db := dbtest.Open(t)
	r := newTestRecorder(t, db)

	seedAudit(t, db,
		auditRow("INSERT", "roles", "1", uid(1), daysAgo(3)),
		auditRow("UPDATE", "roles", "1", nil, daysAgo(2)),
		auditRow("INSERT", "usuarios", "8", uid(1), daysAgo(1)),
	)

	ctx := context.Background()

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer

		n, err := r.ExportAudit(ctx, Filter{Scope: "roles"}, ExportFormatCSV, &buf)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, csvHeader, records[0])
		assert.Equal(t, "INSERT", records[1][2])
		assert.Equal(t, "1", records[1][5])
		assert.Equal(t, "", records[2][5], "system rows have no actor")
		assert.JSONEq(t, `{"x":1}`, records[2][9])
	})

	t.Run("ndjson", func(t *testing.T) {
		var buf bytes.Buffer

		n, err := r.ExportAudit(ctx, Filter{}, ExportFormatNDJSON, &buf)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		var lines int

		sc := bufio.NewScanner(&buf)
		for sc.Scan() {
			var ev models.AuditEvent
			require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
			lines++
		}

		assert.Equal(t, 3, lines)
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer

		_, err := r.ExportAudit(ctx, Filter{Kind: "INSERT"}, ExportFormatJSON, &buf)
		require.NoError(t, err)

		var rows []models.AuditEvent
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
		require.Len(t, rows, 2)
		assert.Equal(t, "usuarios", rows[1].Table)
	})

	t.Run("empty json is an array", func(t *testing.T) {
		var buf bytes.Buffer

		n, err := r.ExportAudit(ctx, Filter{Scope: "nada"}, ExportFormatJSON, &buf)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := r.ExportAudit(ctx, Filter{}, "xml", &bytes.Buffer{})
		require.ErrorIs(t, err, ErrUnknownExportFormat)
	})
}
