package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSON stores an arbitrary JSON document verbatim. An empty value is stored as NULL,
// which is how an absent audit snapshot is told apart from an empty object.
type JSON []byte

// NewJSON marshals v. A nil v yields an absent document.
func NewJSON(v any) (JSON, error) {
	if v == nil {
		return nil, nil
	}

	if raw, ok := v.(json.RawMessage); ok {
		return CloneJSON(raw), nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}

	if bytes.Equal(b, []byte("null")) {
		return nil, nil
	}

	return JSON(b), nil
}

// CloneJSON copies raw, mapping JSON null and empty input to an absent document.
func CloneJSON(raw []byte) JSON {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	out := make(JSON, len(trimmed))
	copy(out, trimmed)

	return out
}

// Present reports whether a document is stored.
func (j JSON) Present() bool {
	return len(j) > 0
}

// Value implements driver.Valuer.
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}

	return string(j), nil
}

// Scan implements sql.Scanner.
func (j *JSON) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = CloneJSON(v)
	case string:
		*j = CloneJSON([]byte(v))
	default:
		return fmt.Errorf("json scan: unsupported type %T", value)
	}

	return nil
}

// MarshalJSON embeds the document as is.
func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}

	return j, nil
}

// UnmarshalJSON keeps the raw document.
func (j *JSON) UnmarshalJSON(data []byte) error {
	*j = CloneJSON(data)

	return nil
}

// GormDBDataType picks the native JSON column type per dialect.
func (JSON) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	default:
		return "TEXT"
	}
}
