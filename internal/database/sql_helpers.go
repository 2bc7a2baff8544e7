package database

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"
)

// timeLayout is used for every stored timestamp. Values are kept in UTC with
// fixed-width fractions so lexical order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// toNullableArg converts a pointer to an argument suitable for SQL.
// Returns nil if pointer is nil, otherwise returns the dereferenced value.
func toNullableArg[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// nullableTime formats t, or returns nil for a nil pointer.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || strings.TrimSpace(s.String) == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// marshalJSONColumn encodes v for a TEXT column. Empty slices become NULL
// when nullEmpty is set.
func marshalJSONColumn[T any](v []T, nullEmpty bool) (any, error) {
	if len(v) == 0 {
		if nullEmpty {
			return nil, nil
		}
		return "[]", nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func unmarshalJSONColumn[T any](s sql.NullString) ([]T, error) {
	if !s.Valid || s.String == "" || s.String == "[]" {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal([]byte(s.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}
