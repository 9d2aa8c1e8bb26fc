package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Kind is the storage type of a column, used to pick a scan target and to
// coerce incoming JSON values before they are bound.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindString
)

// Column maps a JSON field name to a database column.  Hidden columns are
// writable but never selected (password hashes).  Nullable columns accept
// an explicit JSON null.  Unsigned int columns reject negative values.
type Column struct {
	Field    string
	Name     string
	Kind     Kind
	Hidden   bool
	Nullable bool
	Unsigned bool
}

// Table describes one resource table: its key, the whitelist of writable
// columns and the fields an insert must carry.  Column names are only ever
// taken from a Table, never from caller input.
type Table struct {
	Name     string
	Key      Column
	Columns  []Column
	Required []string
}

// Row is one projected record keyed by JSON field name.
type Row map[string]any

func (t Table) column(field string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Field == field {
			return c, true
		}
	}
	return Column{}, false
}

// projection returns the selected columns, key first.
func (t Table) projection() []Column {
	cols := []Column{t.Key}
	for _, c := range t.Columns {
		if !c.Hidden {
			cols = append(cols, c)
		}
	}
	return cols
}

func (t Table) selectList() string {
	cols := t.projection()
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

// Fields returns the JSON names of the projected columns.
func (t Table) Fields() []string {
	cols := t.projection()
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.Field)
	}
	return out
}

// writeSet validates fields against the whitelist and returns the columns
// and bound values in table order.
func (t Table) writeSet(fields map[string]any) ([]string, []any, error) {
	for k := range fields {
		if _, ok := t.column(k); !ok {
			return nil, nil, fmt.Errorf("%w: unknown field %q", ErrValidation, k)
		}
	}
	var (
		names []string
		args  []any
	)
	for _, c := range t.Columns {
		v, ok := fields[c.Field]
		if !ok {
			continue
		}
		bound, err := c.bind(v)
		if err != nil {
			return nil, nil, err
		}
		names = append(names, c.Name)
		args = append(args, bound)
	}
	return names, args, nil
}

// bind coerces a decoded JSON value into the driver value for the column.
func (c Column) bind(v any) (any, error) {
	if v == nil {
		if c.Nullable {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s must not be null", ErrValidation, c.Field)
	}
	switch c.Kind {
	case KindInt:
		i, ok := asInt(v)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be an integer", ErrValidation, c.Field)
		}
		if c.Unsigned && i < 0 {
			return nil, fmt.Errorf("%w: %s must not be negative", ErrValidation, c.Field)
		}
		return i, nil
	case KindFloat:
		switch n := v.(type) {
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("%w: %s must be a number", ErrValidation, c.Field)
			}
			return f, nil
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
		return nil, fmt.Errorf("%w: %s must be a number", ErrValidation, c.Field)
	default:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a string", ErrValidation, c.Field)
		}
		return s, nil
	}
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

// scanTarget returns a nullable holder for the column kind.
func (c Column) scanTarget() any {
	switch c.Kind {
	case KindInt:
		return new(sql.NullInt64)
	case KindFloat:
		return new(sql.NullFloat64)
	default:
		return new(sql.NullString)
	}
}

func valueOf(holder any) any {
	switch h := holder.(type) {
	case *sql.NullInt64:
		if h.Valid {
			return h.Int64
		}
	case *sql.NullFloat64:
		if h.Valid {
			return h.Float64
		}
	case *sql.NullString:
		if h.Valid {
			return h.String
		}
	}
	return nil
}
