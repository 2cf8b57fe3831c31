package engine

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"db-sync/internal/dialect"
)

// Kind tags the scalar variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindTime
)

// Value is a tagged scalar as read from a row. Equality is type-aware:
// NULL and the empty string are distinct, string and bytes compare as text.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Bytes []byte
	Time  time.Time
}

// FromDriver converts a database/sql driver value into a Value.
func FromDriver(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{Kind: KindNull}
	case bool:
		return Value{Kind: KindBool, Bool: x}
	case int64:
		return Value{Kind: KindInt, Int: x}
	case int:
		return Value{Kind: KindInt, Int: int64(x)}
	case int32:
		return Value{Kind: KindInt, Int: int64(x)}
	case uint64:
		return Value{Kind: KindInt, Int: int64(x)}
	case float64:
		return Value{Kind: KindFloat, Float: x}
	case float32:
		return Value{Kind: KindFloat, Float: float64(x)}
	case string:
		return Value{Kind: KindString, Str: x}
	case []byte:
		// Copied: the driver may reuse the buffer between scans.
		b := make([]byte, len(x))
		copy(b, x)
		return Value{Kind: KindBytes, Bytes: b}
	case time.Time:
		return Value{Kind: KindTime, Time: x}
	default:
		return Value{Kind: KindString, Str: fmt.Sprintf("%v", x)}
	}
}

// Equal reports value equality between two scalars.
func (v Value) Equal(o Value) bool {
	if v.Kind == o.Kind {
		switch v.Kind {
		case KindNull:
			return true
		case KindBool:
			return v.Bool == o.Bool
		case KindInt:
			return v.Int == o.Int
		case KindFloat:
			return v.Float == o.Float
		case KindString:
			return v.Str == o.Str
		case KindBytes:
			return string(v.Bytes) == string(o.Bytes)
		case KindTime:
			return v.Time.Equal(o.Time)
		}
	}
	// String and bytes are interchangeable text; drivers differ on which
	// they produce for the same column.
	if isText(v.Kind) && isText(o.Kind) {
		return v.text() == o.text()
	}
	return false
}

// Native returns the value in driver-argument form.
func (v Value) Native() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	case KindBytes:
		return v.Bytes
	case KindTime:
		return v.Time
	}
	return nil
}

// keyToken renders the value deterministically for row-key construction.
func (v Value) keyToken() string {
	switch v.Kind {
	case KindNull:
		return "~"
	case KindBool:
		return "b:" + strconv.FormatBool(v.Bool)
	case KindInt:
		return "i:" + strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return "f:" + strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindString:
		return "s:" + v.Str
	case KindBytes:
		return "s:" + string(v.Bytes)
	case KindTime:
		return "t:" + v.Time.UTC().Format(time.RFC3339Nano)
	}
	return "~"
}

func isText(k Kind) bool { return k == KindString || k == KindBytes }

func (v Value) text() string {
	if v.Kind == KindBytes {
		return string(v.Bytes)
	}
	return v.Str
}

// Row holds one row's values aligned with its RowSet's column list.
type Row []Value

// RowKey identifies a row by its primary key value(s). Composite keys are
// encoded as an ordered tuple, so key equality follows value equality of
// the underlying scalars.
type RowKey string

const keySep = "\x1f"

// RowSet is the full row set of one table keyed by primary key.
type RowSet struct {
	Table      string
	Columns    []string
	KeyColumns []string
	Rows       map[RowKey]Row

	colIdx map[string]int
	keyIdx []int
}

// NewRowSet builds an empty row set for the given columns, keyed by
// keyColumns in the given order.
func NewRowSet(table string, columns, keyColumns []string) (*RowSet, error) {
	s := &RowSet{
		Table:      table,
		Columns:    columns,
		KeyColumns: keyColumns,
		Rows:       make(map[RowKey]Row),
		colIdx:     make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		s.colIdx[c] = i
	}
	for _, k := range keyColumns {
		i, ok := s.colIdx[k]
		if !ok {
			return nil, fmt.Errorf("key column %s not present in row set for %s", k, table)
		}
		s.keyIdx = append(s.keyIdx, i)
	}
	return s, nil
}

// Add indexes one row by its key.
func (s *RowSet) Add(r Row) {
	s.Rows[s.KeyOf(r)] = r
}

// KeyOf computes the RowKey of a row in this set.
func (s *RowSet) KeyOf(r Row) RowKey {
	if len(s.keyIdx) == 1 {
		return RowKey(r[s.keyIdx[0]].keyToken())
	}
	parts := make([]string, len(s.keyIdx))
	for i, idx := range s.keyIdx {
		parts[i] = r[idx].keyToken()
	}
	return RowKey(strings.Join(parts, keySep))
}

// ColumnIndex returns the position of a named column.
func (s *RowSet) ColumnIndex(name string) (int, bool) {
	i, ok := s.colIdx[name]
	return i, ok
}

// Len returns the number of rows.
func (s *RowSet) Len() int { return len(s.Rows) }

// SortedKeys returns the row keys in deterministic order.
func (s *RowSet) SortedKeys() []RowKey {
	keys := make([]RowKey, 0, len(s.Rows))
	for k := range s.Rows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// FetchRows reads the complete row set of a table keyed by keyColumns. The
// count and the rows are read with two separate queries, so a concurrently
// mutated source can produce a torn read; the count is informational only.
func FetchRows(db *sql.DB, d dialect.Dialect, table string, keyColumns []string) (*RowSet, error) {
	var count int
	if err := db.QueryRow(d.CountQuery(table)).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}

	rows, err := db.Query(d.SelectAllQuery(table))
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	set, err := NewRowSet(table, cols, keyColumns)
	if err != nil {
		return nil, err
	}

	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", table, err)
		}
		r := make(Row, len(cols))
		for i, v := range raw {
			r[i] = FromDriver(v)
		}
		set.Add(r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows of %s: %w", table, err)
	}
	return set, nil
}
