package dialect

import (
	"fmt"
	"strings"
)

// GeneratePlaceholders returns a comma-separated list of count placeholders
// produced by placeholderFunc, offset by start (for multi-row inserts).
func GeneratePlaceholders(count, start int, placeholderFunc func(int) string) string {
	placeholders := make([]string, count)
	for i := 0; i < count; i++ {
		placeholders[i] = placeholderFunc(start + i)
	}
	return strings.Join(placeholders, ", ")
}

// GenerateBatchInsert builds a single multi-row INSERT for the given column
// list and row count. Placeholder numbering continues across rows for
// dialects with positional placeholders.
func GenerateBatchInsert(d Dialect, table string, cols []string, rows int) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.QuoteIdent(c)
	}

	tuples := make([]string, rows)
	for r := 0; r < rows; r++ {
		tuples[r] = "(" + GeneratePlaceholders(len(cols), r*len(cols), d.Placeholder) + ")"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		d.QuoteIdent(table), strings.Join(quoted, ", "), strings.Join(tuples, ", "))
}

// GenerateUpdate builds an UPDATE setting setCols, keyed by keyCols.
// Placeholder order is setCols then keyCols.
func GenerateUpdate(d Dialect, table string, setCols, keyCols []string) string {
	sets := make([]string, len(setCols))
	for i, c := range setCols {
		sets[i] = fmt.Sprintf("%s = %s", d.QuoteIdent(c), d.Placeholder(i))
	}
	wheres := make([]string, len(keyCols))
	for i, c := range keyCols {
		wheres[i] = fmt.Sprintf("%s = %s", d.QuoteIdent(c), d.Placeholder(len(setCols)+i))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		d.QuoteIdent(table), strings.Join(sets, ", "), strings.Join(wheres, " AND "))
}

// GenerateDelete builds a DELETE keyed by keyCols.
func GenerateDelete(d Dialect, table string, keyCols []string) string {
	wheres := make([]string, len(keyCols))
	for i, c := range keyCols {
		wheres[i] = fmt.Sprintf("%s = %s", d.QuoteIdent(c), d.Placeholder(i))
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s", d.QuoteIdent(table), strings.Join(wheres, " AND "))
}

// ColumnSpec is the minimal column description BuildCreateStatement needs.
// It mirrors schema.ColumnDef without importing that package (schema imports
// dialect, not the other way around).
type ColumnSpec struct {
	Name     string
	Type     string
	Nullable bool
	Default  string
	HasDef   bool
}

// ForeignKeySpec mirrors schema.ForeignKeyRef.
type ForeignKeySpec struct {
	Column    string
	RefTable  string
	RefColumn string
}

// BuildCreateStatement synthesizes a CREATE TABLE statement from introspected
// structure, for stores without a native SHOW CREATE TABLE equivalent.
func BuildCreateStatement(d Dialect, table string, cols []ColumnSpec, primaryKey []string, fks []ForeignKeySpec) string {
	var parts []string
	for _, c := range cols {
		def := fmt.Sprintf("%s %s", d.QuoteIdent(c.Name), c.Type)
		if !c.Nullable {
			def += " NOT NULL"
		}
		if c.HasDef {
			def += " DEFAULT " + c.Default
		}
		parts = append(parts, def)
	}
	if len(primaryKey) > 0 {
		quoted := make([]string, len(primaryKey))
		for i, c := range primaryKey {
			quoted[i] = d.QuoteIdent(c)
		}
		parts = append(parts, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}
	for _, fk := range fks {
		parts = append(parts, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			d.QuoteIdent(fk.Column), d.QuoteIdent(fk.RefTable), d.QuoteIdent(fk.RefColumn)))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", d.QuoteIdent(table), strings.Join(parts, ",\n  "))
}

// DefaultNormalizeType is a default implementation for type normalization (lowercase).
func DefaultNormalizeType(sqlType string) string {
	return strings.ToLower(sqlType)
}

// DefaultGetSchemaName is a default implementation for Getting Schema Name (identity).
func DefaultGetSchemaName(input string) string {
	return input
}
