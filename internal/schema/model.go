package schema

import "database/sql"

// KeyRole marks a column's participation in key constraints.
type KeyRole int

const (
	KeyNone KeyRole = iota
	KeyPrimary
	KeyUnique
	KeyForeign
)

// ColumnDef describes one column as declared on the store. Type is the raw
// declared type string, e.g. varchar(255).
type ColumnDef struct {
	Name     string
	Type     string
	Nullable bool
	Default  sql.NullString
	Key      KeyRole
}

// ForeignKeyRef is one column-level foreign key reference.
type ForeignKeyRef struct {
	Column    string
	RefTable  string
	RefColumn string
}

// TableSchema is the full introspected structure of one table.
// PrimaryKey is in ordinal position order; an empty PrimaryKey means the
// table has no usable identity for incremental diffing. Definition is a
// store-native statement sufficient to recreate the table.
type TableSchema struct {
	Name        string
	Columns     []ColumnDef
	PrimaryKey  []string
	ForeignKeys []ForeignKeyRef
	Definition  string
}

// ColumnMismatch records one per-column property difference between the
// remote and local declaration.
type ColumnMismatch struct {
	Column string
	Remote string
	Local  string
}

// KeyDiff holds the two primary key column lists when they differ.
type KeyDiff struct {
	Remote []string
	Local  []string
}

// ForeignKeyDiff lists references present on only one side.
type ForeignKeyDiff struct {
	RemoteOnly []ForeignKeyRef
	LocalOnly  []ForeignKeyRef
}

// SchemaDiff is the structured comparison of two schemas for the same table.
// MissingTable set means the table needs full creation and all categories
// are empty.
type SchemaDiff struct {
	MissingTable      bool
	MissingColumns    []ColumnDef
	ExtraColumns      []ColumnDef
	TypeMismatches    []ColumnMismatch
	NullMismatches    []ColumnMismatch
	DefaultMismatches []ColumnMismatch
	PrimaryKeyDiff    *KeyDiff
	ForeignKeyDiff    *ForeignKeyDiff
}

// Empty reports whether the schemas are structurally identical.
func (d SchemaDiff) Empty() bool {
	return !d.MissingTable &&
		len(d.MissingColumns) == 0 &&
		len(d.ExtraColumns) == 0 &&
		len(d.TypeMismatches) == 0 &&
		len(d.NullMismatches) == 0 &&
		len(d.DefaultMismatches) == 0 &&
		d.PrimaryKeyDiff == nil &&
		d.ForeignKeyDiff == nil
}
