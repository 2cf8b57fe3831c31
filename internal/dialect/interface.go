package dialect

import "database/sql"

// ErrClass buckets driver errors into the categories the appliers care
// about. Classification is based on driver error types and vendor codes,
// never on message text.
type ErrClass int

const (
	ClassOther ErrClass = iota
	ClassDuplicateKey
	ClassForeignKey
)

// Dialect abstracts database-specific operations.
type Dialect interface {
	// Metadata Queries (Schema Introspection)
	TablesQuery() string      // base tables of a schema; bind args: schema
	ColumnsQuery() string     // columns of one table in declaration order; bind args: schema, table
	PrimaryKeyQuery() string  // PK columns in ordinal position order; bind args: schema, table
	ForeignKeysQuery() string // FK triples excluding the PK constraint; bind args: schema, table

	// DefinitionQuery returns the store-native query yielding a verbatim
	// re-creatable definition statement for the table, or "" when the store
	// has no such facility. Callers then synthesize the definition from the
	// introspected schema via BuildCreateStatement.
	DefinitionQuery(table string) string

	// Session Hooks (Drop-Recreate)
	DisableFKChecks(tx *sql.Tx) error
	EnableFKChecks(tx *sql.Tx) error

	// Query Generation
	InsertQuery(table string, cols []string) string
	BatchInsertQuery(table string, cols []string, rows int) string
	UpdateQuery(table string, setCols, keyCols []string) string
	DeleteQuery(table string, keyCols []string) string
	DropQuery(table string) string
	CountQuery(table string) string
	SelectAllQuery(table string) string
	Placeholder(index int) string // Returns ?, $1, @p1, etc.
	QuoteIdent(name string) string

	// Error Taxonomy
	Classify(err error) ErrClass

	// Helpers
	NormalizeType(sqlType string) string
	GetSchemaName(input string) string
}
