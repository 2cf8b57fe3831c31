package engine

import (
	"database/sql/driver"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db-sync/internal/dialect"
	"db-sync/internal/schema"
)

// mysqlCatalogResults scripts the introspection queries for a single
// one-table schema.
func mysqlCatalogResults() []resultSpec {
	return []resultSpec{
		{match: "information_schema.TABLES", cols: []string{"TABLE_NAME"},
			rows: [][]driver.Value{{"users"}}},
		{match: "information_schema.COLUMNS", cols: []string{"COLUMN_NAME", "COLUMN_TYPE", "IS_NULLABLE", "COLUMN_DEFAULT", "COLUMN_KEY"},
			rows: [][]driver.Value{
				{"id", "int", "NO", nil, "PRI"},
				{"name", "varchar(50)", "YES", nil, ""},
			}},
		{match: "CONSTRAINT_NAME = 'PRIMARY'", cols: []string{"COLUMN_NAME"},
			rows: [][]driver.Value{{"id"}}},
		{match: "REFERENCED_TABLE_NAME", cols: []string{"COLUMN_NAME", "REFERENCED_TABLE_NAME", "REFERENCED_COLUMN_NAME"}},
		{match: "SHOW CREATE TABLE", cols: []string{"Table", "Create Table"},
			rows: [][]driver.Value{{"users", "CREATE TABLE `users` (`id` int)"}}},
	}
}

func TestAnalyzeSchemas_LocalIntrospectionFailureIsAnError(t *testing.T) {
	remoteB := &fakeBackend{results: mysqlCatalogResults()}
	localB := &fakeBackend{failOn: "information_schema.COLUMNS"}
	remote := openFakeDB(t, remoteB)
	local := openFakeDB(t, localB)

	report, err := AnalyzeSchemas(remote, local, dialect.GetDialect("mysql"), Options{
		RemoteSchema: "prod",
		LocalSchema:  "dev",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 0, report.TablesAnalyzed)
}

func TestAnalyzeSchemas_MissingLocalTable(t *testing.T) {
	remoteB := &fakeBackend{results: mysqlCatalogResults()}
	localB := &fakeBackend{} // every local query returns no rows
	remote := openFakeDB(t, remoteB)
	local := openFakeDB(t, localB)

	report, err := AnalyzeSchemas(remote, local, dialect.GetDialect("mysql"), Options{
		RemoteSchema: "prod",
		LocalSchema:  "dev",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"users"}, report.MissingTables)
	assert.Equal(t, 1, report.TablesAnalyzed)
	assert.Equal(t, 0, report.Errors)
}

func TestBuildRecommendations(t *testing.T) {
	assert.Empty(t, buildRecommendations(&SchemaReport{}))

	r := &SchemaReport{
		MissingTables: []string{"users"},
		Mismatches:    []TableMismatch{{Table: "orders", Diff: schema.SchemaDiff{MissingColumns: []schema.ColumnDef{{Name: "x"}}}}},
		Dependencies:  map[string][]string{"orders": {"users"}},
	}
	recs := buildRecommendations(r)
	assert.Len(t, recs, 3)
}

func TestStatsAdd(t *testing.T) {
	total := &Stats{RowsInserted: 1, Errors: 1}
	scratch := &Stats{RowsInserted: 4, RowsDeleted: 2, TablesSynced: 1, DeletesSkipped: 1}

	total.add(scratch)

	assert.Equal(t, 5, total.RowsInserted)
	assert.Equal(t, 2, total.RowsDeleted)
	assert.Equal(t, 1, total.TablesSynced)
	assert.Equal(t, 1, total.DeletesSkipped)
	assert.Equal(t, 1, total.Errors)
}
