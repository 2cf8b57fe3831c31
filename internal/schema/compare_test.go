package schema_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"db-sync/internal/schema"
)

func usersSchema() *schema.TableSchema {
	return &schema.TableSchema{
		Name: "users",
		Columns: []schema.ColumnDef{
			{Name: "id", Type: "int", Nullable: false, Key: schema.KeyPrimary},
			{Name: "email", Type: "varchar(255)", Nullable: false},
			{Name: "created_at", Type: "datetime", Nullable: true},
		},
		PrimaryKey: []string{"id"},
	}
}

func TestCompare_Identical(t *testing.T) {
	diff := schema.Compare(usersSchema(), usersSchema())
	assert.True(t, diff.Empty())
}

func TestCompare_MissingTable(t *testing.T) {
	diff := schema.Compare(usersSchema(), nil)

	assert.True(t, diff.MissingTable)
	assert.False(t, diff.Empty())

	// Full creation is needed; column-level categories stay empty.
	assert.Empty(t, diff.MissingColumns)
	assert.Empty(t, diff.TypeMismatches)
	assert.Nil(t, diff.PrimaryKeyDiff)
}

func TestCompare_ColumnDifferences(t *testing.T) {
	remote := usersSchema()
	local := usersSchema()

	// email type drifted, created_at flipped to NOT NULL, id grew a default,
	// one column missing locally, one extra locally.
	remote.Columns = append(remote.Columns, schema.ColumnDef{Name: "phone", Type: "varchar(32)", Nullable: true})
	local.Columns = append(local.Columns, schema.ColumnDef{Name: "legacy_flag", Type: "tinyint(1)", Nullable: true})
	local.Columns[1].Type = "varchar(100)"
	local.Columns[2].Nullable = false
	local.Columns[0].Default = sql.NullString{String: "0", Valid: true}

	diff := schema.Compare(remote, local)
	require.False(t, diff.Empty())

	require.Len(t, diff.MissingColumns, 1)
	assert.Equal(t, "phone", diff.MissingColumns[0].Name)

	require.Len(t, diff.ExtraColumns, 1)
	assert.Equal(t, "legacy_flag", diff.ExtraColumns[0].Name)

	require.Len(t, diff.TypeMismatches, 1)
	assert.Equal(t, "email", diff.TypeMismatches[0].Column)
	assert.Equal(t, "varchar(255)", diff.TypeMismatches[0].Remote)
	assert.Equal(t, "varchar(100)", diff.TypeMismatches[0].Local)

	require.Len(t, diff.NullMismatches, 1)
	assert.Equal(t, "created_at", diff.NullMismatches[0].Column)

	require.Len(t, diff.DefaultMismatches, 1)
	assert.Equal(t, "id", diff.DefaultMismatches[0].Column)
}

func TestCompare_PrimaryKeyOrderMatters(t *testing.T) {
	remote := &schema.TableSchema{
		Name: "order_items",
		Columns: []schema.ColumnDef{
			{Name: "order_id", Type: "int", Key: schema.KeyPrimary},
			{Name: "item_id", Type: "int", Key: schema.KeyPrimary},
		},
		PrimaryKey: []string{"order_id", "item_id"},
	}
	local := &schema.TableSchema{
		Name:       "order_items",
		Columns:    remote.Columns,
		PrimaryKey: []string{"item_id", "order_id"},
	}

	diff := schema.Compare(remote, local)
	require.NotNil(t, diff.PrimaryKeyDiff)
	assert.Equal(t, []string{"order_id", "item_id"}, diff.PrimaryKeyDiff.Remote)
	assert.Equal(t, []string{"item_id", "order_id"}, diff.PrimaryKeyDiff.Local)
}

func TestCompare_ForeignKeysAsSets(t *testing.T) {
	remote := usersSchema()
	local := usersSchema()
	remote.ForeignKeys = []schema.ForeignKeyRef{
		{Column: "team_id", RefTable: "teams", RefColumn: "id"},
		{Column: "org_id", RefTable: "orgs", RefColumn: "id"},
	}
	// Same references in a different order plus one local-only reference.
	local.ForeignKeys = []schema.ForeignKeyRef{
		{Column: "org_id", RefTable: "orgs", RefColumn: "id"},
		{Column: "team_id", RefTable: "teams", RefColumn: "id"},
		{Column: "region_id", RefTable: "regions", RefColumn: "id"},
	}

	diff := schema.Compare(remote, local)
	require.NotNil(t, diff.ForeignKeyDiff)
	assert.Empty(t, diff.ForeignKeyDiff.RemoteOnly)
	require.Len(t, diff.ForeignKeyDiff.LocalOnly, 1)
	assert.Equal(t, "region_id", diff.ForeignKeyDiff.LocalOnly[0].Column)
}
