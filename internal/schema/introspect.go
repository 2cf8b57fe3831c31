package schema

import (
	"database/sql"
	"fmt"
	"strings"

	"db-sync/internal/dialect"
)

// Describe introspects one table. It returns (nil, nil) when the table does
// not exist, so callers can distinguish "doesn't exist" from "introspection
// failed".
func Describe(db *sql.DB, d dialect.Dialect, schemaName, table string) (*TableSchema, error) {
	target := d.GetSchemaName(schemaName)

	cols, err := fetchColumns(db, d, target, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, nil
	}

	pk, err := fetchPrimaryKey(db, d, target, table)
	if err != nil {
		return nil, err
	}
	fks, err := fetchForeignKeys(db, d, target, table)
	if err != nil {
		return nil, err
	}

	// Key roles: the per-column key marker covers primary/unique; foreign
	// is applied from the FK list for columns not already keyed.
	fkCols := make(map[string]struct{}, len(fks))
	for _, fk := range fks {
		fkCols[fk.Column] = struct{}{}
	}
	for i := range cols {
		if cols[i].Key == KeyNone {
			if _, ok := fkCols[cols[i].Name]; ok {
				cols[i].Key = KeyForeign
			}
		}
	}

	sch := &TableSchema{
		Name:        table,
		Columns:     cols,
		PrimaryKey:  pk,
		ForeignKeys: fks,
	}

	def, err := fetchDefinition(db, d, table)
	if err != nil || def == "" {
		def = buildDefinition(d, sch)
	}
	sch.Definition = def

	return sch, nil
}

func fetchColumns(db *sql.DB, d dialect.Dialect, schemaName, table string) ([]ColumnDef, error) {
	rows, err := db.Query(d.ColumnsQuery(), schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns for %s: %w", table, err)
	}
	defer rows.Close()

	var cols []ColumnDef
	for rows.Next() {
		var name, cType, isNull sql.NullString
		var def sql.NullString
		var key sql.NullString
		if err := rows.Scan(&name, &cType, &isNull, &def, &key); err != nil {
			return nil, fmt.Errorf("failed to scan column (table: %s): %w", table, err)
		}
		if !name.Valid {
			continue
		}
		role := KeyNone
		switch {
		case strings.Contains(key.String, "PRI"):
			role = KeyPrimary
		case strings.Contains(key.String, "UNI"):
			role = KeyUnique
		}
		cols = append(cols, ColumnDef{
			Name:     name.String,
			Type:     cType.String,
			Nullable: isNull.String == "YES",
			Default:  def,
			Key:      role,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns for %s: %w", table, err)
	}
	return cols, nil
}

func fetchPrimaryKey(db *sql.DB, d dialect.Dialect, schemaName, table string) ([]string, error) {
	rows, err := db.Query(d.PrimaryKeyQuery(), schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary key for %s: %w", table, err)
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("failed to scan primary key column (table: %s): %w", table, err)
		}
		pk = append(pk, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating primary key for %s: %w", table, err)
	}
	return pk, nil
}

func fetchForeignKeys(db *sql.DB, d dialect.Dialect, schemaName, table string) ([]ForeignKeyRef, error) {
	rows, err := db.Query(d.ForeignKeysQuery(), schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys for %s: %w", table, err)
	}
	defer rows.Close()

	var fks []ForeignKeyRef
	for rows.Next() {
		var col, refTable, refCol sql.NullString
		if err := rows.Scan(&col, &refTable, &refCol); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key (table: %s): %w", table, err)
		}
		if !col.Valid || !refTable.Valid {
			continue
		}
		fks = append(fks, ForeignKeyRef{
			Column:    col.String,
			RefTable:  refTable.String,
			RefColumn: refCol.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys for %s: %w", table, err)
	}
	return fks, nil
}

// fetchDefinition retrieves the store-native creation statement. The result
// shape varies by store (SHOW CREATE TABLE returns two columns, GET_DDL one),
// so the last string column of the first row is taken.
func fetchDefinition(db *sql.DB, d dialect.Dialect, table string) (string, error) {
	q := d.DefinitionQuery(table)
	if q == "" {
		return "", nil
	}
	rows, err := db.Query(q)
	if err != nil {
		return "", fmt.Errorf("failed to query definition for %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}
	if !rows.Next() {
		return "", rows.Err()
	}
	vals := make([]any, len(cols))
	for i := range vals {
		vals[i] = new(sql.RawBytes)
	}
	if err := rows.Scan(vals...); err != nil {
		return "", fmt.Errorf("failed to scan definition for %s: %w", table, err)
	}
	def := ""
	for _, v := range vals {
		if rb, ok := v.(*sql.RawBytes); ok && len(*rb) > 0 {
			def = string(*rb)
		}
	}
	return def, nil
}

func buildDefinition(d dialect.Dialect, sch *TableSchema) string {
	specs := make([]dialect.ColumnSpec, len(sch.Columns))
	for i, c := range sch.Columns {
		specs[i] = dialect.ColumnSpec{
			Name:     c.Name,
			Type:     c.Type,
			Nullable: c.Nullable,
			Default:  c.Default.String,
			HasDef:   c.Default.Valid,
		}
	}
	fks := make([]dialect.ForeignKeySpec, len(sch.ForeignKeys))
	for i, fk := range sch.ForeignKeys {
		fks[i] = dialect.ForeignKeySpec{Column: fk.Column, RefTable: fk.RefTable, RefColumn: fk.RefColumn}
	}
	return dialect.BuildCreateStatement(d, sch.Name, specs, sch.PrimaryKey, fks)
}
