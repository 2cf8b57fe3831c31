package dialect

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

type PostgresDialect struct{}

func (d *PostgresDialect) TablesQuery() string {
	return `SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_type = 'BASE TABLE'`
}

func (d *PostgresDialect) ColumnsQuery() string {
	// Reconstructs a declared type close to what the user wrote
	// (varchar(255), numeric(10,2), ...) since Postgres stores no raw form.
	return `SELECT
    c.column_name,
    c.data_type
      || COALESCE('(' || c.character_maximum_length || ')', '')
      || CASE WHEN c.data_type = 'numeric' AND c.numeric_precision IS NOT NULL
              THEN '(' || c.numeric_precision || ',' || COALESCE(c.numeric_scale, 0) || ')'
              ELSE '' END,
    c.is_nullable,
    c.column_default,
    COALESCE((SELECT CASE tc.constraint_type WHEN 'PRIMARY KEY' THEN 'PRI' WHEN 'UNIQUE' THEN 'UNI' END
     FROM information_schema.table_constraints tc
     JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name
     WHERE tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')
       AND kcu.table_schema = c.table_schema AND kcu.table_name = c.table_name AND kcu.column_name = c.column_name
     ORDER BY CASE tc.constraint_type WHEN 'PRIMARY KEY' THEN 0 ELSE 1 END LIMIT 1), '')
FROM information_schema.columns c
WHERE c.table_schema = $1 AND c.table_name = $2
ORDER BY c.ordinal_position`
}

func (d *PostgresDialect) PrimaryKeyQuery() string {
	return `SELECT kcu.column_name FROM information_schema.key_column_usage kcu JOIN information_schema.table_constraints tc ON kcu.constraint_name = tc.constraint_name WHERE kcu.table_schema = $1 AND kcu.table_name = $2 AND tc.constraint_type = 'PRIMARY KEY' ORDER BY kcu.ordinal_position`
}

func (d *PostgresDialect) ForeignKeysQuery() string {
	return `SELECT kcu.column_name, ccu.table_name, ccu.column_name FROM information_schema.key_column_usage kcu JOIN information_schema.constraint_column_usage ccu ON kcu.constraint_name = ccu.constraint_name JOIN information_schema.table_constraints tc ON kcu.constraint_name = tc.constraint_name WHERE kcu.table_schema = $1 AND kcu.table_name = $2 AND tc.constraint_type = 'FOREIGN KEY'`
}

func (d *PostgresDialect) DefinitionQuery(table string) string {
	// No SHOW CREATE TABLE equivalent; definition is synthesized from the
	// introspected schema.
	return ""
}

func (d *PostgresDialect) DisableFKChecks(tx *sql.Tx) error {
	// session_replication_role needs superuser; fall back to deferring.
	if _, err := tx.Exec("SET session_replication_role = 'replica'"); err != nil {
		_, err2 := tx.Exec("SET CONSTRAINTS ALL DEFERRED")
		if err2 != nil {
			return fmt.Errorf("replication_role failed: %v, deferred failed: %w", err, err2)
		}
	}
	return nil
}

func (d *PostgresDialect) EnableFKChecks(tx *sql.Tx) error {
	_, err := tx.Exec("SET session_replication_role = 'origin'")
	return err
}

func (d *PostgresDialect) InsertQuery(table string, cols []string) string {
	return GenerateBatchInsert(d, table, cols, 1)
}

func (d *PostgresDialect) BatchInsertQuery(table string, cols []string, rows int) string {
	return GenerateBatchInsert(d, table, cols, rows)
}

func (d *PostgresDialect) UpdateQuery(table string, setCols, keyCols []string) string {
	return GenerateUpdate(d, table, setCols, keyCols)
}

func (d *PostgresDialect) DeleteQuery(table string, keyCols []string) string {
	return GenerateDelete(d, table, keyCols)
}

func (d *PostgresDialect) DropQuery(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdent(table))
}

func (d *PostgresDialect) CountQuery(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QuoteIdent(table))
}

func (d *PostgresDialect) SelectAllQuery(table string) string {
	return fmt.Sprintf("SELECT * FROM %s", d.QuoteIdent(table))
}

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index+1)
}

func (d *PostgresDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *PostgresDialect) Classify(err error) ErrClass {
	var pe *pq.Error
	if !errors.As(err, &pe) {
		return ClassOther
	}
	switch pe.Code {
	case "23505": // unique_violation
		return ClassDuplicateKey
	case "23503": // foreign_key_violation
		return ClassForeignKey
	default:
		return ClassOther
	}
}

func (d *PostgresDialect) NormalizeType(sqlType string) string {
	t := strings.ToLower(sqlType)
	switch t {
	case "int4", "int2":
		return "int"
	case "int8":
		return "bigint"
	case "float4":
		return "float"
	case "float8":
		return "double"
	case "bpchar":
		return "char"
	default:
		return t
	}
}

func (d *PostgresDialect) GetSchemaName(input string) string {
	if input == "" {
		return "public"
	}
	return input
}
