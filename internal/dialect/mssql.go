package dialect

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mssql "github.com/denisenkom/go-mssqldb"
)

type MSSQLDialect struct{}

func (d *MSSQLDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *MSSQLDialect) ColumnsQuery() string {
	return `SELECT
    c.COLUMN_NAME,
    c.DATA_TYPE + CASE WHEN c.CHARACTER_MAXIMUM_LENGTH IS NOT NULL
                       THEN '(' + CAST(c.CHARACTER_MAXIMUM_LENGTH AS VARCHAR(10)) + ')'
                       ELSE '' END,
    c.IS_NULLABLE,
    c.COLUMN_DEFAULT,
    CASE WHEN pk.COLUMN_NAME IS NOT NULL THEN 'PRI'
         WHEN uq.COLUMN_NAME IS NOT NULL THEN 'UNI'
         ELSE '' END
FROM INFORMATION_SCHEMA.COLUMNS c
LEFT JOIN (
    SELECT kcu.TABLE_NAME, kcu.COLUMN_NAME
    FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
    JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
    WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND tc.TABLE_SCHEMA = @p1
) pk ON c.TABLE_NAME = pk.TABLE_NAME AND c.COLUMN_NAME = pk.COLUMN_NAME
LEFT JOIN (
    SELECT kcu.TABLE_NAME, kcu.COLUMN_NAME
    FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
    JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
    WHERE tc.CONSTRAINT_TYPE = 'UNIQUE' AND tc.TABLE_SCHEMA = @p1
) uq ON c.TABLE_NAME = uq.TABLE_NAME AND c.COLUMN_NAME = uq.COLUMN_NAME
WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2
ORDER BY c.ORDINAL_POSITION`
}

func (d *MSSQLDialect) PrimaryKeyQuery() string {
	return `SELECT kcu.COLUMN_NAME FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY' AND kcu.TABLE_SCHEMA = @p1 AND kcu.TABLE_NAME = @p2 ORDER BY kcu.ORDINAL_POSITION`
}

func (d *MSSQLDialect) ForeignKeysQuery() string {
	return `SELECT KCU1.COLUMN_NAME, KCU2.TABLE_NAME, KCU2.COLUMN_NAME FROM INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS RC JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE KCU1 ON RC.CONSTRAINT_NAME = KCU1.CONSTRAINT_NAME JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE KCU2 ON RC.UNIQUE_CONSTRAINT_NAME = KCU2.CONSTRAINT_NAME AND KCU1.ORDINAL_POSITION = KCU2.ORDINAL_POSITION WHERE KCU1.TABLE_SCHEMA = @p1 AND KCU1.TABLE_NAME = @p2`
}

func (d *MSSQLDialect) DefinitionQuery(table string) string {
	// T-SQL has no SHOW CREATE TABLE; definition is synthesized.
	return ""
}

func (d *MSSQLDialect) DisableFKChecks(tx *sql.Tx) error {
	_, err := tx.Exec("EXEC sp_msforeachtable 'ALTER TABLE ? NOCHECK CONSTRAINT all'")
	return err
}

func (d *MSSQLDialect) EnableFKChecks(tx *sql.Tx) error {
	_, err := tx.Exec("EXEC sp_msforeachtable 'ALTER TABLE ? WITH CHECK CHECK CONSTRAINT all'")
	return err
}

func (d *MSSQLDialect) InsertQuery(table string, cols []string) string {
	return GenerateBatchInsert(d, table, cols, 1)
}

func (d *MSSQLDialect) BatchInsertQuery(table string, cols []string, rows int) string {
	return GenerateBatchInsert(d, table, cols, rows)
}

func (d *MSSQLDialect) UpdateQuery(table string, setCols, keyCols []string) string {
	return GenerateUpdate(d, table, setCols, keyCols)
}

func (d *MSSQLDialect) DeleteQuery(table string, keyCols []string) string {
	return GenerateDelete(d, table, keyCols)
}

func (d *MSSQLDialect) DropQuery(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdent(table))
}

func (d *MSSQLDialect) CountQuery(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QuoteIdent(table))
}

func (d *MSSQLDialect) SelectAllQuery(table string) string {
	return fmt.Sprintf("SELECT * FROM %s", d.QuoteIdent(table))
}

func (d *MSSQLDialect) Placeholder(index int) string {
	return fmt.Sprintf("@p%d", index+1)
}

func (d *MSSQLDialect) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (d *MSSQLDialect) Classify(err error) ErrClass {
	var me mssql.Error
	if !errors.As(err, &me) {
		return ClassOther
	}
	switch me.Number {
	case 2601, 2627: // duplicate key
		return ClassDuplicateKey
	case 547: // constraint conflict (FK)
		return ClassForeignKey
	default:
		return ClassOther
	}
}

func (d *MSSQLDialect) NormalizeType(sqlType string) string {
	t := strings.ToLower(sqlType)
	switch t {
	case "nvarchar", "nchar", "text", "ntext":
		return "varchar"
	case "bit":
		return "boolean"
	case "decimal", "numeric", "money", "smallmoney":
		return "decimal"
	case "float", "real":
		return "float"
	case "datetime", "datetime2", "smalldatetime", "date":
		return "datetime"
	case "image", "binary", "varbinary":
		return "blob"
	default:
		return t
	}
}

func (d *MSSQLDialect) GetSchemaName(input string) string {
	if input == "" {
		return "dbo"
	}
	return input
}
