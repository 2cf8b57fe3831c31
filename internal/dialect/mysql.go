package dialect

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

type MysqlDialect struct{}

func (d *MysqlDialect) TablesQuery() string {
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *MysqlDialect) ColumnsQuery() string {
	// COLUMN_TYPE carries the raw declared type, e.g. varchar(255).
	return `SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT, COLUMN_KEY FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION`
}

func (d *MysqlDialect) PrimaryKeyQuery() string {
	// Ordinal position order matters for composite keys.
	return `SELECT COLUMN_NAME FROM information_schema.KEY_COLUMN_USAGE WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND CONSTRAINT_NAME = 'PRIMARY' ORDER BY ORDINAL_POSITION`
}

func (d *MysqlDialect) ForeignKeysQuery() string {
	return `SELECT COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME FROM information_schema.KEY_COLUMN_USAGE WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND REFERENCED_TABLE_NAME IS NOT NULL AND CONSTRAINT_NAME != 'PRIMARY'`
}

func (d *MysqlDialect) DefinitionQuery(table string) string {
	return fmt.Sprintf("SHOW CREATE TABLE %s", d.QuoteIdent(table))
}

func (d *MysqlDialect) DisableFKChecks(tx *sql.Tx) error {
	_, err := tx.Exec("SET FOREIGN_KEY_CHECKS = 0")
	return err
}

func (d *MysqlDialect) EnableFKChecks(tx *sql.Tx) error {
	_, err := tx.Exec("SET FOREIGN_KEY_CHECKS = 1")
	return err
}

func (d *MysqlDialect) InsertQuery(table string, cols []string) string {
	return GenerateBatchInsert(d, table, cols, 1)
}

func (d *MysqlDialect) BatchInsertQuery(table string, cols []string, rows int) string {
	return GenerateBatchInsert(d, table, cols, rows)
}

func (d *MysqlDialect) UpdateQuery(table string, setCols, keyCols []string) string {
	return GenerateUpdate(d, table, setCols, keyCols)
}

func (d *MysqlDialect) DeleteQuery(table string, keyCols []string) string {
	return GenerateDelete(d, table, keyCols)
}

func (d *MysqlDialect) DropQuery(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.QuoteIdent(table))
}

func (d *MysqlDialect) CountQuery(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QuoteIdent(table))
}

func (d *MysqlDialect) SelectAllQuery(table string) string {
	return fmt.Sprintf("SELECT * FROM %s", d.QuoteIdent(table))
}

func (d *MysqlDialect) Placeholder(index int) string {
	return "?"
}

func (d *MysqlDialect) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d *MysqlDialect) Classify(err error) ErrClass {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return ClassOther
	}
	switch me.Number {
	case 1062, 1586: // ER_DUP_ENTRY
		return ClassDuplicateKey
	case 1216, 1217, 1451, 1452: // ER_NO_REFERENCED_ROW / ER_ROW_IS_REFERENCED
		return ClassForeignKey
	default:
		return ClassOther
	}
}

func (d *MysqlDialect) NormalizeType(sqlType string) string {
	return DefaultNormalizeType(sqlType)
}

func (d *MysqlDialect) GetSchemaName(input string) string {
	return DefaultGetSchemaName(input)
}
