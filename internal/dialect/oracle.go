package dialect

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sijms/go-ora/v2/network"
)

type OracleDialect struct{}

func (d *OracleDialect) TablesQuery() string {
	// USER_TABLES lists tables owned by the current user; the dummy clause
	// consumes the schema argument passed by generic callers.
	return `SELECT TABLE_NAME FROM USER_TABLES WHERE :1 IS NOT NULL`
}

func (d *OracleDialect) ColumnsQuery() string {
	return `SELECT
    t.COLUMN_NAME,
    t.DATA_TYPE || CASE WHEN t.DATA_TYPE LIKE '%CHAR%' AND t.DATA_LENGTH IS NOT NULL
                        THEN '(' || t.DATA_LENGTH || ')' ELSE '' END,
    CASE t.NULLABLE WHEN 'Y' THEN 'YES' ELSE 'NO' END,
    t.DATA_DEFAULT,
    CASE WHEN p.CONSTRAINT_NAME IS NOT NULL THEN 'PRI'
         WHEN u.CONSTRAINT_NAME IS NOT NULL THEN 'UNI'
         ELSE '' END
FROM USER_TAB_COLUMNS t
LEFT JOIN (
    SELECT cc.TABLE_NAME, cc.COLUMN_NAME, cc.CONSTRAINT_NAME
    FROM USER_CONS_COLUMNS cc
    JOIN USER_CONSTRAINTS uc ON cc.CONSTRAINT_NAME = uc.CONSTRAINT_NAME
    WHERE uc.CONSTRAINT_TYPE = 'P'
) p ON t.TABLE_NAME = p.TABLE_NAME AND t.COLUMN_NAME = p.COLUMN_NAME
LEFT JOIN (
    SELECT cc.TABLE_NAME, cc.COLUMN_NAME, cc.CONSTRAINT_NAME
    FROM USER_CONS_COLUMNS cc
    JOIN USER_CONSTRAINTS uc ON cc.CONSTRAINT_NAME = uc.CONSTRAINT_NAME
    WHERE uc.CONSTRAINT_TYPE = 'U'
) u ON t.TABLE_NAME = u.TABLE_NAME AND t.COLUMN_NAME = u.COLUMN_NAME
WHERE :1 IS NOT NULL AND t.TABLE_NAME = :2
ORDER BY t.COLUMN_ID`
}

func (d *OracleDialect) PrimaryKeyQuery() string {
	return `SELECT cc.COLUMN_NAME
FROM USER_CONS_COLUMNS cc
JOIN USER_CONSTRAINTS uc ON cc.CONSTRAINT_NAME = uc.CONSTRAINT_NAME
WHERE uc.CONSTRAINT_TYPE = 'P' AND :1 IS NOT NULL AND cc.TABLE_NAME = :2
ORDER BY cc.POSITION`
}

func (d *OracleDialect) ForeignKeysQuery() string {
	return `SELECT
    cc.COLUMN_NAME,
    r.TABLE_NAME,
    rcc.COLUMN_NAME
FROM USER_CONSTRAINTS c
JOIN USER_CONS_COLUMNS cc
    ON c.CONSTRAINT_NAME = cc.CONSTRAINT_NAME AND c.OWNER = cc.OWNER
JOIN USER_CONSTRAINTS r
    ON c.R_CONSTRAINT_NAME = r.CONSTRAINT_NAME AND c.R_OWNER = r.OWNER
JOIN USER_CONS_COLUMNS rcc
    ON r.CONSTRAINT_NAME = rcc.CONSTRAINT_NAME AND r.OWNER = rcc.OWNER
    AND cc.POSITION = rcc.POSITION
WHERE c.CONSTRAINT_TYPE = 'R' AND :1 IS NOT NULL AND c.TABLE_NAME = :2`
}

func (d *OracleDialect) DefinitionQuery(table string) string {
	return fmt.Sprintf("SELECT DBMS_METADATA.GET_DDL('TABLE', '%s') FROM DUAL", strings.ToUpper(strings.ReplaceAll(table, "'", "''")))
}

func (d *OracleDialect) DisableFKChecks(tx *sql.Tx) error {
	// Note: ALTER in Oracle implicitly commits the transaction.
	return toggleOracleConstraints(tx, "ENABLED", "DISABLE")
}

func (d *OracleDialect) EnableFKChecks(tx *sql.Tx) error {
	return toggleOracleConstraints(tx, "DISABLED", "ENABLE")
}

func toggleOracleConstraints(tx *sql.Tx, fromStatus, action string) error {
	rows, err := tx.Query("SELECT TABLE_NAME, CONSTRAINT_NAME FROM USER_CONSTRAINTS WHERE CONSTRAINT_TYPE = 'R' AND STATUS = :1", fromStatus)
	if err != nil {
		return err
	}
	defer rows.Close()

	var constraints []struct{ Table, Name string }
	for rows.Next() {
		var t, n string
		if err := rows.Scan(&t, &n); err != nil {
			return err
		}
		constraints = append(constraints, struct{ Table, Name string }{t, n})
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for _, c := range constraints {
		if _, err := tx.Exec(fmt.Sprintf("ALTER TABLE %s %s CONSTRAINT %s", c.Table, action, c.Name)); err != nil {
			return fmt.Errorf("failed to %s constraint %s on %s: %w", strings.ToLower(action), c.Name, c.Table, err)
		}
	}
	return nil
}

func (d *OracleDialect) InsertQuery(table string, cols []string) string {
	return GenerateBatchInsert(d, table, cols, 1)
}

func (d *OracleDialect) BatchInsertQuery(table string, cols []string, rows int) string {
	return GenerateBatchInsert(d, table, cols, rows)
}

func (d *OracleDialect) UpdateQuery(table string, setCols, keyCols []string) string {
	return GenerateUpdate(d, table, setCols, keyCols)
}

func (d *OracleDialect) DeleteQuery(table string, keyCols []string) string {
	return GenerateDelete(d, table, keyCols)
}

func (d *OracleDialect) DropQuery(table string) string {
	// Oracle has no IF EXISTS before 23c; swallow ORA-00942 so dropping a
	// table that does not exist yet is a no-op.
	return fmt.Sprintf(`BEGIN
   EXECUTE IMMEDIATE 'DROP TABLE %s';
EXCEPTION
   WHEN OTHERS THEN
      IF SQLCODE != -942 THEN
         RAISE;
      END IF;
END;`, d.QuoteIdent(table))
}

func (d *OracleDialect) CountQuery(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QuoteIdent(table))
}

func (d *OracleDialect) SelectAllQuery(table string) string {
	return fmt.Sprintf("SELECT * FROM %s", d.QuoteIdent(table))
}

func (d *OracleDialect) Placeholder(index int) string {
	return fmt.Sprintf(":%d", index+1)
}

func (d *OracleDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *OracleDialect) Classify(err error) ErrClass {
	var oe *network.OracleError
	if !errors.As(err, &oe) {
		return ClassOther
	}
	switch oe.ErrCode {
	case 1: // ORA-00001 unique constraint violated
		return ClassDuplicateKey
	case 2291, 2292: // parent key not found / child record found
		return ClassForeignKey
	default:
		return ClassOther
	}
}

func (d *OracleDialect) NormalizeType(sqlType string) string {
	s := strings.ToLower(sqlType)
	if strings.Contains(s, "char") || strings.Contains(s, "clob") {
		return "string"
	}
	if strings.Contains(s, "int") || strings.Contains(s, "number") || strings.Contains(s, "float") {
		return "integer"
	}
	if strings.Contains(s, "date") || strings.Contains(s, "time") {
		return "datetime"
	}
	return s
}

func (d *OracleDialect) GetSchemaName(input string) string {
	return input
}
