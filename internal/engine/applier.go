package engine

import (
	"database/sql"
	"fmt"

	"db-sync/internal/dialect"
)

// Execer is the subset of *sql.Tx the appliers need for row mutations.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Outcome is the explicit result of one row-level operation.
type Outcome int

const (
	Applied Outcome = iota
	SkippedDuplicate
	SkippedForeignKey
)

// execRow runs one row mutation and classifies the result. Duplicate-key
// and foreign-key violations are recoverable outcomes; anything else is an
// error that aborts the table.
func execRow(tx Execer, d dialect.Dialect, query string, args []any) (Outcome, error) {
	_, err := tx.Exec(query, args...)
	if err == nil {
		return Applied, nil
	}
	switch d.Classify(err) {
	case dialect.ClassDuplicateKey:
		return SkippedDuplicate, nil
	case dialect.ClassForeignKey:
		return SkippedForeignKey, nil
	default:
		return Applied, err
	}
}

// ApplyIncremental executes a sync plan against one table within the given
// transaction: inserts first, then updates, then deletes. Inserting child
// rows before dependent updates reference them minimizes foreign-key
// violations. Skipped rows are counted, not retried; any non-constraint
// error aborts so the caller can roll the table back.
func ApplyIncremental(tx Execer, d dialect.Dialect, table string, remote, local *RowSet, plan Plan, stats *Stats) error {
	insertQuery := d.InsertQuery(table, remote.Columns)
	for _, k := range plan.Insert {
		row := remote.Rows[k]
		args := make([]any, len(row))
		for i, v := range row {
			args[i] = v.Native()
		}
		outcome, err := execRow(tx, d, insertQuery, args)
		if err != nil {
			return fmt.Errorf("insert into %s failed: %w", table, err)
		}
		if outcome == Applied {
			stats.RowsInserted++
		} else {
			stats.RowsSkipped++
		}
	}

	keyCols := make(map[string]bool, len(remote.KeyColumns))
	for _, k := range remote.KeyColumns {
		keyCols[k] = true
	}
	var setCols []string
	var setIdx []int
	for i, c := range remote.Columns {
		if !keyCols[c] {
			setCols = append(setCols, c)
			setIdx = append(setIdx, i)
		}
	}

	// A table whose every column is part of the key has nothing to update.
	if len(setCols) > 0 {
		updateQuery := d.UpdateQuery(table, setCols, remote.KeyColumns)
		for _, k := range plan.Update {
			row := remote.Rows[k]
			args := make([]any, 0, len(setIdx)+len(remote.KeyColumns))
			for _, i := range setIdx {
				args = append(args, row[i].Native())
			}
			for _, kc := range remote.KeyColumns {
				i, _ := remote.ColumnIndex(kc)
				args = append(args, row[i].Native())
			}
			outcome, err := execRow(tx, d, updateQuery, args)
			if err != nil {
				return fmt.Errorf("update of %s failed: %w", table, err)
			}
			if outcome == Applied {
				stats.RowsUpdated++
			} else {
				stats.RowsSkipped++
			}
		}
	}

	deleteQuery := d.DeleteQuery(table, remote.KeyColumns)
	for _, k := range plan.Delete {
		row := local.Rows[k]
		args := make([]any, 0, len(remote.KeyColumns))
		for _, kc := range remote.KeyColumns {
			i, ok := local.ColumnIndex(kc)
			if !ok {
				return fmt.Errorf("delete from %s failed: local side has no key column %s", table, kc)
			}
			args = append(args, row[i].Native())
		}
		if _, err := tx.Exec(deleteQuery, args...); err != nil {
			// Only FK violations are recoverable for deletes: the row is
			// still referenced locally and is left in place.
			if d.Classify(err) == dialect.ClassForeignKey {
				stats.DeletesSkipped++
				continue
			}
			return fmt.Errorf("delete from %s failed: %w", table, err)
		}
		stats.RowsDeleted++
	}

	return nil
}
