package engine

import (
	"context"
	"database/sql"
	"fmt"

	"db-sync/internal/dialect"
	"go.uber.org/zap"
)

// DefaultBatchSize is the row count per multi-row insert during
// drop-recreate streaming.
const DefaultBatchSize = 1000

// batchInserter buffers rows and flushes them as one multi-row INSERT per
// batch. The full-batch statement is generated once from the column list of
// the first batch and reused; only a short final batch needs a fresh
// statement.
type batchInserter struct {
	tx        Execer
	d         dialect.Dialect
	table     string
	cols      []string
	batchSize int

	template string
	buf      []any
	buffered int
	inserted int
}

func newBatchInserter(tx Execer, d dialect.Dialect, table string, cols []string, batchSize int) *batchInserter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &batchInserter{tx: tx, d: d, table: table, cols: cols, batchSize: batchSize}
}

func (b *batchInserter) add(args []any) error {
	b.buf = append(b.buf, args...)
	b.buffered++
	if b.buffered >= b.batchSize {
		return b.flush()
	}
	return nil
}

func (b *batchInserter) flush() error {
	if b.buffered == 0 {
		return nil
	}
	var query string
	if b.buffered == b.batchSize {
		if b.template == "" {
			b.template = b.d.BatchInsertQuery(b.table, b.cols, b.batchSize)
		}
		query = b.template
	} else {
		query = b.d.BatchInsertQuery(b.table, b.cols, b.buffered)
	}
	if _, err := b.tx.Exec(query, b.buf...); err != nil {
		return fmt.Errorf("batch insert into %s failed: %w", b.table, err)
	}
	b.inserted += b.buffered
	b.buf = b.buf[:0]
	b.buffered = 0
	return nil
}

// ApplyDropRecreate replaces one local table wholesale: drop, recreate from
// the remote definition statement, then stream all remote rows in batches
// within a single local transaction. This guarantees exact content parity
// but is unsafe to run concurrently with live local readers of the table.
//
// The whole apply runs on one pinned local connection: the FK-check toggle
// is session state that survives a rollback, so the disable and the
// re-enable must land on the same session rather than on whatever
// connection the pool hands out next.
func ApplyDropRecreate(local, remote *sql.DB, d dialect.Dialect, table, definition string, disableFK bool, batchSize int, stats *Stats, logger *zap.Logger) error {
	ctx := context.Background()
	conn, err := local.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for %s: %w", table, err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", table, err)
	}

	fail := func(err error) error {
		tx.Rollback()
		if disableFK {
			// Best-effort cleanup; a failure here must never mask the
			// original error.
			reenableFKBestEffort(ctx, conn, d)
		}
		return err
	}

	if disableFK {
		if err := d.DisableFKChecks(tx); err != nil {
			return fail(fmt.Errorf("failed to disable foreign key checks: %w", err))
		}
	}

	if _, err := tx.Exec(d.DropQuery(table)); err != nil {
		return fail(fmt.Errorf("failed to drop %s: %w", table, err))
	}
	stats.TablesDropped++
	logger.Debug("dropped table", zap.String("table", table))

	if _, err := tx.Exec(definition); err != nil {
		return fail(fmt.Errorf("failed to recreate %s: %w", table, err))
	}
	stats.TablesCreated++

	rows, err := remote.Query(d.SelectAllQuery(table))
	if err != nil {
		return fail(fmt.Errorf("failed to read remote rows of %s: %w", table, err))
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fail(fmt.Errorf("failed to read remote columns of %s: %w", table, err))
	}

	ins := newBatchInserter(tx, d, table, cols, batchSize)
	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fail(fmt.Errorf("failed to scan remote row of %s: %w", table, err))
		}
		args := make([]any, len(raw))
		for i, v := range raw {
			args[i] = FromDriver(v).Native()
		}
		if err := ins.add(args); err != nil {
			return fail(err)
		}
	}
	if err := rows.Err(); err != nil {
		return fail(fmt.Errorf("error streaming remote rows of %s: %w", table, err))
	}
	if err := ins.flush(); err != nil {
		return fail(err)
	}

	if disableFK {
		if err := d.EnableFKChecks(tx); err != nil {
			return fail(fmt.Errorf("failed to re-enable foreign key checks: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fail(fmt.Errorf("failed to commit %s: %w", table, err))
	}

	stats.RowsInserted += ins.inserted
	stats.TablesSynced++
	logger.Info("table recreated", zap.String("table", table), zap.Int("rows", ins.inserted))
	return nil
}

// reenableFKBestEffort re-enables foreign key enforcement after a failed
// drop-recreate, on the same connection that disabled it. All errors are
// swallowed.
func reenableFKBestEffort(ctx context.Context, conn *sql.Conn, d dialect.Dialect) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	if err := d.EnableFKChecks(tx); err != nil {
		tx.Rollback()
		return
	}
	tx.Commit()
}
