package engine

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"db-sync/internal/dialect"
)

type recordingTx struct {
	queries []string
	argLens []int
	fail    bool
}

func (r *recordingTx) Exec(query string, args ...any) (sql.Result, error) {
	if r.fail {
		return nil, errors.New("exec failed")
	}
	r.queries = append(r.queries, query)
	r.argLens = append(r.argLens, len(args))
	return nil, nil
}

func TestBatchInserter_FlushesFullBatches(t *testing.T) {
	tx := &recordingTx{}
	ins := newBatchInserter(tx, dialect.GetDialect("mysql"), "users", []string{"id", "name"}, 3)

	for i := 0; i < 7; i++ {
		require.NoError(t, ins.add([]any{int64(i), "x"}))
	}
	require.NoError(t, ins.flush())

	// Two full batches of 3 plus a short final batch of 1.
	require.Len(t, tx.queries, 3)
	assert.Equal(t, []int{6, 6, 2}, tx.argLens)
	assert.Equal(t, 7, ins.inserted)

	// Full batches reuse one generated statement.
	assert.Equal(t, tx.queries[0], tx.queries[1])
	assert.NotEqual(t, tx.queries[0], tx.queries[2])
}

func TestBatchInserter_ExactMultiple(t *testing.T) {
	tx := &recordingTx{}
	ins := newBatchInserter(tx, dialect.GetDialect("mysql"), "users", []string{"id"}, 2)

	for i := 0; i < 4; i++ {
		require.NoError(t, ins.add([]any{int64(i)}))
	}
	require.NoError(t, ins.flush())

	assert.Len(t, tx.queries, 2)
	assert.Equal(t, 4, ins.inserted)
}

func TestBatchInserter_EmptyFlushIsNoop(t *testing.T) {
	tx := &recordingTx{}
	ins := newBatchInserter(tx, dialect.GetDialect("mysql"), "users", []string{"id"}, 2)

	require.NoError(t, ins.flush())
	assert.Empty(t, tx.queries)
}

func TestBatchInserter_DefaultBatchSize(t *testing.T) {
	ins := newBatchInserter(&recordingTx{}, dialect.GetDialect("mysql"), "users", []string{"id"}, 0)
	assert.Equal(t, DefaultBatchSize, ins.batchSize)
}

func TestBatchInserter_ExecErrorPropagates(t *testing.T) {
	tx := &recordingTx{fail: true}
	ins := newBatchInserter(tx, dialect.GetDialect("mysql"), "users", []string{"id"}, 1)

	err := ins.add([]any{int64(1)})
	assert.Error(t, err)
}

func TestApplyDropRecreate_CopiesAllRemoteRows(t *testing.T) {
	// Remote rows include NULLs and duplicate non-key values; every value
	// must reach an INSERT unchanged.
	remoteRows := [][]driver.Value{
		{int64(1), "a", int64(5)},
		{int64(2), nil, int64(5)},
		{int64(3), "a", nil},
	}
	remoteB := &fakeBackend{results: []resultSpec{
		{match: "SELECT * FROM", cols: []string{"id", "name", "qty"}, rows: remoteRows},
	}}
	localB := &fakeBackend{}
	remote := openFakeDB(t, remoteB)
	local := openFakeDB(t, localB)

	stats := &Stats{}
	err := ApplyDropRecreate(local, remote, dialect.GetDialect("mysql"), "widgets",
		"CREATE TABLE `widgets` (`id` int, `name` varchar(10), `qty` int)",
		true, 2, stats, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TablesDropped)
	assert.Equal(t, 1, stats.TablesCreated)
	assert.Equal(t, 1, stats.TablesSynced)
	assert.Equal(t, 3, stats.RowsInserted)

	// Drop before create before inserts, all on one local connection.
	all := localB.statements("")
	var order []string
	for _, s := range all {
		assert.Equal(t, all[0].conn, s.conn)
		switch {
		case strings.HasPrefix(s.query, "DROP"):
			order = append(order, "drop")
		case strings.HasPrefix(s.query, "CREATE"):
			order = append(order, "create")
		case strings.HasPrefix(s.query, "INSERT"):
			order = append(order, "insert")
		case s.query == "COMMIT":
			order = append(order, "commit")
		}
	}
	assert.Equal(t, []string{"drop", "create", "insert", "insert", "commit"}, order)

	// Value-equal parity between what was read and what was written.
	var want []Value
	for _, row := range remoteRows {
		for _, v := range row {
			want = append(want, FromDriver(v))
		}
	}
	var got []Value
	for _, s := range localB.statements("INSERT") {
		for _, v := range s.args {
			got = append(got, FromDriver(v))
		}
	}
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "value %d differs", i)
	}
}

func TestApplyDropRecreate_ReenablesFKOnSameSessionAfterFailure(t *testing.T) {
	// The FK toggle is session state and survives a rollback, so after a
	// failed apply the re-enable must run on the connection that disabled
	// it, not on an arbitrary pooled connection.
	localB := &fakeBackend{failOn: "CREATE TABLE"}
	remoteB := &fakeBackend{}
	remote := openFakeDB(t, remoteB)
	local := openFakeDB(t, localB)

	stats := &Stats{}
	err := ApplyDropRecreate(local, remote, dialect.GetDialect("mysql"), "users",
		"CREATE TABLE `users` (`id` int)", true, 0, stats, zap.NewNop())
	require.Error(t, err)

	all := localB.statements("")
	disabled, rolledBack, reenabled := -1, -1, -1
	for i, s := range all {
		assert.Equal(t, all[0].conn, s.conn, "statement %q left the pinned connection", s.query)
		switch s.query {
		case "SET FOREIGN_KEY_CHECKS = 0":
			disabled = i
		case "ROLLBACK":
			rolledBack = i
		case "SET FOREIGN_KEY_CHECKS = 1":
			reenabled = i
		}
	}
	require.GreaterOrEqual(t, disabled, 0)
	require.GreaterOrEqual(t, rolledBack, 0)
	require.GreaterOrEqual(t, reenabled, 0, "foreign key checks never re-enabled")
	assert.Greater(t, reenabled, rolledBack)
}
