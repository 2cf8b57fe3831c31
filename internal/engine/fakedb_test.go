package engine

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// In-memory database/sql driver for exercising connection-level behavior:
// every statement is recorded with the id of the connection it ran on, and
// queries are answered from scripted result sets matched by substring.

type stmtRecord struct {
	conn  int
	query string
	args  []driver.Value
}

type resultSpec struct {
	match string
	cols  []string
	rows  [][]driver.Value
}

type fakeBackend struct {
	mu      sync.Mutex
	nextID  int
	stmts   []stmtRecord
	results []resultSpec
	failOn  string // statements containing this substring fail
}

func (b *fakeBackend) record(conn int, query string, args []driver.Value) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stmts = append(b.stmts, stmtRecord{conn: conn, query: query, args: args})
}

func (b *fakeBackend) lookup(query string) *resultSpec {
	for i := range b.results {
		if strings.Contains(query, b.results[i].match) {
			return &b.results[i]
		}
	}
	return nil
}

// statements returns the recorded queries, optionally filtered by prefix.
func (b *fakeBackend) statements(prefix string) []stmtRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []stmtRecord
	for _, s := range b.stmts {
		if prefix == "" || strings.HasPrefix(s.query, prefix) {
			out = append(out, s)
		}
	}
	return out
}

var (
	fakeBackends   sync.Map
	fakeBackendSeq atomic.Int64
	registerOnce   sync.Once
)

type fakeDriver struct{}

func (fakeDriver) Open(dsn string) (driver.Conn, error) {
	v, ok := fakeBackends.Load(dsn)
	if !ok {
		return nil, fmt.Errorf("unknown fake backend %q", dsn)
	}
	b := v.(*fakeBackend)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.mu.Unlock()
	return &fakeConn{backend: b, id: id}, nil
}

func openFakeDB(t *testing.T, b *fakeBackend) *sql.DB {
	t.Helper()
	registerOnce.Do(func() { sql.Register("fakesync", fakeDriver{}) })

	name := fmt.Sprintf("backend-%d", fakeBackendSeq.Add(1))
	fakeBackends.Store(name, b)

	db, err := sql.Open("fakesync", name)
	if err != nil {
		t.Fatalf("open fake db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		fakeBackends.Delete(name)
	})
	return db
}

type fakeConn struct {
	backend *fakeBackend
	id      int
}

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{conn: c, query: query}, nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) {
	return fakeTxn{conn: c}, nil
}

type fakeTxn struct{ conn *fakeConn }

func (t fakeTxn) Commit() error {
	t.conn.backend.record(t.conn.id, "COMMIT", nil)
	return nil
}

func (t fakeTxn) Rollback() error {
	t.conn.backend.record(t.conn.id, "ROLLBACK", nil)
	return nil
}

type fakeStmt struct {
	conn  *fakeConn
	query string
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	b := s.conn.backend
	b.record(s.conn.id, s.query, args)
	if b.failOn != "" && strings.Contains(s.query, b.failOn) {
		return nil, errors.New("forced statement failure")
	}
	return driver.RowsAffected(1), nil
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	b := s.conn.backend
	b.record(s.conn.id, s.query, args)
	if b.failOn != "" && strings.Contains(s.query, b.failOn) {
		return nil, errors.New("forced statement failure")
	}
	spec := b.lookup(s.query)
	if spec == nil {
		return &fakeRows{}, nil
	}
	return &fakeRows{cols: spec.cols, rows: spec.rows}, nil
}

type fakeRows struct {
	cols []string
	rows [][]driver.Value
	pos  int
}

func (r *fakeRows) Columns() []string { return r.cols }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}
