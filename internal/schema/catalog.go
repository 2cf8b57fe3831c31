package schema

import (
	"database/sql"
	"fmt"
	"strings"

	"db-sync/internal/dialect"
)

// Exclusions is the fully formed exclusion configuration applied by the
// catalog: an explicit name set plus prefix patterns.
type Exclusions struct {
	Names    map[string]struct{}
	Patterns []string
}

// NewExclusions builds an Exclusions value from configuration slices.
func NewExclusions(names, patterns []string) Exclusions {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return Exclusions{Names: set, Patterns: patterns}
}

// Excluded reports whether a table is excluded from the sync set. A table is
// excluded if its name is in the explicit set, starts with any configured
// pattern, or contains "copy" anywhere in its name case-insensitively. The
// "copy" rule always applies; listing "copy" as a pattern matches it as a
// substring rather than a prefix, which is subsumed by the built-in rule.
func Excluded(name string, excl Exclusions) bool {
	if _, ok := excl.Names[name]; ok {
		return true
	}
	for _, p := range excl.Patterns {
		if p == "copy" {
			continue
		}
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(name), "copy")
}

// ListSyncTables enumerates every base table in the remote schema and
// filters it through the exclusion rules, preserving enumeration order.
func ListSyncTables(db *sql.DB, d dialect.Dialect, schemaName string, excl Exclusions) ([]string, error) {
	rows, err := db.Query(d.TablesQuery(), d.GetSchemaName(schemaName))
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		if Excluded(name, excl) {
			continue
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}
