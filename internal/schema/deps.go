package schema

import (
	"database/sql"

	"db-sync/internal/dialect"
)

// Dependencies builds the foreign key dependency graph for the given
// tables: table name to the list of tables it references.
func Dependencies(db *sql.DB, d dialect.Dialect, schemaName string, tables []string) (map[string][]string, error) {
	target := d.GetSchemaName(schemaName)
	deps := make(map[string][]string, len(tables))
	for _, t := range tables {
		fks, err := fetchForeignKeys(db, d, target, t)
		if err != nil {
			return nil, err
		}
		seen := make(map[string]bool)
		for _, fk := range fks {
			if fk.RefTable == t || seen[fk.RefTable] {
				continue
			}
			seen[fk.RefTable] = true
			deps[t] = append(deps[t], fk.RefTable)
		}
	}
	return deps, nil
}

// SortByDependencies orders tables parent-first so that rows referencing
// another table are applied after their referents. deps maps a table to the
// tables it references; references to tables outside the input list are
// ignored. Circular dependencies are broken with a scoring heuristic, so the
// result always contains every input table exactly once.
func SortByDependencies(tables []string, deps map[string][]string) []string {
	inSet := make(map[string]bool, len(tables))
	for _, t := range tables {
		inSet[t] = true
	}

	var sorted []string
	processed := make(map[string]bool)

	for len(sorted) < len(tables) {
		added := false

		// Pass 1: add tables whose dependencies are fully satisfied.
		for _, t := range tables {
			if processed[t] {
				continue
			}
			satisfied := true
			for _, dep := range deps[t] {
				if inSet[dep] && !processed[dep] && dep != t {
					satisfied = false
					break
				}
			}
			if satisfied {
				sorted = append(sorted, t)
				processed[t] = true
				added = true
			}
		}

		// Pass 2: no table added means a cycle. Break it by score: fewer
		// unprocessed dependencies is better, direct mutual references are
		// preferred break points, name breaks remaining ties.
		if !added {
			best := ""
			bestScore := -1 << 30
			for _, t := range tables {
				if processed[t] {
					continue
				}
				score := 0
				for _, dep := range deps[t] {
					if inSet[dep] && !processed[dep] && dep != t {
						score -= 100
					}
				}
				if inCycle(t, deps, processed, inSet) {
					score += 500
				}
				if score > bestScore || (score == bestScore && t < best) {
					bestScore = score
					best = t
				}
			}
			if best == "" {
				break
			}
			sorted = append(sorted, best)
			processed[best] = true
		}
	}

	return sorted
}

// inCycle reports whether t participates in a direct mutual reference with
// any of its unprocessed dependencies.
func inCycle(t string, deps map[string][]string, processed, inSet map[string]bool) bool {
	for _, dep := range deps[t] {
		if dep == t || processed[dep] || !inSet[dep] {
			continue
		}
		for _, back := range deps[dep] {
			if back == t {
				return true
			}
		}
	}
	return false
}
