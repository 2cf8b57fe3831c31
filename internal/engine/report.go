package engine

import (
	"database/sql"
	"fmt"

	"db-sync/internal/dialect"
	"db-sync/internal/schema"

	"go.uber.org/zap"
)

// TableMismatch pairs a table with its non-empty schema diff.
type TableMismatch struct {
	Table string
	Diff  schema.SchemaDiff
}

// SchemaReport is the read-only outcome of the schema analysis path:
// nothing on either store is mutated to produce it. The dependency graph is
// informational; sync order enforcement is a separate, opt-in concern
// (Options.OrderByDependencies).
type SchemaReport struct {
	TablesAnalyzed  int
	MissingTables   []string
	Mismatches      []TableMismatch
	Dependencies    map[string][]string
	Recommendations []string
	Skipped         int
	Errors          int
}

// AnalyzeSchemas runs catalog, two-sided introspection and comparison
// across every sync table, accumulating findings into a SchemaReport.
func AnalyzeSchemas(remote, local *sql.DB, d dialect.Dialect, opts Options) (*SchemaReport, error) {
	logger := opts.logger()

	tables, err := schema.ListSyncTables(remote, d, opts.RemoteSchema, opts.Exclusions)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables to analyze: %w", err)
	}

	report := &SchemaReport{Dependencies: make(map[string][]string)}
	for i, table := range tables {
		if opts.OnTable != nil {
			opts.OnTable(table, i+1, len(tables))
		}

		remoteSchema, err := schema.Describe(remote, d, opts.RemoteSchema, table)
		if err != nil || remoteSchema == nil {
			logger.Warn("skipping table: could not introspect remote schema", zap.String("table", table), zap.Error(err))
			report.Skipped++
			continue
		}

		// The remote side legitimately loses tables between catalog and
		// introspection; a local introspection failure is a real error.
		localSchema, err := schema.Describe(local, d, opts.LocalSchema, table)
		if err != nil {
			logger.Error("could not introspect local schema", zap.String("table", table), zap.Error(err))
			report.Errors++
			continue
		}

		diff := schema.Compare(remoteSchema, localSchema)
		if diff.MissingTable {
			report.MissingTables = append(report.MissingTables, table)
		} else if !diff.Empty() {
			report.Mismatches = append(report.Mismatches, TableMismatch{Table: table, Diff: diff})
		}

		if len(remoteSchema.ForeignKeys) > 0 {
			seen := make(map[string]bool)
			for _, fk := range remoteSchema.ForeignKeys {
				if !seen[fk.RefTable] {
					seen[fk.RefTable] = true
					report.Dependencies[table] = append(report.Dependencies[table], fk.RefTable)
				}
			}
		}
		report.TablesAnalyzed++
	}

	report.Recommendations = buildRecommendations(report)
	return report, nil
}

// buildRecommendations derives operator guidance from the findings.
func buildRecommendations(r *SchemaReport) []string {
	var recs []string
	if len(r.MissingTables) > 0 {
		recs = append(recs, "Create missing tables from the remote schema (a sync run does this automatically)")
	}
	if len(r.Mismatches) > 0 {
		recs = append(recs, "Fix schema mismatches, or use drop-recreate mode to rebuild drifted tables")
	}
	if len(r.Dependencies) > 0 {
		recs = append(recs, "Consider enabling dependency-ordered sync to reduce foreign key skips")
	}
	return recs
}
