package engine

// Stats accumulates run-wide counters. Created at orchestration start,
// mutated as tables are applied, read once for the final summary. A non-zero
// Errors count is the sole success/failure signal for the run.
type Stats struct {
	TablesSynced  int
	TablesDropped int
	TablesCreated int
	RowsInserted  int
	RowsUpdated   int
	RowsDeleted   int

	// Constraint-violation skips recovered without aborting the table.
	RowsSkipped    int // inserts/updates skipped on duplicate-key or FK errors
	DeletesSkipped int // deletes skipped on FK errors

	Errors  int
	Skipped int // whole tables skipped (introspection failure, no primary key)
}

// add merges per-table counters into the run-wide stats. Table appliers
// work against a scratch Stats that is merged only after a successful
// commit, so rolled-back work never shows in the summary.
func (s *Stats) add(o *Stats) {
	s.TablesSynced += o.TablesSynced
	s.TablesDropped += o.TablesDropped
	s.TablesCreated += o.TablesCreated
	s.RowsInserted += o.RowsInserted
	s.RowsUpdated += o.RowsUpdated
	s.RowsDeleted += o.RowsDeleted
	s.RowsSkipped += o.RowsSkipped
	s.DeletesSkipped += o.DeletesSkipped
	s.Errors += o.Errors
	s.Skipped += o.Skipped
}
