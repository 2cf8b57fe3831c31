package schema

import "slices"

// Compare computes the structured diff between the remote and local schema
// of the same table. A nil local means the table is missing locally: the
// diff is flagged MissingTable with all categories empty, since the table
// needs full creation rather than column-level patching. Compare performs
// no mutation and knows nothing about connections.
func Compare(remote, local *TableSchema) SchemaDiff {
	var diff SchemaDiff
	if local == nil {
		diff.MissingTable = true
		return diff
	}

	localCols := make(map[string]ColumnDef, len(local.Columns))
	for _, c := range local.Columns {
		localCols[c.Name] = c
	}
	remoteCols := make(map[string]ColumnDef, len(remote.Columns))
	for _, c := range remote.Columns {
		remoteCols[c.Name] = c
	}

	for _, rc := range remote.Columns {
		lc, ok := localCols[rc.Name]
		if !ok {
			diff.MissingColumns = append(diff.MissingColumns, rc)
			continue
		}
		if rc.Type != lc.Type {
			diff.TypeMismatches = append(diff.TypeMismatches, ColumnMismatch{
				Column: rc.Name, Remote: rc.Type, Local: lc.Type,
			})
		}
		if rc.Nullable != lc.Nullable {
			diff.NullMismatches = append(diff.NullMismatches, ColumnMismatch{
				Column: rc.Name, Remote: nullableString(rc.Nullable), Local: nullableString(lc.Nullable),
			})
		}
		if rc.Default != lc.Default {
			diff.DefaultMismatches = append(diff.DefaultMismatches, ColumnMismatch{
				Column: rc.Name, Remote: defaultString(rc), Local: defaultString(lc),
			})
		}
	}
	for _, lc := range local.Columns {
		if _, ok := remoteCols[lc.Name]; !ok {
			diff.ExtraColumns = append(diff.ExtraColumns, lc)
		}
	}

	// Primary keys are compared as ordered lists: column order is
	// position-sensitive for composite keys, so an order change is a real
	// structural difference.
	if !slices.Equal(remote.PrimaryKey, local.PrimaryKey) {
		diff.PrimaryKeyDiff = &KeyDiff{Remote: remote.PrimaryKey, Local: local.PrimaryKey}
	}

	remoteOnly, localOnly := foreignKeySetDiff(remote.ForeignKeys, local.ForeignKeys)
	if len(remoteOnly) > 0 || len(localOnly) > 0 {
		diff.ForeignKeyDiff = &ForeignKeyDiff{RemoteOnly: remoteOnly, LocalOnly: localOnly}
	}

	return diff
}

// foreignKeySetDiff compares foreign keys as sets of
// (column, referenced table, referenced column) triples.
func foreignKeySetDiff(remote, local []ForeignKeyRef) (remoteOnly, localOnly []ForeignKeyRef) {
	localSet := make(map[ForeignKeyRef]struct{}, len(local))
	for _, fk := range local {
		localSet[fk] = struct{}{}
	}
	remoteSet := make(map[ForeignKeyRef]struct{}, len(remote))
	for _, fk := range remote {
		remoteSet[fk] = struct{}{}
	}
	for _, fk := range remote {
		if _, ok := localSet[fk]; !ok {
			remoteOnly = append(remoteOnly, fk)
		}
	}
	for _, fk := range local {
		if _, ok := remoteSet[fk]; !ok {
			localOnly = append(localOnly, fk)
		}
	}
	return remoteOnly, localOnly
}

func nullableString(nullable bool) string {
	if nullable {
		return "NULL"
	}
	return "NOT NULL"
}

func defaultString(c ColumnDef) string {
	if !c.Default.Valid {
		return "<none>"
	}
	return c.Default.String
}
