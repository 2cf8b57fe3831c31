package engine

import (
	"fmt"
	"sort"
)

// Plan is the per-table sync plan: which row keys to insert, update and
// delete. It is computed and consumed within one table's sync, never
// persisted.
type Plan struct {
	Insert []RowKey
	Update []RowKey
	Delete []RowKey
}

// Empty reports whether the plan contains no work.
func (p Plan) Empty() bool {
	return len(p.Insert) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// Total returns the number of row operations.
func (p Plan) Total() int {
	return len(p.Insert) + len(p.Update) + len(p.Delete)
}

// Diff computes the sync plan between the remote and local row sets:
// insert = remote − local, delete = local − remote, update = keys present on
// both sides whose non-key column values differ. Diffing requires a
// non-empty primary key; callers reject key-less tables upstream.
func Diff(remote, local *RowSet) (Plan, error) {
	if len(remote.KeyColumns) == 0 {
		return Plan{}, fmt.Errorf("cannot diff %s: no primary key", remote.Table)
	}

	// Map each remote non-key column to its local position once. A column
	// set mismatch (schema drift) makes every common row an update.
	keyCols := make(map[string]bool, len(remote.KeyColumns))
	for _, k := range remote.KeyColumns {
		keyCols[k] = true
	}
	var pairs []struct{ remote, local int }
	drifted := len(remote.Columns) != len(local.Columns)
	for i, c := range remote.Columns {
		if keyCols[c] {
			continue
		}
		j, ok := local.ColumnIndex(c)
		if !ok {
			drifted = true
			continue
		}
		pairs = append(pairs, struct{ remote, local int }{i, j})
	}

	var plan Plan
	for k, rr := range remote.Rows {
		lr, ok := local.Rows[k]
		if !ok {
			plan.Insert = append(plan.Insert, k)
			continue
		}
		if drifted || !rowsEqual(rr, lr, pairs) {
			plan.Update = append(plan.Update, k)
		}
	}
	for k := range local.Rows {
		if _, ok := remote.Rows[k]; !ok {
			plan.Delete = append(plan.Delete, k)
		}
	}

	sortKeys(plan.Insert)
	sortKeys(plan.Update)
	sortKeys(plan.Delete)
	return plan, nil
}

func rowsEqual(remote, local Row, pairs []struct{ remote, local int }) bool {
	for _, p := range pairs {
		if !remote[p.remote].Equal(local[p.local]) {
			return false
		}
	}
	return true
}

func sortKeys(keys []RowKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
}
