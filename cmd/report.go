package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"

	"db-sync/internal/dialect"
	"db-sync/internal/engine"
	"db-sync/internal/schema"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compare remote and local schemas and print a report",
	Long: `Compares the structure of every non-excluded remote table against its
local counterpart and prints missing tables, column mismatches, key and
foreign key differences, and the foreign key dependency graph. Nothing
is modified on either side.`,
	RunE: runReport,
}

func init() {
	RootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	d := dialect.GetDialect(DriverName)

	opts := engine.Options{
		RemoteSchema: RemoteSchema,
		LocalSchema:  LocalSchema,
		Exclusions:   GetExclusions(),
		Logger:       Logger,
	}

	var bar *uiprogress.Bar
	opts.OnTable = func(table string, index, total int) {
		if bar == nil {
			uiprogress.Start()
			bar = uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
		}
		bar.Set(index - 1)
	}

	report, err := engine.AnalyzeSchemas(RemoteDB, LocalDB, d, opts)
	if bar != nil {
		bar.Set(bar.Total)
		uiprogress.Stop()
	}
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}

func printReport(r *engine.SchemaReport) {
	fmt.Println()
	fmt.Println("=== Schema comparison report ===")
	fmt.Printf("Tables analyzed: %d\n", r.TablesAnalyzed)

	if len(r.MissingTables) > 0 {
		fmt.Printf("\nMissing in local (%d):\n", len(r.MissingTables))
		for _, t := range r.MissingTables {
			fmt.Printf("  - %s\n", t)
		}
	}

	if len(r.Mismatches) > 0 {
		fmt.Printf("\nSchema mismatches (%d):\n", len(r.Mismatches))
		for _, m := range r.Mismatches {
			fmt.Printf("  %s:\n", m.Table)
			printDiff(m.Diff)
		}
	}

	if len(r.Dependencies) > 0 {
		fmt.Printf("\nForeign key dependencies (%d table(s)):\n", len(r.Dependencies))
		tables := make([]string, 0, len(r.Dependencies))
		for t := range r.Dependencies {
			tables = append(tables, t)
		}
		sort.Strings(tables)
		for _, t := range tables {
			fmt.Printf("  %s -> %s\n", t, strings.Join(r.Dependencies[t], ", "))
		}
	}

	if len(r.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, rec := range r.Recommendations {
			fmt.Printf("  * %s\n", rec)
		}
	}

	if r.Skipped > 0 || r.Errors > 0 {
		fmt.Printf("\nSkipped: %d  Errors: %d\n", r.Skipped, r.Errors)
	}
	if len(r.MissingTables) == 0 && len(r.Mismatches) == 0 {
		fmt.Println("\nLocal schema matches remote.")
	}
}

func printDiff(d schema.SchemaDiff) {
	for _, c := range d.MissingColumns {
		fmt.Printf("    missing column %s %s\n", c.Name, c.Type)
	}
	for _, c := range d.ExtraColumns {
		fmt.Printf("    extra column %s %s\n", c.Name, c.Type)
	}
	for _, m := range d.TypeMismatches {
		fmt.Printf("    type mismatch on %s: remote %s, local %s\n", m.Column, m.Remote, m.Local)
	}
	for _, m := range d.NullMismatches {
		fmt.Printf("    nullability mismatch on %s: remote %s, local %s\n", m.Column, m.Remote, m.Local)
	}
	for _, m := range d.DefaultMismatches {
		fmt.Printf("    default mismatch on %s: remote %s, local %s\n", m.Column, m.Remote, m.Local)
	}
	if d.PrimaryKeyDiff != nil {
		fmt.Printf("    primary key mismatch: remote (%s), local (%s)\n",
			strings.Join(d.PrimaryKeyDiff.Remote, ", "), strings.Join(d.PrimaryKeyDiff.Local, ", "))
	}
	if d.ForeignKeyDiff != nil {
		for _, fk := range d.ForeignKeyDiff.RemoteOnly {
			fmt.Printf("    foreign key only on remote: %s -> %s(%s)\n", fk.Column, fk.RefTable, fk.RefColumn)
		}
		for _, fk := range d.ForeignKeyDiff.LocalOnly {
			fmt.Printf("    foreign key only on local: %s -> %s(%s)\n", fk.Column, fk.RefTable, fk.RefColumn)
		}
	}
}
