package cmd

import (
	"bufio"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"db-sync/internal/dialect"
	"db-sync/internal/engine"
)

var (
	syncDryRun       bool
	syncDropRecreate bool
	syncYes          bool
	syncFKOrder      bool
	syncTestConn     bool
	syncBatchSize    int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replicate remote tables into the local database",
	Long: `Replicates every non-excluded remote table into the local database.

The default strategy diffs rows by primary key and applies only the
difference (insert, update, delete). With --drop-recreate each local
table is dropped and rebuilt from the remote definition instead, and
all rows are bulk-copied.`,
	RunE: runSync,
}

func init() {
	RootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "report planned changes without applying them")
	syncCmd.Flags().BoolVar(&syncDropRecreate, "drop-recreate", false, "drop and rebuild local tables instead of diffing")
	syncCmd.Flags().BoolVarP(&syncYes, "yes", "y", false, "skip the confirmation prompt")
	syncCmd.Flags().BoolVar(&syncFKOrder, "fk-order", false, "sync tables in foreign key dependency order")
	syncCmd.Flags().BoolVar(&syncTestConn, "test-connection", false, "verify connectivity and table counts, then exit")
	syncCmd.Flags().IntVar(&syncBatchSize, "batch-size", 0, "rows per insert batch in drop-recreate mode")

	viper.BindPFlag("settings.order_by_dependencies", syncCmd.Flags().Lookup("fk-order"))
}

func runSync(cmd *cobra.Command, args []string) error {
	d := dialect.GetDialect(DriverName)

	if syncTestConn {
		return testConnections(d)
	}

	mode := engine.ModeIncremental
	if syncDropRecreate {
		mode = engine.ModeDropRecreate
	}

	if !syncDryRun && !syncYes && viper.GetBool("settings.require_confirmation") {
		if !confirmSync(mode) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	batchSize := syncBatchSize
	if batchSize <= 0 {
		batchSize = viper.GetInt("settings.batch_size")
	}

	opts := engine.Options{
		RemoteSchema:        RemoteSchema,
		LocalSchema:         LocalSchema,
		Mode:                mode,
		DryRun:              syncDryRun,
		DisableFKChecks:     viper.GetBool("settings.disable_foreign_key_checks"),
		OrderByDependencies: viper.GetBool("settings.order_by_dependencies"),
		BatchSize:           batchSize,
		Exclusions:          GetExclusions(),
		Logger:              Logger,
	}

	var bar *uiprogress.Bar
	current := ""
	opts.OnTable = func(table string, index, total int) {
		if bar == nil {
			uiprogress.Start()
			bar = uiprogress.AddBar(total).AppendCompleted().PrependElapsed()
			bar.PrependFunc(func(b *uiprogress.Bar) string {
				return fmt.Sprintf("%-24.24s", current)
			})
		}
		current = table
		bar.Set(index - 1)
	}

	stats, err := engine.Run(RemoteDB, LocalDB, d, opts)
	if bar != nil {
		bar.Set(bar.Total)
		uiprogress.Stop()
	}
	if err != nil {
		return err
	}

	printSummary(stats, mode, syncDryRun)
	if stats.Errors > 0 {
		return fmt.Errorf("sync finished with %d table error(s)", stats.Errors)
	}
	return nil
}

// confirmSync prints what is about to happen and asks for a y/N answer on
// stdin.
func confirmSync(mode engine.Mode) bool {
	fmt.Println()
	fmt.Printf("  Remote: %s (schema %s)\n", DriverName, RemoteSchema)
	fmt.Printf("  Local:  %s (schema %s)\n", DriverName, LocalSchema)
	if mode == engine.ModeDropRecreate {
		fmt.Println("  Mode:   drop-recreate (local tables will be DROPPED and rebuilt)")
	} else {
		fmt.Println("  Mode:   incremental (insert/update/delete by primary key)")
	}
	fmt.Print("\nContinue? (y/N): ")

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// testConnections counts base tables on both sides and exits without
// touching any data.
func testConnections(d dialect.Dialect) error {
	remoteCount, err := countTables(RemoteDB, d, RemoteSchema)
	if err != nil {
		return fmt.Errorf("remote connection test failed: %w", err)
	}
	localCount, err := countTables(LocalDB, d, LocalSchema)
	if err != nil {
		return fmt.Errorf("local connection test failed: %w", err)
	}
	fmt.Printf("Remote OK: %d table(s) in schema %s\n", remoteCount, RemoteSchema)
	fmt.Printf("Local OK:  %d table(s) in schema %s\n", localCount, LocalSchema)
	return nil
}

func countTables(db *sql.DB, d dialect.Dialect, schemaName string) (int, error) {
	rows, err := db.Query(d.TablesQuery(), d.GetSchemaName(schemaName))
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
	}
	return count, rows.Err()
}

func printSummary(stats *engine.Stats, mode engine.Mode, dryRun bool) {
	fmt.Println()
	if dryRun {
		fmt.Println("=== Dry run summary (no changes applied) ===")
	} else {
		fmt.Println("=== Sync summary ===")
	}
	if mode == engine.ModeDropRecreate {
		fmt.Printf("  Tables dropped:   %d\n", stats.TablesDropped)
		fmt.Printf("  Tables created:   %d\n", stats.TablesCreated)
	} else {
		fmt.Printf("  Tables synced:    %d\n", stats.TablesSynced)
		fmt.Printf("  Tables created:   %d\n", stats.TablesCreated)
	}
	fmt.Printf("  Rows inserted:    %d\n", stats.RowsInserted)
	if mode == engine.ModeIncremental {
		fmt.Printf("  Rows updated:     %d\n", stats.RowsUpdated)
		fmt.Printf("  Rows deleted:     %d\n", stats.RowsDeleted)
		fmt.Printf("  Rows skipped:     %d\n", stats.RowsSkipped)
		fmt.Printf("  Deletes skipped:  %d\n", stats.DeletesSkipped)
	}
	fmt.Printf("  Tables skipped:   %d\n", stats.Skipped)
	fmt.Printf("  Errors:           %d\n", stats.Errors)
}
