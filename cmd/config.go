package cmd

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"db-sync/internal/schema"
)

// EndpointConfig describes one side of the replication pair.
type EndpointConfig struct {
	Driver string
	DSN    string
	Schema string
}

// GetEndpoint loads the named endpoint block ("remote" or "local") from
// the configuration, detecting the driver from the DSN when it is not
// set explicitly. Keys are read individually so flag bindings apply
// (flag > config > default).
func GetEndpoint(name string) (*EndpointConfig, error) {
	cfg := EndpointConfig{
		Driver: viper.GetString(name + ".driver"),
		DSN:    viper.GetString(name + ".dsn"),
		Schema: viper.GetString(name + ".schema"),
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%s endpoint has no DSN (set %s.dsn or --%s-dsn)", name, name, name)
	}
	if cfg.Driver == "" {
		cfg.Driver = detectDriver(cfg.DSN)
	}
	return &cfg, nil
}

// detectDriver guesses the sql driver name from the DSN shape.
func detectDriver(dsn string) string {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "oracle://"):
		return "oracle"
	case strings.HasPrefix(lower, "sqlserver://"):
		return "sqlserver"
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"), strings.Contains(lower, "sslmode="):
		return "postgres"
	default:
		return "mysql"
	}
}

func openEndpoint(cfg *EndpointConfig, role string) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", role, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", role, err)
	}
	Logger.Info("connected", zap.String("endpoint", role), zap.String("driver", cfg.Driver))
	return db, nil
}

// resolveSchemaName turns an explicit schema setting into the name used
// in metadata queries, falling back to the connection default.
func resolveSchemaName(db *sql.DB, driver, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	switch driver {
	case "mysql":
		var name sql.NullString
		if err := db.QueryRow("SELECT DATABASE()").Scan(&name); err != nil {
			return "", err
		}
		if !name.Valid || name.String == "" {
			return "", fmt.Errorf("no default database selected; set schema in config")
		}
		return name.String, nil
	case "postgres":
		return "public", nil
	case "sqlserver":
		return "dbo", nil
	case "oracle":
		var name string
		if err := db.QueryRow("SELECT USER FROM DUAL").Scan(&name); err != nil {
			return "", err
		}
		return name, nil
	default:
		return "", fmt.Errorf("unsupported driver: %s", driver)
	}
}

// GetExclusions builds the table exclusion rules from config.
func GetExclusions() schema.Exclusions {
	return schema.NewExclusions(
		viper.GetStringSlice("exclusions.tables"),
		viper.GetStringSlice("exclusions.patterns"),
	)
}
