package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile   string
	remoteDSN string
	localDSN  string

	RemoteDB     *sql.DB
	LocalDB      *sql.DB
	DriverName   string
	RemoteSchema string
	LocalSchema  string
	Logger       *zap.Logger
)

var RootCmd = &cobra.Command{
	Use:   "db-sync",
	Short: "One-way database replication: remote -> local",
	Long: `
  ____  ____    ______   ___   _  ____
 |  _ \|  _ \  / ___\ \ / / \ | |/ ___|
 | | | | |_) | \___ \\ V /|  \| | |
 | |_| |  _ <   ___) || | | |\  | |___
 |____/|_| \_\ |____/ |_| |_| \_|\____|

DB SYNC - Seed a local database with production-like data.
One-way replication from a remote store to a local store.
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		Logger, err = newLogger()
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}

		remoteCfg, err := GetEndpoint("remote")
		if err != nil {
			return err
		}
		localCfg, err := GetEndpoint("local")
		if err != nil {
			return err
		}

		// Both sides must speak the same dialect for the definition
		// statement to round-trip verbatim.
		if remoteCfg.Driver != localCfg.Driver {
			return fmt.Errorf("remote driver %q and local driver %q must match", remoteCfg.Driver, localCfg.Driver)
		}
		DriverName = remoteCfg.Driver

		RemoteDB, err = openEndpoint(remoteCfg, "remote")
		if err != nil {
			return err
		}
		LocalDB, err = openEndpoint(localCfg, "local")
		if err != nil {
			return err
		}

		RemoteSchema, err = resolveSchemaName(RemoteDB, DriverName, remoteCfg.Schema)
		if err != nil {
			return fmt.Errorf("failed to resolve remote schema name: %w", err)
		}
		LocalSchema, err = resolveSchemaName(LocalDB, DriverName, localCfg.Schema)
		if err != nil {
			return fmt.Errorf("failed to resolve local schema name: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if RemoteDB != nil {
			RemoteDB.Close()
		}
		if LocalDB != nil {
			LocalDB.Close()
		}
		if Logger != nil {
			Logger.Sync()
		}
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./db-sync.yaml)")
	RootCmd.PersistentFlags().StringVar(&remoteDSN, "remote-dsn", "", "remote database DSN")
	RootCmd.PersistentFlags().StringVar(&localDSN, "local-dsn", "", "local database DSN")

	viper.BindPFlag("remote.dsn", RootCmd.PersistentFlags().Lookup("remote-dsn"))
	viper.BindPFlag("local.dsn", RootCmd.PersistentFlags().Lookup("local-dsn"))

	viper.SetDefault("settings.batch_size", 1000)
	viper.SetDefault("settings.disable_foreign_key_checks", true)
	viper.SetDefault("settings.require_confirmation", true)
	viper.SetDefault("settings.order_by_dependencies", false)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// .env is optional; viper picks matching variables up afterwards.
	godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("db-sync")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	return cfg.Build()
}
