package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cognicore/horn/pkg/horn"
	"github.com/cognicore/horn/pkg/horn/config"
	"github.com/cognicore/horn/pkg/horn/inference/backward"
	"github.com/cognicore/horn/pkg/horn/store"
	"github.com/cognicore/horn/pkg/horn/store/memstore"
	"github.com/cognicore/horn/pkg/horn/store/sqlite"
)

var (
	// Global flags
	cfgFile  string
	envFile  string
	verbose  bool
	dbPath   string
	maxDepth int

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "horn",
	Short: "Answer yes/no queries against a Horn-clause knowledge base",
	Long: `horn proves ground queries against facts and rules by backward chaining.

Input files list the queries first and the knowledge base second:

  2
  Ancestor(Tom,Bob)
  Ancestor(Bob,Tom)
  2
  Parent(Tom,Bob)
  Parent(x,y) => Ancestor(x,y)

Arguments starting with an uppercase letter are constants, all others are
variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loader := config.Loader{Path: cfgFile, EnvFile: envFile}
		var err error
		cfg, err = loader.Load()
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Store.Driver = config.DriverSQLite
			cfg.Store.Path = dbPath
		}
		if cmd.Flags().Changed("max-depth") {
			cfg.Engine.MaxDepth = maxDepth
		}

		// Initialize logger
		zcfg := zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel())
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional .env file with HORN_* overrides")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database for run history (overrides store config)")
	rootCmd.PersistentFlags().IntVar(&maxDepth, "max-depth", backward.DefaultMaxDepth, "Proof depth limit (negative disables)")

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the run store selected by the configuration; nil means
// runs are not persisted.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		st, err := sqlite.OpenSQLite(ctx, cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open store %s: %w", cfg.Store.Path, err)
		}
		return st, nil
	case config.DriverMemory:
		return memstore.New(), nil
	default:
		return nil, nil
	}
}

// newHorn builds a knowledge base wired to the configured store and logger.
func newHorn(ctx context.Context) (*horn.Horn, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	return horn.New(horn.Options{
		Store:  st,
		Logger: logger,
		Engine: engineOptions(),
	}), nil
}

func engineOptions() backward.Options {
	return backward.Options{MaxDepth: cfg.Engine.MaxDepth, Logger: logger.Named("engine")}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
