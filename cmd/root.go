package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/restoration-db/internal/config"
)

var (
	cfg      *config.Config
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "restoration-db",
	Short: "River restoration projects database and API",
	Long: `Manages a PostGIS database of river restoration projects, each tagged with
factors from seven categories (issues, ideas, ecology, socio-cultural,
economic, upgrading approaches and governance).

  migrate  apply the embedded schema migrations
  seed     load factor reference data from YAML
  serve    run the JSON API, including the legacy SQLite catalog
  stats    print project totals and factor usage

Settings come from config.yaml, .env files and RESTORATION_* variables.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadRuntime,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// loadRuntime reads the configuration and installs the global logger.
// --log-level overrides the configured level.
func loadRuntime(cmd *cobra.Command, _ []string) error {
	c, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "root: load config")
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}

	if err := config.InitLogger(c.Log); err != nil {
		return eris.Wrap(err, "root: init logger")
	}
	cfg = c

	zap.L().Debug("command starting", zap.String("command", cmd.CommandPath()))
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
