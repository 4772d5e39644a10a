package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joelfokou/cozewf/internal/config"
	"github.com/joelfokou/cozewf/internal/history"
	"github.com/joelfokou/cozewf/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// initCmd writes the default config file if none exists and prepares the history database.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file and history database",
	Long:  "Write a default config file (never overwriting an existing one) and initialise the SQLite history database",
	Args:  noArgsOrTopic,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := cfg.Paths.Database
		store, err := history.NewStore(dbPath)
		if err != nil {
			logger.L().Error("failed to initialise database", zap.String("path", dbPath), zap.Error(err))
			return fmt.Errorf("failed to initialise database: %w", err)
		}
		store.Close()

		cfgFile := configFile
		if cfgFile == "" {
			if cfgFile, err = config.ConfigFile(); err != nil {
				return fmt.Errorf("%w; pass --config to choose a location", err)
			}
		}
		cfgDir := filepath.Dir(cfgFile)

		if err := os.MkdirAll(cfgDir, 0755); err != nil {
			logger.L().Error("failed to create configuration directory", zap.String("path", cfgDir), zap.Error(err))
			return fmt.Errorf("failed to create configuration directory: %w", err)
		}

		if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
			if err := os.WriteFile(cfgFile, []byte(config.DefaultConfig()), 0644); err != nil {
				logger.L().Error("failed to write config file", zap.String("path", cfgFile), zap.Error(err))
				return fmt.Errorf("failed to write config file: %w", err)
			}
			logger.L().Info("config file created", zap.String("path", cfgFile))
		} else {
			logger.L().Info("config file already exists, skipping creation", zap.String("path", cfgFile))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "✓ cozewf initialised")
		fmt.Fprintf(out, "  Config file: %s\n", cfgFile)
		fmt.Fprintf(out, "  Database:    %s\n", dbPath)
		fmt.Fprintln(out, "\nSet COZE_API_TOKEN in your environment or in a .env file before calling a workflow.")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
