// Package cmd implements the command-line interface for the application.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joelfokou/cozewf/internal/config"
	"github.com/joelfokou/cozewf/internal/logger"
	"github.com/joelfokou/cozewf/internal/prompt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose    bool
	logLevel   string
	configFile string

	// cfg is populated before any command runs.
	cfg *config.Config

	rootOpts invokeOptions
)

var rootCmd = &cobra.Command{
	Use:   "cozewf [topic...]",
	Short: "cozewf - run a Coze workflow from the command line",
	Long: `cozewf triggers a single run of a remote Coze workflow.

The arguments are joined into a topic and sent as {"topic": "..."}. If the
input is a JSON object it is sent verbatim as the workflow parameters. With no
arguments the topic is read interactively.

A topic starting with a command name (history, init, help, completion) must
follow "--" to be sent as a topic.

The bearer token is read from COZE_API_TOKEN and the target workflow from
COZE_WORKFLOW_ID (default: ` + config.DefaultWorkflowID + `).`,
	Example: `  cozewf new running shoe promotion
  cozewf '{"topic": "spring sale", "duration": 30}'
  cozewf --params-file params.toml
  cozewf -- history of tea
  echo "spring sale" | cozewf`,
	Version: "0.1.0", // Set this from build flags
	Args:    cobra.ArbitraryArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return invokeWorkflow(cmd.Context(), cfg, rootOpts, args, prompt.Default(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// helpCmd replaces cobra's help command, which prints usage and succeeds
// for unknown topics.
var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Help about any command",
	RunE: func(cmd *cobra.Command, args []string) error {
		target, rest, err := cmd.Root().Find(args)
		if err != nil || len(rest) > 0 {
			return topicHint(cmd.Root(), append([]string{cmd.Name()}, args...))
		}
		return target.Help()
	},
}

// noArgsOrTopic rejects arguments on subcommands and points at the "--" form
// for topics that begin with a command name.
func noArgsOrTopic(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	words := strings.Fields(cmd.CommandPath())[1:]
	return topicHint(cmd.Root(), append(words, args...))
}

func topicHint(root *cobra.Command, words []string) error {
	topic := strings.Join(words, " ")
	return fmt.Errorf("unknown command %q; to send it as a topic run: %s -- %s", topic, root.Name(), topic)
}

// reportedError marks a failure whose details were already written to stderr.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// Execute runs the root command. Every failure exits with status 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		logger.Sync()
		os.Exit(1)
	}
}

// initConfig loads configuration and initialises the logger.
func initConfig(cmd *cobra.Command) error {
	c, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// The --log-level flag wins over the config file.
	level := c.LogLevel
	if cmd.Flags().Changed("log-level") || level == "" {
		level = logLevel
	}
	if verbose {
		level = "debug"
	}

	if err := logger.Init(logger.Config{
		Level:      level,
		Format:     "console",
		OutputFile: c.Paths.LogsFile,
	}); err != nil {
		return fmt.Errorf("failed to initialise logger: %w", err)
	}

	cfg = c

	logger.L().Debug("configuration loaded",
		zap.String("config_path", configFile),
		zap.String("workflow_id", c.WorkflowID),
		zap.String("endpoint", c.Endpoint),
		zap.Bool("token_set", c.APIToken != ""),
	)
	logger.L().Debug("logger initialised", zap.String("level", level))
	return nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (overrides defaults)")

	rootCmd.Flags().StringVarP(&rootOpts.ParamsFile, "params-file", "f", "", "Read parameters from a .json or .toml file")
	rootCmd.Flags().StringVarP(&rootOpts.ParamKey, "param-key", "k", "", "Parameter name used to wrap free text (default \"topic\")")
	rootCmd.Flags().StringVarP(&rootOpts.WorkflowID, "workflow", "w", "", "Workflow id (overrides COZE_WORKFLOW_ID)")
	rootCmd.Flags().BoolVar(&rootOpts.DryRun, "dry-run", false, "Print the request payload without calling the API")
	rootCmd.Flags().BoolVar(&rootOpts.JSON, "json", false, "Output in JSON format")
	rootCmd.Flags().BoolVar(&rootOpts.Record, "record", false, "Record this call in the local history")

	rootCmd.SetHelpCommand(helpCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = false
}
