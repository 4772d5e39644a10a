package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/joelfokou/cozewf/internal/history"
	"github.com/joelfokou/cozewf/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	historyWorkflow string
	historyOutcome  string
	historyLimit    int
	historyOffset   int
	historyJSON     bool
)

// historyCmd lists recorded workflow calls with filtering and pagination.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded workflow calls",
	Long:  "List workflow calls recorded with --record or history.enabled, newest first",
	Args:  noArgsOrTopic,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch history.Outcome(historyOutcome) {
		case "", history.OutcomeSuccess, history.OutcomeRemoteError, history.OutcomeTransportError:
		default:
			return fmt.Errorf("unknown outcome %q (success|remote_error|transport_error)", historyOutcome)
		}

		store, err := history.NewStore(cfg.Paths.Database)
		if err != nil {
			logger.L().Error("failed to initialise history store", zap.Error(err))
			return fmt.Errorf("failed to initialise history store: %w", err)
		}
		defer store.Close()

		invs, err := store.List(historyWorkflow, history.Outcome(historyOutcome), historyLimit, historyOffset)
		if err != nil {
			logger.L().Error("failed to list invocations", zap.Error(err))
			return fmt.Errorf("failed to list invocations: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(invs) == 0 {
			fmt.Fprintln(out, "No recorded calls found")
			return nil
		}

		if historyJSON {
			return printInvocationsJSON(out, invs)
		}
		return printInvocationsTable(out, invs)
	},
}

// historyShowCmd prints one recorded call including its response body.
var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a recorded workflow call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.NewStore(cfg.Paths.Database)
		if err != nil {
			logger.L().Error("failed to initialise history store", zap.Error(err))
			return fmt.Errorf("failed to initialise history store: %w", err)
		}
		defer store.Close()

		inv, err := store.Load(args[0])
		if err != nil {
			logger.L().Error("invocation not found", zap.String("id", args[0]), zap.Error(err))
			return err
		}

		out := cmd.OutOrStdout()
		if historyJSON {
			return printInvocationsJSON(out, []*history.Invocation{inv})
		}
		printInvocation(out, inv)
		return nil
	},
}

// printInvocationsTable displays invocations in a formatted table.
func printInvocationsTable(out io.Writer, invs []*history.Invocation) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tWORKFLOW\tOUTCOME\tSTATUS\tSTARTED AT\tDURATION\n")
	fmt.Fprintf(w, "--\t--------\t-------\t------\t----------\t--------\n")

	for _, inv := range invs {
		status := "-"
		if inv.StatusCode.Valid {
			status = fmt.Sprintf("%d", inv.StatusCode.Int64)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2fs\n",
			inv.ID,
			inv.WorkflowID,
			markOutcome(inv.Outcome),
			status,
			inv.StartedAt.Format("2006-01-02 15:04:05"),
			inv.Duration().Seconds(),
		)
	}

	logger.L().Info("displayed invocations", zap.Int("count", len(invs)))

	return w.Flush()
}

// printInvocationsJSON outputs invocations in JSON format.
func printInvocationsJSON(out io.Writer, invs []*history.Invocation) error {
	for _, inv := range invs {
		data, err := history.MarshalInvocation(inv)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		fmt.Fprintln(out, buf.String())
	}
	return nil
}

// printInvocation displays every field of a single invocation.
func printInvocation(out io.Writer, inv *history.Invocation) {
	fmt.Fprintf(out, "=== Call '%s' (%s) ===\n\n", inv.ID, inv.WorkflowID)
	fmt.Fprintf(out, "Endpoint:   %s\n", inv.Endpoint)
	fmt.Fprintf(out, "Outcome:    %s\n", markOutcome(inv.Outcome))
	if inv.StatusCode.Valid {
		fmt.Fprintf(out, "Status:     %d\n", inv.StatusCode.Int64)
	}
	fmt.Fprintf(out, "Started at: %s\n", inv.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Duration:   %.2fs\n", inv.Duration().Seconds())

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(inv.Parameters), "", "  "); err != nil {
		pretty.Reset()
		pretty.WriteString(inv.Parameters)
	}
	fmt.Fprintf(out, "\nParameters:\n%s\n", pretty.String())

	if inv.Body.Valid {
		fmt.Fprintf(out, "\nResponse:\n%s\n", inv.Body.String)
	}
	if inv.Error.Valid {
		fmt.Fprintf(out, "\nError:\n%s\n", inv.Error.String)
	}
}

func markOutcome(o history.Outcome) string {
	switch o {
	case history.OutcomeSuccess:
		return "✓ " + string(o)
	case history.OutcomeRemoteError, history.OutcomeTransportError:
		return "✗ " + string(o)
	default:
		return string(o)
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyCmd.Flags().StringVarP(&historyWorkflow, "workflow", "w", "", "Filter by workflow id")
	historyCmd.Flags().StringVarP(&historyOutcome, "outcome", "s", "", "Filter by outcome (success|remote_error|transport_error)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "Limit number of results")
	historyCmd.Flags().IntVarP(&historyOffset, "offset", "o", 0, "Offset for pagination")
	historyCmd.PersistentFlags().BoolVar(&historyJSON, "json", false, "Output in JSON format")
}
