package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joelfokou/cozewf/internal/apperror"
	"github.com/joelfokou/cozewf/internal/config"
	"github.com/joelfokou/cozewf/internal/history"
	"github.com/joelfokou/cozewf/internal/invoker"
	"github.com/joelfokou/cozewf/internal/logger"
	"github.com/joelfokou/cozewf/internal/params"
	"github.com/joelfokou/cozewf/internal/prompt"
	"go.uber.org/zap"
)

// invokeOptions holds the per-call flags of the root command.
type invokeOptions struct {
	ParamsFile string
	ParamKey   string
	WorkflowID string
	DryRun     bool
	JSON       bool
	Record     bool
}

// outcomeOutput is the --json rendering of a call outcome.
type outcomeOutput struct {
	WorkflowID string `json:"workflow_id"`
	OK         bool   `json:"ok"`
	Status     int    `json:"status,omitempty"`
	Body       string `json:"body,omitempty"`
	Error      string `json:"error,omitempty"`
}

// invokeWorkflow runs one request/response cycle: resolve configuration,
// build parameters, call the API once and report the outcome. Success goes to
// stdout, every failure to stderr.
func invokeWorkflow(ctx context.Context, base *config.Config, opts invokeOptions, args []string, asker prompt.Asker, stdout, stderr io.Writer) error {
	if base == nil {
		return apperror.Config(errors.New("configuration is not loaded"))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c := *base
	if opts.WorkflowID != "" {
		c.WorkflowID = opts.WorkflowID
	}
	if opts.ParamKey != "" {
		c.ParamKey = opts.ParamKey
	}

	// Credentials are checked before reading any input.
	var inv *invoker.Invoker
	if !opts.DryRun {
		var err error
		if inv, err = invoker.New(&c); err != nil {
			logger.L().Debug("invalid configuration", zap.Error(err))
			return err
		}
	}

	p, err := resolveParams(c.ParamKey, opts.ParamsFile, args, asker)
	if err != nil {
		logger.L().Debug("invalid input", zap.Error(err))
		return err
	}

	formatted, err := params.Format(p)
	if err != nil {
		return err
	}
	fmt.Fprintf(stderr, "Calling workflow: %s\n", c.WorkflowID)
	fmt.Fprintf(stderr, "parameters: %s\n", formatted)

	if opts.DryRun {
		return printDryRun(stdout, invoker.Payload{WorkflowID: c.WorkflowID, Parameters: p})
	}

	startedAt := time.Now()
	res, callErr := inv.Invoke(ctx, p)
	endedAt := time.Now()

	if opts.Record || c.History.Enabled {
		recordInvocation(stderr, &c, p, res, callErr, startedAt, endedAt)
	}

	return reportOutcome(c.WorkflowID, opts.JSON, res, callErr, stdout, stderr)
}

// resolveParams picks the parameter source: a file, the joined arguments, or a prompt.
func resolveParams(key, paramsFile string, args []string, asker prompt.Asker) (params.Params, error) {
	if paramsFile != "" {
		if len(args) > 0 {
			return nil, apperror.Validation(errors.New("cannot combine --params-file with topic arguments"))
		}
		return params.LoadFile(paramsFile)
	}

	var raw string
	if len(args) > 0 {
		raw = strings.Join(args, " ")
	} else {
		if asker == nil {
			return nil, apperror.Validation(apperror.ErrEmptyInput)
		}
		answer, err := asker.Ask(prompt.TopicLabel)
		if err != nil {
			return nil, apperror.Validation(err)
		}
		raw = answer
	}

	return params.Build(raw, key)
}

// reportOutcome prints the outcome and converts failures into a reportedError.
func reportOutcome(workflowID string, asJSON bool, res *invoker.Result, callErr error, stdout, stderr io.Writer) error {
	var remoteErr *apperror.RemoteError

	switch {
	case callErr == nil:
		if asJSON {
			return writeJSON(stdout, outcomeOutput{WorkflowID: workflowID, OK: true, Status: res.StatusCode, Body: res.Body})
		}
		fmt.Fprintf(stdout, "Status: %d\n", res.StatusCode)
		fmt.Fprintf(stdout, "Response: %s\n", res.Body)
		return nil

	case errors.As(callErr, &remoteErr):
		logger.L().Info("workflow returned an error status",
			zap.String("workflow_id", workflowID),
			zap.Int("status", remoteErr.StatusCode),
		)
		if asJSON {
			_ = writeJSON(stderr, outcomeOutput{WorkflowID: workflowID, Status: remoteErr.StatusCode, Body: remoteErr.Body, Error: "remote_error"})
		} else {
			fmt.Fprintf(stderr, "Status: %d\n", remoteErr.StatusCode)
			fmt.Fprintf(stderr, "Response: %s\n", remoteErr.Body)
		}

	default:
		msg := callErr.Error()
		var transportErr *apperror.TransportError
		if !errors.As(callErr, &transportErr) {
			msg = (&apperror.TransportError{Err: callErr}).Error()
		}
		if asJSON {
			_ = writeJSON(stderr, outcomeOutput{WorkflowID: workflowID, Error: msg})
		} else {
			fmt.Fprintln(stderr, msg)
		}
	}

	return &reportedError{err: callErr}
}

// recordInvocation stores the call in the history database. Failing to record
// never changes the outcome of the call.
func recordInvocation(stderr io.Writer, c *config.Config, p params.Params, res *invoker.Result, callErr error, startedAt, endedAt time.Time) {
	paramsJSON, err := json.Marshal(p)
	if err != nil {
		paramsJSON = []byte("{}")
	}

	rec := &history.Invocation{
		WorkflowID: c.WorkflowID,
		Endpoint:   c.Endpoint,
		Parameters: string(paramsJSON),
		StartedAt:  startedAt,
		EndedAt:    endedAt,
	}
	classifyInvocation(rec, res, callErr)

	store, err := history.NewStore(c.Paths.Database)
	if err != nil {
		logger.L().Warn("failed to open history store", zap.String("path", c.Paths.Database), zap.Error(err))
		fmt.Fprintf(stderr, "warning: call not recorded: %v\n", err)
		return
	}
	defer store.Close()

	if err := store.Save(rec); err != nil {
		logger.L().Warn("failed to record invocation", zap.Error(err))
		fmt.Fprintf(stderr, "warning: call not recorded: %v\n", err)
		return
	}
	logger.L().Debug("invocation recorded", zap.String("id", rec.ID), zap.String("outcome", string(rec.Outcome)))
}

// classifyInvocation fills the outcome fields of rec.
func classifyInvocation(rec *history.Invocation, res *invoker.Result, callErr error) {
	var remoteErr *apperror.RemoteError

	switch {
	case callErr == nil:
		rec.Outcome = history.OutcomeSuccess
		rec.StatusCode.Int64, rec.StatusCode.Valid = int64(res.StatusCode), true
		rec.Body.String, rec.Body.Valid = res.Body, true
	case errors.As(callErr, &remoteErr):
		rec.Outcome = history.OutcomeRemoteError
		rec.StatusCode.Int64, rec.StatusCode.Valid = int64(remoteErr.StatusCode), true
		rec.Body.String, rec.Body.Valid = remoteErr.Body, true
	default:
		rec.Outcome = history.OutcomeTransportError
		rec.Error.String, rec.Error.Valid = callErr.Error(), true
	}
}

// printDryRun writes the payload that would be sent.
func printDryRun(w io.Writer, payload invoker.Payload) error {
	fmt.Fprint(w, "========== DRY RUN MODE ==========\n\n")
	if err := writeJSON(w, payload); err != nil {
		return fmt.Errorf("failed to marshal payload to JSON: %w", err)
	}
	fmt.Fprintln(w, "\nNo request was sent.")
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
