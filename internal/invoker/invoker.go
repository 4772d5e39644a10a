// Package invoker performs a single run of a remote Coze workflow.
package invoker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/joelfokou/cozewf/internal/apperror"
	"github.com/joelfokou/cozewf/internal/config"
	"github.com/joelfokou/cozewf/internal/logger"
	"github.com/joelfokou/cozewf/internal/params"
	"go.uber.org/zap"
)

// Payload is the request body of the workflow run endpoint.
type Payload struct {
	WorkflowID string        `json:"workflow_id"`
	Parameters params.Params `json:"parameters"`
}

// Encode serializes the payload as UTF-8 JSON.
func (p Payload) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Result is a 2xx response, relayed as raw text.
type Result struct {
	StatusCode int
	Body       string
}

// Invoker sends workflow run requests to a fixed endpoint.
type Invoker struct {
	client     *resty.Client
	endpoint   string
	workflowID string
}

// Option configures an Invoker.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New creates an Invoker from cfg. It fails with a configuration error when
// the token is missing, so no request can be built without credentials.
func New(cfg *config.Config, opts ...Option) (*Invoker, error) {
	if cfg == nil {
		return nil, apperror.Config(errors.New("configuration is required"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	client := resty.New()
	if o.httpClient != nil {
		client = resty.NewWithClient(o.httpClient)
	}

	// One attempt per invocation; resty's retry count stays at zero.
	client.
		SetRetryCount(0).
		SetAuthToken(cfg.APIToken).
		SetHeader("Content-Type", "application/json").
		SetLogger(logger.L().Sugar())
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Invoker{
		client:     client,
		endpoint:   cfg.Endpoint,
		workflowID: cfg.WorkflowID,
	}, nil
}

// WorkflowID returns the workflow the invoker targets.
func (inv *Invoker) WorkflowID() string { return inv.workflowID }

// Payload wraps p into the request body for the configured workflow.
func (inv *Invoker) Payload(p params.Params) Payload {
	if p == nil {
		p = params.Params{}
	}
	return Payload{WorkflowID: inv.workflowID, Parameters: p}
}

// Invoke performs exactly one POST. Non-2xx responses are returned as
// *apperror.RemoteError and any other failure as *apperror.TransportError.
func (inv *Invoker) Invoke(ctx context.Context, p params.Params) (*Result, error) {
	body, err := inv.Payload(p).Encode()
	if err != nil {
		return nil, &apperror.TransportError{Err: fmt.Errorf("encode payload: %w", err)}
	}

	logger.L().Debug("calling workflow",
		zap.String("workflow_id", inv.workflowID),
		zap.String("endpoint", inv.endpoint),
		zap.Int("payload_bytes", len(body)),
	)

	start := time.Now()
	resp, err := inv.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(inv.endpoint)
	if err != nil {
		logger.L().Debug("workflow request failed", zap.String("workflow_id", inv.workflowID), zap.Error(err))
		return nil, &apperror.TransportError{Err: err}
	}

	raw := resp.Body()
	if !utf8.Valid(raw) {
		return nil, &apperror.TransportError{Err: fmt.Errorf("response body is not valid UTF-8 (status %d)", resp.StatusCode())}
	}

	logger.L().Info("workflow responded",
		zap.String("workflow_id", inv.workflowID),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)

	if !resp.IsSuccess() {
		return nil, &apperror.RemoteError{StatusCode: resp.StatusCode(), Body: string(raw)}
	}

	return &Result{StatusCode: resp.StatusCode(), Body: string(raw)}, nil
}
