package invoker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/joelfokou/cozewf/internal/apperror"
	"github.com/joelfokou/cozewf/internal/config"
	"github.com/joelfokou/cozewf/internal/params"
)

func testConfig(endpoint string) *config.Config {
	return &config.Config{
		APIToken:   "test-token",
		WorkflowID: config.DefaultWorkflowID,
		Endpoint:   endpoint,
		ParamKey:   config.DefaultParamKey,
	}
}

func TestInvokeSuccess(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("auth = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content-type = %q", r.Header.Get("Content-Type"))
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["workflow_id"] != config.DefaultWorkflowID {
			t.Errorf("workflow_id = %v", body["workflow_id"])
		}
		p, ok := body["parameters"].(map[string]any)
		if !ok || p["topic"] != "spring sale" {
			t.Errorf("parameters = %v", body["parameters"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}))
	defer server.Close()

	inv, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatal(err)
	}

	res, err := inv.Invoke(context.Background(), params.Params{"topic": "spring sale"})
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("status = %d", res.StatusCode)
	}
	if res.Body != `{"result":"ok"}` {
		t.Errorf("body = %q", res.Body)
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d, want 1", hits.Load())
	}
}

func TestInvokeRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer server.Close()

	inv, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatal(err)
	}

	_, err = inv.Invoke(context.Background(), params.Params{"topic": "x"})

	var remoteErr *apperror.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected RemoteError, got %T: %v", err, err)
	}
	if remoteErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", remoteErr.StatusCode)
	}
	if remoteErr.Body != `{"error":"unauthorized"}` {
		t.Errorf("body = %q", remoteErr.Body)
	}

	var transportErr *apperror.TransportError
	if errors.As(err, &transportErr) {
		t.Error("remote error must not be a transport error")
	}
}

func TestInvokeDoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("busy"))
	}))
	defer server.Close()

	inv, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := inv.Invoke(context.Background(), params.Params{"topic": "x"}); err == nil {
		t.Fatal("expected error")
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d, want 1", hits.Load())
	}
}

func TestInvokeTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	inv, err := New(testConfig(url))
	if err != nil {
		t.Fatal(err)
	}

	_, err = inv.Invoke(context.Background(), params.Params{"topic": "x"})

	var transportErr *apperror.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	var remoteErr *apperror.RemoteError
	if errors.As(err, &remoteErr) {
		t.Error("connection failure must not be a remote error")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestInvokeWithHTTPClient(t *testing.T) {
	var calls atomic.Int32
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, errors.New("dial tcp: connection reset")
	})}

	c := testConfig("http://workflow.invalid/run")
	c.WorkflowID = "wf-custom"
	inv, err := New(c, WithHTTPClient(client))
	if err != nil {
		t.Fatal(err)
	}
	if inv.WorkflowID() != "wf-custom" {
		t.Errorf("workflow id = %s", inv.WorkflowID())
	}

	_, err = inv.Invoke(context.Background(), params.Params{"topic": "spring"})
	var transportErr *apperror.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestInvokeInvalidUTF8Body(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0xff, 0xfe, 0xfd})
	}))
	defer server.Close()

	inv, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatal(err)
	}

	_, err = inv.Invoke(context.Background(), params.Params{"topic": "x"})

	var transportErr *apperror.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
}

func TestNewRequiresToken(t *testing.T) {
	for _, token := range []string{"", "   "} {
		cfg := testConfig("http://127.0.0.1:0")
		cfg.APIToken = token

		inv, err := New(cfg)
		if inv != nil {
			t.Errorf("token %q: expected no invoker", token)
		}
		if !apperror.IsConfig(err) {
			t.Errorf("token %q: expected config error, got %v", token, err)
		}
		if !errors.Is(err, apperror.ErrMissingToken) {
			t.Errorf("token %q: expected ErrMissingToken, got %v", token, err)
		}
	}

	if _, err := New(nil); !apperror.IsConfig(err) {
		t.Errorf("nil config: expected config error, got %v", err)
	}
}

func TestPayloadEncode(t *testing.T) {
	inv, err := New(testConfig("http://example.invalid"))
	if err != nil {
		t.Fatal(err)
	}

	data, err := inv.Payload(params.Params{"topic": "<春节>"}).Encode()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"workflow_id":"video-script-generator-001","parameters":{"topic":"<春节>"}}`
	if string(data) != want {
		t.Errorf("payload = %s, want %s", data, want)
	}

	data, err = inv.Payload(nil).Encode()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"workflow_id":"video-script-generator-001","parameters":{}}` {
		t.Errorf("payload = %s", data)
	}
}
