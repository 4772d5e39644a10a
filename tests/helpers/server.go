// Package helpers - server provides a fake workflow API for tests.
package helpers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Request is a call received by the fake workflow API.
type Request struct {
	Authorization string
	ContentType   string
	WorkflowID    string         `json:"workflow_id"`
	Parameters    map[string]any `json:"parameters"`
}

// WorkflowAPI replies to every POST with a fixed status and body.
type WorkflowAPI struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
}

func NewWorkflowAPI(t *testing.T, status int, body string) *WorkflowAPI {
	t.Helper()
	api := &WorkflowAPI{}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)

		var req Request
		_ = json.Unmarshal(data, &req)
		req.Authorization = r.Header.Get("Authorization")
		req.ContentType = r.Header.Get("Content-Type")

		api.mu.Lock()
		api.requests = append(api.requests, req)
		api.mu.Unlock()

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(api.Close)
	return api
}

// Requests returns the calls received so far.
func (api *WorkflowAPI) Requests() []Request {
	api.mu.Lock()
	defer api.mu.Unlock()
	return append([]Request(nil), api.requests...)
}

// ClosedURL returns the URL of a server that is no longer listening.
func ClosedURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}
