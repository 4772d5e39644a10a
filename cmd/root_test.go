package cmd

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joelfokou/cozewf/internal/config"
)

// executeRoot runs the root command with an isolated environment.
func executeRoot(t *testing.T, endpoint string, args ...string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("COZE_API_TOKEN", "test-token")
	t.Setenv("COZE_WORKFLOW_ID", "")
	t.Setenv("COZE_ENDPOINT", endpoint)
	t.Setenv("COZE_PATHS_DATABASE", filepath.Join(dir, "history.db"))

	prev := config.DotEnvFile
	config.DotEnvFile = filepath.Join(dir, ".env")
	t.Cleanup(func() { config.DotEnvFile = prev })

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootTopicNamedLikeCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		hint string
	}{
		{"history", []string{"history", "of", "tea"}, "cozewf -- history of tea"},
		{"help", []string{"help", "me"}, "cozewf -- help me"},
		{"init", []string{"init", "a", "blog"}, "cozewf -- init a blog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newWorkflowServer(t, http.StatusOK, `{"result":"ok"}`)

			_, _, err := executeRoot(t, srv.URL, tt.args...)
			if err == nil {
				t.Fatal("expected an error for a topic captured by a command")
			}
			if !strings.Contains(err.Error(), tt.hint) {
				t.Errorf("error %q does not suggest %q", err, tt.hint)
			}
			if srv.hits.Load() != 0 {
				t.Errorf("hits = %d, want 0", srv.hits.Load())
			}
		})
	}
}

func TestRootDoubleDashSendsTopic(t *testing.T) {
	srv := newWorkflowServer(t, http.StatusOK, `{"result":"ok"}`)

	stdout, _, err := executeRoot(t, srv.URL, "--", "history", "of", "tea")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(stdout, "Status: 200\n") {
		t.Errorf("stdout = %q", stdout)
	}
	if srv.hits.Load() != 1 {
		t.Errorf("hits = %d, want 1", srv.hits.Load())
	}
	if p := srv.lastParams(t); p["topic"] != "history of tea" {
		t.Errorf("parameters = %v", p)
	}
}

func TestRootHelpForCommand(t *testing.T) {
	srv := newWorkflowServer(t, http.StatusOK, `{}`)

	stdout, _, err := executeRoot(t, srv.URL, "help", "history")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "List workflow calls recorded") {
		t.Errorf("stdout = %q", stdout)
	}
	if srv.hits.Load() != 0 {
		t.Errorf("hits = %d, want 0", srv.hits.Load())
	}
}
