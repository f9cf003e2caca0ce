package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filebridge/internal/tools"
	"filebridge/internal/version"
)

const testAPIKey = "cli-test-key"

func newFakeFilesAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("GET /v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"files":[
			{"name":"files/one","displayName":"one.txt","mimeType":"text/plain","sizeBytes":"3","state":"ACTIVE","uri":"https://example.test/files/one"},
			{"name":"files/two","displayName":"two.png","mimeType":"image/png","state":"PROCESSING"}
		]}`)
	})
	mux.HandleFunc("POST /upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Goog-Upload-URL", srv.URL+"/upload/session")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /upload/session", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"file": map[string]any{
			"name":      "files/up1",
			"mimeType":  r.Header.Get("Content-Type"),
			"sizeBytes": len(body),
			"state":     "ACTIVE",
			"uri":       "https://example.test/files/up1",
		}})
	})
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != testAPIKey {
			http.Error(w, `{"error":{"code":403,"message":"bad key","status":"PERMISSION_DENIED"}}`, http.StatusForbidden)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// setupEnv points the CLI at a fake API and an isolated workspace.
func setupEnv(t *testing.T, baseURL string) string {
	t.Helper()
	workspace := t.TempDir()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))
	t.Setenv("GOOGLE_GENAI_USE_VERTEXAI", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("FILEBRIDGE_API_KEY", testAPIKey)
	t.Setenv("FILEBRIDGE_BASE_URL", baseURL)
	t.Setenv("FILEBRIDGE_WORKSPACE_DIRS", workspace)
	t.Setenv("FILEBRIDGE_TEMP_DIR", filepath.Join(home, "tmp"))
	t.Setenv("FILEBRIDGE_REMOTE_RETRY_MAX", "0")
	return workspace
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionFlag(t *testing.T) {
	out, _, err := execute(t, "", "--version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, version.Version) {
		t.Fatalf("expected version in output, got %q", out)
	}
}

func TestToolsCommandJSON(t *testing.T) {
	srv := newFakeFilesAPI(t)
	setupEnv(t, srv.URL)

	out, _, err := execute(t, "", "tools", "--output", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var defs []tools.Definition
	if err := json.Unmarshal([]byte(out), &defs); err != nil {
		t.Fatalf("invalid json output: %v\n%s", err, out)
	}
	var names []string
	for _, def := range defs {
		names = append(names, def.Name)
	}
	want := []string{tools.DownloadToolName, tools.ListToolName, tools.UploadToolName}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, names)
	}
}

func TestListCommand(t *testing.T) {
	srv := newFakeFilesAPI(t)
	setupEnv(t, srv.URL)

	out, _, err := execute(t, "", "list", "--quiet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Found 2 file(s)") {
		t.Fatalf("unexpected output: %s", out)
	}
	if strings.Index(out, "files/one") > strings.Index(out, "files/two") {
		t.Fatalf("expected producer order, got %s", out)
	}
}

func TestUploadCommand(t *testing.T) {
	srv := newFakeFilesAPI(t)
	workspace := setupEnv(t, srv.URL)
	path := filepath.Join(workspace, "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	out, _, err := execute(t, "", "upload", path, "--output", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var record struct {
		Status string       `json:"status"`
		Result tools.Result `json:"result"`
	}
	if err := json.Unmarshal([]byte(out), &record); err != nil {
		t.Fatalf("invalid json output: %v\n%s", err, out)
	}
	if record.Status != "success" {
		t.Fatalf("expected success, got %s: %+v", record.Status, record.Result)
	}
	if !strings.HasPrefix(record.Result.LLMContent, "Successfully uploaded file") {
		t.Fatalf("unexpected content: %s", record.Result.LLMContent)
	}
	if !strings.Contains(record.Result.LLMContent, "5 bytes") {
		t.Fatalf("expected size in content: %s", record.Result.LLMContent)
	}
}

func TestCallReportsValidationFailure(t *testing.T) {
	srv := newFakeFilesAPI(t)
	setupEnv(t, srv.URL)

	out, _, err := execute(t, "", "call", tools.UploadToolName, `{"absolute_path":"relative.txt"}`)
	if !errors.Is(err, errToolFailed) {
		t.Fatalf("expected errToolFailed, got %v", err)
	}
	if !strings.Contains(out, "must be absolute") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestCallUnknownTool(t *testing.T) {
	srv := newFakeFilesAPI(t)
	setupEnv(t, srv.URL)

	out, _, err := execute(t, "", "call", "delete_everything")
	if !errors.Is(err, errToolFailed) {
		t.Fatalf("expected errToolFailed, got %v", err)
	}
	if !strings.Contains(out, "not found") || !strings.Contains(out, tools.ListToolName) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestVertexModeMakesToolsUnavailable(t *testing.T) {
	srv := newFakeFilesAPI(t)
	setupEnv(t, srv.URL)

	out, _, err := execute(t, "", "list", "--auth-type", "vertex-ai")
	if !errors.Is(err, errToolFailed) {
		t.Fatalf("expected errToolFailed, got %v", err)
	}
	if !strings.Contains(out, "not available") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestBatchFromStdin(t *testing.T) {
	srv := newFakeFilesAPI(t)
	setupEnv(t, srv.URL)

	input := `[{"name":"list_files","arguments":{}},{"name":"list_files","arguments":{"page_size":0}}]`
	out, _, err := execute(t, input, "batch", "--output", "json")
	if !errors.Is(err, errToolFailed) {
		t.Fatalf("expected errToolFailed for the invalid call, got %v", err)
	}
	var resp struct {
		Results []struct {
			Status string `json:"status"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid json output: %v\n%s", err, out)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Status != "success" || resp.Results[1].Status != "rejected" {
		t.Fatalf("unexpected statuses: %+v", resp.Results)
	}
}

func TestParseCalls(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "array", input: `[{"name":"list_files"}]`, want: 1},
		{name: "object", input: `{"calls":[{"name":"list_files"},{"name":"upload_file"}]}`, want: 2},
		{name: "empty", input: "  ", wantErr: true},
		{name: "no calls", input: `{"calls":[]}`, wantErr: true},
		{name: "malformed", input: `[{`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls, err := parseCalls([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(calls) != tt.want {
				t.Fatalf("expected %d calls, got %d", tt.want, len(calls))
			}
		})
	}
}
