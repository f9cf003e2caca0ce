package tools

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"filebridge/internal/config"
	"filebridge/internal/remotefs/remotefstest"
	"filebridge/internal/repo"
	"filebridge/internal/workspace"
)

type testEnv struct {
	meta Meta
	root string
	temp string
	fake *remotefstest.Fake
}

func newTestEnv(t *testing.T, auth config.AuthType, ignorePatterns ...string) *testEnv {
	t.Helper()
	root := t.TempDir()
	temp := t.TempDir()
	ignorer, err := repo.NewIgnoreService([]string{root}, repo.IgnoreOptions{RespectDenylist: true})
	if err != nil {
		t.Fatalf("NewIgnoreService: %v", err)
	}
	if len(ignorePatterns) > 0 {
		if err := ignorer.AddPatterns(root, ignorePatterns...); err != nil {
			t.Fatalf("AddPatterns: %v", err)
		}
	}
	sb, err := workspace.New([]string{root}, temp, ignorer)
	if err != nil {
		t.Fatalf("workspace.New: %v", err)
	}
	return &testEnv{
		meta: Meta{Sandbox: sb, AuthType: auth},
		root: sb.Roots()[0],
		temp: sb.TempDir(),
		fake: &remotefstest.Fake{},
	}
}

func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func expectValidation(t *testing.T, inv Invocation, err error, kind ErrorType) *ValidationError {
	t.Helper()
	if inv != nil {
		t.Fatalf("expected no invocation, got %v", inv.Description())
	}
	var v *ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
	}
	if v.Type != kind {
		t.Fatalf("expected kind %s, got %s (%s)", kind, v.Type, v.Message)
	}
	return v
}

func mustBuild(t *testing.T, tool Tool, params json.RawMessage) Invocation {
	t.Helper()
	inv, err := tool.Build(params)
	if err != nil {
		t.Fatalf("Build(%s): %v", params, err)
	}
	return inv
}
