package tools

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"filebridge/internal/config"
)

func TestDownloadUnavailableUnderVertexBeforePathChecks(t *testing.T) {
	env := newTestEnv(t, config.AuthVertexAI)
	tool := NewDownloadTool(env.fake, env.meta)

	inv, err := tool.Build(mustJSON(t, map[string]any{"file_id": "files/abc", "absolute_path": "relative/out.txt"}))
	expectValidation(t, inv, err, ErrorToolUnavailable)

	inv, err = tool.Build(mustJSON(t, map[string]any{"file_id": "files/abc", "absolute_path": "/nowhere/at/all.txt"}))
	expectValidation(t, inv, err, ErrorToolUnavailable)
}

func TestDownloadRequiredParameters(t *testing.T) {
	env := newTestEnv(t, config.AuthGeminiAPIKey)
	tool := NewDownloadTool(env.fake, env.meta)

	inv, err := tool.Build([]byte(`{"absolute_path":"/x"}`))
	v := expectValidation(t, inv, err, ErrorInvalidParams)
	if v.Message != "params must have required property 'file_id'" {
		t.Fatalf("unexpected message: %s", v.Message)
	}

	inv, err = tool.Build([]byte(`{"file_id":"  ","absolute_path":"/x"}`))
	v = expectValidation(t, inv, err, ErrorInvalidParams)
	if v.Message != "The 'file_id' parameter must be non-empty." {
		t.Fatalf("unexpected message: %s", v.Message)
	}

	inv, err = tool.Build([]byte(`{"file_id":"files/a","absolute_path":""}`))
	v = expectValidation(t, inv, err, ErrorInvalidParams)
	if v.Message != "The 'absolute_path' parameter must be non-empty." {
		t.Fatalf("unexpected message: %s", v.Message)
	}
}

func TestDownloadParentMustExist(t *testing.T) {
	env := newTestEnv(t, config.AuthGeminiAPIKey)
	target := filepath.Join(env.root, "missing", "out.txt")
	inv, err := NewDownloadTool(env.fake, env.meta).Build(mustJSON(t, map[string]any{"file_id": "files/a", "absolute_path": target}))
	v := expectValidation(t, inv, err, ErrorInvalidParams)
	if !strings.Contains(v.Message, "Parent directory does not exist") {
		t.Fatalf("unexpected message: %s", v.Message)
	}
}

func TestDownloadSkipsIgnoreRules(t *testing.T) {
	env := newTestEnv(t, config.AuthGeminiAPIKey, "*.log")
	target := filepath.Join(env.root, "out.log")
	mustBuild(t, NewDownloadTool(env.fake, env.meta), mustJSON(t, map[string]any{"file_id": "files/a", "absolute_path": target}))
}

func TestDownloadSuccess(t *testing.T) {
	env := newTestEnv(t, config.AuthGeminiAPIKey)
	target := filepath.Join(env.root, "out.txt")
	var gotID, gotPath string
	env.fake.DownloadFunc = func(_ context.Context, name, localPath string) error {
		gotID, gotPath = name, localPath
		return nil
	}
	res := mustBuild(t, NewDownloadTool(env.fake, env.meta), mustJSON(t, map[string]any{"file_id": "files/abc", "absolute_path": target})).Execute(context.Background())
	if res.Failed() {
		t.Fatalf("unexpected error: %+v", res.Error)
	}
	if gotID != "files/abc" || gotPath != target {
		t.Fatalf("unexpected adapter args: %q %q", gotID, gotPath)
	}
	if !strings.Contains(res.LLMContent, "files/abc") || !strings.Contains(res.LLMContent, target) {
		t.Fatalf("unexpected content: %s", res.LLMContent)
	}
}

func TestDownloadAdapterFailure(t *testing.T) {
	env := newTestEnv(t, config.AuthGeminiAPIKey)
	env.fake.DownloadFunc = func(context.Context, string, string) error {
		return errors.New("file not found on server")
	}
	inv := mustBuild(t, NewDownloadTool(env.fake, env.meta), mustJSON(t, map[string]any{
		"file_id":       "files/gone",
		"absolute_path": filepath.Join(env.root, "out.txt"),
	}))
	res := inv.Execute(context.Background())
	if res.Error == nil || res.Error.Type != ErrorFileManagerOperation {
		t.Fatalf("expected operation failure, got %+v", res.Error)
	}
	for _, s := range []string{res.LLMContent, res.ReturnDisplay} {
		if !strings.Contains(s, "Error downloading file") || !strings.Contains(s, "file not found on server") {
			t.Fatalf("unexpected failure text: %s", s)
		}
	}
}
