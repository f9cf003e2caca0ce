package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIgnoreServicePatterns(t *testing.T) {
	root := t.TempDir()
	content := "# comment\n\n*.log\n!keep.log\nbuild/\n/secret.txt\ndocs/**/draft.md\n"
	if err := os.WriteFile(filepath.Join(root, IgnoreFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write ignore file: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "build"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	svc, err := NewIgnoreService([]string{root}, IgnoreOptions{})
	if err != nil {
		t.Fatalf("NewIgnoreService: %v", err)
	}

	cases := []struct {
		path string
		want bool
	}{
		{"app.log", true},
		{"nested/dir/app.log", true},
		{"keep.log", false},
		{"build", true},
		{"build/out.bin", true},
		{"secret.txt", true},
		{"nested/secret.txt", false},
		{"docs/draft.md", true},
		{"docs/a/b/draft.md", true},
		{"docs/final.md", false},
		{"main.go", false},
	}
	for _, tc := range cases {
		got := svc.Ignored(filepath.Join(root, filepath.FromSlash(tc.path)))
		if got != tc.want {
			t.Errorf("Ignored(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestIgnoreServiceOutsideRoot(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	svc, err := NewIgnoreService([]string{root}, IgnoreOptions{})
	if err != nil {
		t.Fatalf("NewIgnoreService: %v", err)
	}
	if err := svc.AddPatterns(root, "*"); err != nil {
		t.Fatalf("AddPatterns: %v", err)
	}
	if !svc.Ignored(filepath.Join(root, "x.txt")) {
		t.Fatalf("expected path under root to be ignored")
	}
	if svc.Ignored(filepath.Join(other, "x.txt")) {
		t.Fatalf("patterns must not apply outside their root")
	}
}

func TestIgnoreServiceDenylist(t *testing.T) {
	root := t.TempDir()
	withDenylist, err := NewIgnoreService([]string{root}, IgnoreOptions{RespectDenylist: true})
	if err != nil {
		t.Fatalf("NewIgnoreService: %v", err)
	}
	without, err := NewIgnoreService([]string{root}, IgnoreOptions{})
	if err != nil {
		t.Fatalf("NewIgnoreService: %v", err)
	}
	path := filepath.Join(root, ".env")
	if !withDenylist.Ignored(path) {
		t.Fatalf("expected .env to be denylisted")
	}
	if without.Ignored(path) {
		t.Fatalf("expected denylist to be opt-in")
	}
}

func TestIgnoreServiceNil(t *testing.T) {
	var svc *IgnoreService
	if svc.Ignored("/tmp/anything") {
		t.Fatalf("nil service must ignore nothing")
	}
}

func TestIsDenylisted(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/home/u/project/.env", true},
		{"/home/u/project/.env.local", true},
		{"/home/u/project/.env.example", false},
		{"/home/u/.ssh/config", true},
		{"/home/u/.aws/credentials", true},
		{"/home/u/project/server.pem", true},
		{"/home/u/project/id_rsa.pub", true},
		{"/home/u/.netrc", true},
		{"/home/u/project/README.md", false},
	}
	for _, tc := range cases {
		if got := IsDenylisted(tc.path); got != tc.want {
			t.Errorf("IsDenylisted(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestIgnoreServiceSymlinkedRoot(t *testing.T) {
	base := t.TempDir()
	realDir := filepath.Join(base, "real")
	if err := os.Mkdir(realDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	link := filepath.Join(base, "ws")
	if err := os.Symlink(realDir, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.WriteFile(filepath.Join(realDir, IgnoreFileName), []byte("secret.txt\n"), 0o644); err != nil {
		t.Fatalf("write ignore file: %v", err)
	}

	svc, err := NewIgnoreService([]string{link}, IgnoreOptions{})
	if err != nil {
		t.Fatalf("NewIgnoreService: %v", err)
	}
	if err := svc.AddPatterns(link, "*.tmp"); err != nil {
		t.Fatalf("AddPatterns: %v", err)
	}
	realRoot := Canonical(realDir)

	cases := []struct {
		path string
		want bool
	}{
		{filepath.Join(link, "secret.txt"), true},
		{filepath.Join(realRoot, "secret.txt"), true},
		{filepath.Join(realRoot, "scratch.tmp"), true},
		{filepath.Join(link, "scratch.tmp"), true},
		{filepath.Join(realRoot, "notes.txt"), false},
		{filepath.Join(link, "notes.txt"), false},
	}
	for _, tc := range cases {
		if got := svc.Ignored(tc.path); got != tc.want {
			t.Errorf("Ignored(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
	if len(svc.roots) != 1 {
		t.Fatalf("expected patterns added through the link to join the existing root, got %d roots", len(svc.roots))
	}
}

func TestCanonicalMissingLeaf(t *testing.T) {
	base := t.TempDir()
	realDir := filepath.Join(base, "real")
	if err := os.Mkdir(realDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	link := filepath.Join(base, "ws")
	if err := os.Symlink(realDir, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	got := Canonical(filepath.Join(link, "new", "file.txt"))
	want := filepath.Join(Canonical(realDir), "new", "file.txt")
	if got != want {
		t.Fatalf("Canonical = %s, want %s", got, want)
	}
}
