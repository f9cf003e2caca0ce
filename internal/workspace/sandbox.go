// Package workspace decides which filesystem paths tools may touch.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"filebridge/internal/repo"
)

// Rule names the sandbox rule a path failed.
type Rule string

const (
	RuleEmpty         Rule = "empty"
	RuleNotAbsolute   Rule = "not_absolute"
	RuleOutside       Rule = "outside_workspace"
	RuleIgnored       Rule = "ignored"
	RuleNotFound      Rule = "not_found"
	RuleNotFile       Rule = "not_a_file"
	RuleParentMissing Rule = "parent_missing"
)

var (
	ErrNoTempDir    = errors.New("workspace: temp directory is required")
	ErrRelativeRoot = errors.New("workspace: roots must be absolute")
)

// Violation is returned by Check for the first rule a path breaks.
type Violation struct {
	Rule    Rule
	Path    string
	Message string
}

func (v *Violation) Error() string { return v.Message }

// Checks selects the optional rules applied after containment.
type Checks struct {
	// Param is the parameter name used in the empty-value message.
	Param         string
	RespectIgnore bool
	RequireFile   bool
	RequireParent bool
}

// Sandbox holds the canonical workspace roots and the project temp root.
type Sandbox struct {
	roots   []string
	tempDir string
	ignorer repo.Ignorer
}

// New canonicalizes roots and tempDir. ignorer may be nil.
func New(roots []string, tempDir string, ignorer repo.Ignorer) (*Sandbox, error) {
	if tempDir == "" {
		return nil, ErrNoTempDir
	}
	if !filepath.IsAbs(tempDir) {
		return nil, fmt.Errorf("%w: %s", ErrRelativeRoot, tempDir)
	}
	s := &Sandbox{tempDir: repo.Canonical(tempDir), ignorer: ignorer}
	for _, root := range roots {
		if !filepath.IsAbs(root) {
			return nil, fmt.Errorf("%w: %s", ErrRelativeRoot, root)
		}
		s.roots = append(s.roots, repo.Canonical(root))
	}
	return s, nil
}

// Roots returns a copy of the canonical workspace roots in configured order.
func (s *Sandbox) Roots() []string {
	return append([]string(nil), s.roots...)
}

// TempDir returns the canonical project temp root.
func (s *Sandbox) TempDir() string { return s.tempDir }

// Check applies the sandbox rules in order and returns the canonical path of
// an admissible path. The error is always a *Violation.
func (s *Sandbox) Check(path string, c Checks) (string, error) {
	if strings.TrimSpace(path) == "" {
		param := c.Param
		if param == "" {
			param = "absolute_path"
		}
		return "", &Violation{Rule: RuleEmpty, Path: path, Message: fmt.Sprintf("The '%s' parameter must be non-empty.", param)}
	}
	if !filepath.IsAbs(path) {
		return "", &Violation{
			Rule:    RuleNotAbsolute,
			Path:    path,
			Message: fmt.Sprintf("File path must be absolute, but was relative: %s. You must provide an absolute path.", path),
		}
	}

	resolved := repo.Canonical(path)
	if s == nil {
		return "", &Violation{Rule: RuleOutside, Path: path, Message: "No workspace directories are configured."}
	}
	if !s.contains(resolved) {
		return "", &Violation{
			Rule: RuleOutside,
			Path: path,
			Message: fmt.Sprintf("File path must be within one of the workspace directories: %s or within the project temp directory: %s",
				strings.Join(s.roots, ", "), s.tempDir),
		}
	}

	if c.RespectIgnore && s.ignorer != nil {
		if s.ignorer.Ignored(filepath.Clean(path)) || s.ignorer.Ignored(resolved) {
			return "", &Violation{Rule: RuleIgnored, Path: path, Message: fmt.Sprintf("File path '%s' is ignored by configured ignore patterns.", path)}
		}
	}

	if c.RequireFile {
		info, err := os.Stat(resolved)
		if err != nil {
			return "", &Violation{Rule: RuleNotFound, Path: path, Message: fmt.Sprintf("File does not exist: %s", path)}
		}
		if !info.Mode().IsRegular() {
			return "", &Violation{Rule: RuleNotFile, Path: path, Message: fmt.Sprintf("Path is not a file: %s", path)}
		}
	}

	if c.RequireParent {
		parent := filepath.Dir(resolved)
		info, err := os.Stat(parent)
		if err != nil || !info.IsDir() {
			return "", &Violation{
				Rule:    RuleParentMissing,
				Path:    path,
				Message: fmt.Sprintf("Parent directory does not exist: %s", filepath.Dir(filepath.Clean(path))),
			}
		}
	}
	return resolved, nil
}

func (s *Sandbox) contains(path string) bool {
	if within(path, s.tempDir) {
		return true
	}
	for _, root := range s.roots {
		if within(path, root) {
			return true
		}
	}
	return false
}

func within(path, root string) bool {
	if path == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
