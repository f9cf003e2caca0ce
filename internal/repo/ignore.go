package repo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// IgnoreFileName is read from every workspace root when no other name is
// configured.
const IgnoreFileName = ".filebridgeignore"

// Ignorer decides whether a path is excluded from tool access.
type Ignorer interface {
	Ignored(path string) bool
}

type ignoreRule struct {
	pattern string
	re      *regexp.Regexp
	negate  bool
	dirOnly bool
}

type rootRules struct {
	root  string
	alias string
	rules []ignoreRule
}

// IgnoreService combines the credential denylist with gitignore-style
// patterns loaded per workspace root.
type IgnoreService struct {
	roots           []rootRules
	respectDenylist bool
}

// IgnoreOptions configures NewIgnoreService.
type IgnoreOptions struct {
	FileName        string
	RespectDenylist bool
}

// NewIgnoreService loads the ignore file from each root. Roots without an
// ignore file contribute no patterns.
func NewIgnoreService(roots []string, opts IgnoreOptions) (*IgnoreService, error) {
	name := opts.FileName
	if name == "" {
		name = IgnoreFileName
	}
	svc := &IgnoreService{respectDenylist: opts.RespectDenylist}
	for _, root := range roots {
		rules, err := loadIgnoreFile(filepath.Join(root, name))
		if err != nil {
			return nil, err
		}
		svc.roots = append(svc.roots, rootRules{root: Canonical(root), alias: filepath.Clean(root), rules: rules})
	}
	return svc, nil
}

// AddPatterns appends patterns for root, creating the root entry when needed.
func (s *IgnoreService) AddPatterns(root string, patterns ...string) error {
	rules, err := parseIgnoreLines(patterns)
	if err != nil {
		return err
	}
	alias := filepath.Clean(root)
	root = Canonical(root)
	for i := range s.roots {
		if s.roots[i].root == root {
			s.roots[i].rules = append(s.roots[i].rules, rules...)
			return nil
		}
	}
	s.roots = append(s.roots, rootRules{root: root, alias: alias, rules: rules})
	return nil
}

// Ignored reports whether path is denylisted or matched by the patterns of a
// root that contains it. A path below an ignored directory is ignored. The
// resolved path is matched against the resolved root and the path as given
// against the root as configured.
func (s *IgnoreService) Ignored(path string) bool {
	if s == nil {
		return false
	}
	path = filepath.Clean(path)
	resolved := Canonical(path)
	if s.respectDenylist && (IsDenylisted(path) || IsDenylisted(resolved)) {
		return true
	}
	for _, rr := range s.roots {
		if len(rr.rules) == 0 {
			continue
		}
		if rr.matches(rr.root, resolved) || rr.matches(rr.alias, path) {
			return true
		}
	}
	return false
}

func (rr rootRules) matches(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return rr.ignored(filepath.ToSlash(rel), path)
}

func (rr rootRules) ignored(rel, abs string) bool {
	parts := strings.Split(rel, "/")
	for i := 1; i <= len(parts); i++ {
		sub := strings.Join(parts[:i], "/")
		isDir := i < len(parts)
		if !isDir {
			if info, err := os.Stat(abs); err == nil && info.IsDir() {
				isDir = true
			}
		}
		if rr.match(sub, isDir) {
			return true
		}
	}
	return false
}

// match applies the rules in order; the last matching rule decides.
func (rr rootRules) match(rel string, isDir bool) bool {
	ignored := false
	for _, rule := range rr.rules {
		if rule.dirOnly && !isDir {
			continue
		}
		if rule.re.MatchString(rel) {
			ignored = !rule.negate
		}
	}
	return ignored
}

func loadIgnoreFile(path string) ([]ignoreRule, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ignore file: %w", err)
	}
	defer f.Close()
	lines, err := readLines(f)
	if err != nil {
		return nil, fmt.Errorf("read ignore file %s: %w", path, err)
	}
	return parseIgnoreLines(lines)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

func parseIgnoreLines(lines []string) ([]ignoreRule, error) {
	var rules []ignoreRule
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule := ignoreRule{pattern: line}
		if strings.HasPrefix(line, "!") {
			rule.negate = true
			line = line[1:]
		} else if strings.HasPrefix(line, `\#`) || strings.HasPrefix(line, `\!`) {
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			rule.dirOnly = true
			line = strings.TrimRight(line, "/")
		}
		if line == "" {
			continue
		}
		anchored := strings.Contains(line, "/")
		line = strings.TrimPrefix(line, "/")
		expr := globToRegexp(line)
		if anchored {
			expr = "^" + expr + "$"
		} else {
			expr = "^(?:.*/)?" + expr + "$"
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", rule.pattern, err)
		}
		rule.re = re
		rules = append(rules, rule)
	}
	return rules, nil
}

func globToRegexp(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				switch {
				case i+2 < len(glob) && glob[i+2] == '/':
					b.WriteString("(?:.*/)?")
					i += 2
				default:
					b.WriteString(".*")
					i++
				}
				continue
			}
			b.WriteString("[^/]*")
		case '?':
			b.WriteString("[^/]")
		case '[':
			end := strings.IndexByte(glob[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := glob[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + strings.ReplaceAll(class, `\`, `\\`) + "]")
			i += end + 1
		case '\\':
			if i+1 < len(glob) {
				i++
				b.WriteString(regexp.QuoteMeta(string(glob[i])))
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}
