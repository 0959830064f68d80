package indexing

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/config"
)

// FileSet is the three-way split §4.5's workspace discovery returns:
// project files authored in the workspace, stdlib stub files selected by
// Ruby version, and gem files found under the workspace's dependency
// directories. All three feed the same indexing protocol identically —
// the coordinator doesn't distinguish their origin once discovered.
type FileSet struct {
	ProjectFiles []string
	StubFiles    []string
	GemFiles     []string
}

// Discover walks root and returns every Ruby source file matching the
// configured include/exclude globs, honoring FollowSymlinks, gitignore
// rules, and the max file size/count caps (§4.5, §6 Configuration).
// Glob matching uses doublestar so `**`-style patterns behave the way a
// .gitignore author expects.
func Discover(cfg *config.Config, stubsPath string, rubyVersion string) (*FileSet, error) {
	fs := &FileSet{}

	ignore := loadGitignore(cfg.Project.Root, cfg.Index.RespectGitignore)

	err := filepath.WalkDir(cfg.Project.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal (§7 resilience)
		}
		rel, relErr := filepath.Rel(cfg.Project.Root, path)
		if relErr != nil {
			return nil
		}
		if d.IsDir() {
			if rel != "." && (isVendorDir(d.Name()) || ignore.matches(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !cfg.Index.FollowSymlinks {
			if info, infoErr := d.Info(); infoErr == nil && info.Mode()&os.ModeSymlink != 0 {
				return nil
			}
		}
		if ignore.matches(rel) {
			return nil
		}
		if !matchesAny(cfg.Index.Include, rel) {
			return nil
		}
		if matchesAny(cfg.Index.Exclude, rel) {
			return nil
		}
		if info, infoErr := d.Info(); infoErr == nil {
			if cfg.Index.MaxFileSize > 0 && info.Size() > cfg.Index.MaxFileSize {
				return nil
			}
		}
		if len(fs.ProjectFiles) >= cfg.Index.MaxFileCount && cfg.Index.MaxFileCount > 0 {
			return nil
		}
		if isGemPath(rel) {
			fs.GemFiles = append(fs.GemFiles, path)
			return nil
		}
		fs.ProjectFiles = append(fs.ProjectFiles, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if stubsPath != "" {
		fs.StubFiles, _ = discoverStubs(stubsPath, rubyVersion)
	}

	return fs, nil
}

func discoverStubs(stubsPath, rubyVersion string) ([]string, error) {
	dir := filepath.Join(stubsPath, "rubystubs"+strings.ReplaceAll(rubyVersion, ".", ""))
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(path, ".rb") {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func matchesAny(patterns []string, rel string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func isVendorDir(name string) bool {
	switch name {
	case ".git", "node_modules", "tmp", "log":
		return true
	default:
		return false
	}
}

func isGemPath(rel string) bool {
	return strings.Contains(rel, "vendor/bundle") || strings.Contains(rel, "gems"+string(filepath.Separator))
}

// gitignoreSet is a minimal .gitignore matcher: flat glob patterns only (no
// negation, no directory-scoped rules) — sufficient to keep generated and
// dependency directories out of the index without reimplementing git's full
// matching semantics.
type gitignoreSet struct {
	patterns []string
}

func loadGitignore(root string, enabled bool) *gitignoreSet {
	gs := &gitignoreSet{}
	if !enabled {
		return gs
	}
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return gs
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		gs.patterns = append(gs.patterns, line)
	}
	return gs
}

func (g *gitignoreSet) matches(rel string) bool {
	for _, p := range g.patterns {
		pattern := strings.TrimSuffix(p, "/")
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match("**/"+pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match("**/"+pattern+"/**", rel); ok {
			return true
		}
	}
	return false
}
