// Package config loads and merges server configuration, grounded on the
// teacher's internal/config package: a typed Config struct, file-backed
// defaults, and an override chain (file < initializationOptions < CLI
// flags).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	toml "github.com/pelletier/go-toml/v2"
)

// RubyVersion is one of the supported stub-set selectors from spec.md §6.
type RubyVersion string

const (
	RubyVersionAuto RubyVersion = "auto"
)

// SupportedRubyVersions lists every rubyVersion value spec.md §6 recognizes
// besides "auto", in ascending order; each corresponds to a rubystubsXY
// directory (X,Y being the two version digits with the dot removed).
var SupportedRubyVersions = []string{
	"1.8", "1.9", "2.0", "2.1", "2.2", "2.3", "2.4", "2.5",
	"2.6", "2.7", "3.0", "3.1", "3.2", "3.3", "3.4",
}

type Project struct {
	Root string `toml:"root"`
}

// Index controls workspace discovery (§4.5 Workspace discovery).
type Index struct {
	MaxFileSize      int64    `toml:"max_file_size"`
	MaxFileCount     int      `toml:"max_file_count"`
	FollowSymlinks   bool     `toml:"follow_symlinks"`
	RespectGitignore bool     `toml:"respect_gitignore"`
	WatchMode        bool     `toml:"watch_mode"`
	WatchDebounceMs  int      `toml:"watch_debounce_ms"`
	Include          []string `toml:"include"`
	Exclude          []string `toml:"exclude"`
}

// Performance controls the coordinator's worker pool (§5).
type Performance struct {
	ParallelFileWorkers int `toml:"parallel_file_workers"` // 0 = auto-detect (NumCPU)
	IndexingTimeoutSec  int `toml:"indexing_timeout_sec"`
}

// Ruby controls stub-set selection (§6).
type Ruby struct {
	Version   string `toml:"version"`    // "auto" or one of SupportedRubyVersions
	StubsPath string `toml:"stubs_path"` // override directory containing rubystubsXY sets
}

type Config struct {
	Project     Project     `toml:"project"`
	Index       Index       `toml:"index"`
	Performance Performance `toml:"performance"`
	Ruby        Ruby        `toml:"ruby"`
	LogLevel    string      `toml:"log_level"`
}

const (
	DefaultMaxFileSize     = 10 * 1024 * 1024 // 10MB, matches the teacher's rationale: covers all but generated/binary files
	DefaultMaxFileCount    = 20000
	DefaultWatchDebounceMs = 300
)

// Default returns the built-in defaults, used when no `.rubylsp.toml` is
// found and initializationOptions supplies nothing.
func Default() *Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &Config{
		Project: Project{Root: cwd},
		Index: Index{
			MaxFileSize:      DefaultMaxFileSize,
			MaxFileCount:     DefaultMaxFileCount,
			FollowSymlinks:   false,
			RespectGitignore: true,
			WatchMode:        true,
			WatchDebounceMs:  DefaultWatchDebounceMs,
			Include:          []string{"**/*.rb", "**/*.rbs", "**/*.gemspec", "**/Rakefile", "**/Gemfile"},
			Exclude:          []string{"**/.git/**", "**/vendor/bundle/**", "**/tmp/**", "**/log/**"},
		},
		Performance: Performance{
			ParallelFileWorkers: 0,
			IndexingTimeoutSec:  120,
		},
		Ruby: Ruby{
			Version: string(RubyVersionAuto),
		},
		LogLevel: "info",
	}
}

// Load reads `.rubylsp.toml` from root (if present) and layers it over
// Default(). A missing file is not an error — most workspaces have no
// config file and rely entirely on initializationOptions.
func Load(root string) (*Config, error) {
	cfg := Default()
	if root != "" {
		cfg.Project.Root = root
	}

	path := filepath.Join(cfg.Project.Root, ".rubylsp.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Project.Root = root
	return cfg, nil
}

// InitializationOptions mirrors the LSP initializationOptions shape from
// spec.md §6; ApplyInitializationOptions overrides whatever the file config
// set, per the documented precedence (flags > initializationOptions > file
// > defaults — CLI flags are applied by the caller after this).
type InitializationOptions struct {
	RubyVersion string `json:"rubyVersion"`
	StubsPath   string `json:"stubsPath"`
	LogLevel    string `json:"logLevel"`
}

func (c *Config) ApplyInitializationOptions(opts InitializationOptions) {
	if opts.RubyVersion != "" {
		c.Ruby.Version = opts.RubyVersion
	}
	if opts.StubsPath != "" {
		c.Ruby.StubsPath = opts.StubsPath
	}
	if opts.LogLevel != "" {
		c.LogLevel = opts.LogLevel
	}
}

// WorkerCount resolves ParallelFileWorkers to a concrete count, defaulting
// to the online CPU count the way the teacher's coordinator does (§5
// "Scheduling model").
func (c *Config) WorkerCount() int {
	if c.Performance.ParallelFileWorkers > 0 {
		return c.Performance.ParallelFileWorkers
	}
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}
