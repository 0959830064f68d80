// Package errors defines the typed error family used across the indexer and
// resolver, grounded on the teacher's internal/errors package. Leaf visitors
// and the resolver never panic (§7); they return these as values or wrap
// them, and the coordinator decides what becomes a log line versus a
// diagnostic versus a retry.
package errors

import (
	"fmt"
	"time"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// Kind classifies an error for logging and for deciding retry/diagnostic
// behavior.
type Kind string

const (
	KindIndexing Kind = "indexing"
	KindParse    Kind = "parse"
	KindResolve  Kind = "resolve"
	KindConfig   Kind = "config"
	KindProtocol Kind = "protocol"
	KindInternal Kind = "internal"
)

// IndexingError represents a failure to index a file: the worker failed to
// produce entries for it (read error, out-of-memory guard tripped, etc).
type IndexingError struct {
	Op          string
	File        string
	FileHandle  types.FileHandle
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

func NewIndexingError(op string, err error) *IndexingError {
	return &IndexingError{Op: op, Underlying: err, Timestamp: time.Now()}
}

func (e *IndexingError) WithFile(h types.FileHandle, path string) *IndexingError {
	e.FileHandle = h
	e.File = path
	return e
}

func (e *IndexingError) WithRecoverable(r bool) *IndexingError {
	e.Recoverable = r
	return e
}

func (e *IndexingError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("indexing %s failed for %s: %v", e.Op, e.File, e.Underlying)
	}
	return fmt.Sprintf("indexing %s failed: %v", e.Op, e.Underlying)
}

func (e *IndexingError) Unwrap() error { return e.Underlying }

// ParseError wraps a syntax error reported by the tree-sitter collaborator,
// positioned so it can become an LSP diagnostic without reparsing.
type ParseError struct {
	File       string
	FileHandle types.FileHandle
	Range      types.Range
	Message    string
	Underlying error
}

func NewParseError(h types.FileHandle, path string, r types.Range, msg string) *ParseError {
	return &ParseError{FileHandle: h, File: path, Range: r, Message: msg}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s:%d:%d: %s",
		e.File, e.Range.Start.Line, e.Range.Start.Character, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Underlying }

// ResolveError represents a resolver-internal failure distinct from a
// normal "Unresolved" result — e.g. a malformed qualified prefix that the
// resolver chose to report rather than silently treat as Unresolved. The
// resolver still never panics: this is a value, not a recovered panic.
type ResolveError struct {
	Query      string
	Reason     string
	Underlying error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %q: %s", e.Query, e.Reason)
}

func (e *ResolveError) Unwrap() error { return e.Underlying }

// ProtocolError represents a malformed LSP request; the server replies with
// a JSON-RPC error object and keeps serving (§7).
type ProtocolError struct {
	Method  string
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error on %s (code %d): %s", e.Method, e.Code, e.Message)
}

// ConfigError represents a configuration load/validation failure.
type ConfigError struct {
	Path       string
	Underlying error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error loading %s: %v", e.Path, e.Underlying)
}

func (e *ConfigError) Unwrap() error { return e.Underlying }
