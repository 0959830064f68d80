// Package logging implements leveled, stdio-safe logging, grounded on the
// teacher's internal/debug package: a single guarded writer that, in
// stdio-transport mode, drops output aimed at os.Stdout or os.Stderr,
// because an LSP server speaking
// JSON-RPC over stdin/stdout must never interleave unframed log bytes with
// protocol frames.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level is one of the logLevel configuration values from spec.md §6.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

func ParseLevel(s string) Level {
	switch s {
	case "error":
		return LevelError
	case "warn":
		return LevelWarn
	case "debug":
		return LevelDebug
	case "trace":
		return LevelTrace
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return "info"
	}
}

var (
	mu       sync.Mutex
	out      io.Writer
	minLevel = LevelInfo
	// stdioMode, once set, drops output whose writer is os.Stdout or
	// os.Stderr, whatever the order of SetOutput and SetStdioMode, so a
	// caller that forgets to gate a log call can never corrupt the wire
	// protocol.
	stdioMode bool
)

// SetStdioMode suppresses log output to os.Stdout/os.Stderr when enabled,
// since those are reserved for the Content-Length-framed wire protocol once
// the stdio transport starts. A writer installed via SetOutput (e.g. a log
// file) is unaffected and keeps receiving output.
func SetStdioMode(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	stdioMode = enabled
}

// SetOutput directs log output to w. Pass nil to disable logging entirely.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetLevel sets the minimum level that will be emitted.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

func logf(l Level, format string, args ...interface{}) {
	mu.Lock()
	w, lvl, stdio := out, minLevel, stdioMode
	mu.Unlock()

	// In stdio mode a writer that is os.Stdout or os.Stderr is skipped, since
	// those carry the Content-Length-framed wire protocol; any other writer
	// (e.g. a log file) receives output whichever of SetOutput/SetStdioMode
	// ran first. A nil writer disables logging.
	if w == nil || l > lvl {
		return
	}
	if stdio {
		if _, isStd := w.(*os.File); isStd && (w == os.Stdout || w == os.Stderr) {
			return
		}
	}
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(w, "[%s] %s %s\n", ts, l.String(), fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...interface{}) { logf(LevelError, format, args...) }
func Warnf(format string, args ...interface{})  { logf(LevelWarn, format, args...) }
func Infof(format string, args ...interface{})  { logf(LevelInfo, format, args...) }
func Debugf(format string, args ...interface{}) { logf(LevelDebug, format, args...) }
func Tracef(format string, args ...interface{}) { logf(LevelTrace, format, args...) }

// Default writes to stderr at info level — safe for CLI subcommands that
// aren't speaking the wire protocol on stdout.
func Default() {
	SetOutput(os.Stderr)
	SetLevel(LevelInfo)
}
