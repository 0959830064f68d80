package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/config"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/logging"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/lsp"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/version"
)

// loadConfigWithOverrides loads configuration and layers CLI flag overrides
// on top, mirroring the teacher's loadConfigWithOverrides (cmd/lci/main.go):
// config.Load(root) first, then flags win over whatever the file set.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		root = wd
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root path %q: %w", root, err)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", absRoot, err)
	}

	if lvl := c.String("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if rv := c.String("ruby-version"); rv != "" {
		cfg.Ruby.Version = rv
	}
	if sp := c.String("stubs-path"); sp != "" {
		cfg.Ruby.StubsPath = sp
	}

	return cfg, nil
}

func main() {
	app := &cli.App{
		Name:                   "rubylsp",
		Usage:                  "Language server for Ruby, speaking LSP over stdio",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Usage: "Project root directory to index (defaults to the working directory)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: error, warn, info, debug, trace",
			},
			&cli.StringFlag{
				Name:  "ruby-version",
				Usage: "Pin the Ruby version stub set (e.g. 3.2) instead of auto-detecting",
			},
			&cli.StringFlag{
				Name:  "stubs-path",
				Usage: "Path to a directory holding rubystubsXY core-library stub sets, one per Ruby version",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write logs to this file instead of discarding them (stdout/stderr are reserved for the wire protocol)",
			},
		},
		Action: serveCommand,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the language server on stdio (same as running with no subcommand)",
				Action: serveCommand,
			},
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(c *cli.Context) error {
					fmt.Println(version.FullInfo())
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// serveCommand wires a Server to stdio and runs it until the client closes
// the connection or the process receives SIGINT/SIGTERM, mirroring the
// teacher's mcpCommand choreography (cmd/lci/main.go): a cancellable
// context, a goroutine running the transport into an error channel, a
// select between that channel and the signal channel, and — on signal — a
// bounded grace period before forcing the connection closed.
func serveCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	if logFile := c.String("log-file"); logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file %s: %w", logFile, err)
		}
		defer f.Close()
		logging.SetOutput(f)
	}
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))

	// Allow overriding the worker pool size the same way the teacher lets
	// LCI_MAX_PROCS override GOMAXPROCS for its indexing goroutines.
	if envProcs := os.Getenv("RUBYLSP_MAX_PROCS"); envProcs != "" {
		if parsed, err := strconv.Atoi(envProcs); err == nil && parsed > 0 {
			runtime.GOMAXPROCS(parsed)
		} else {
			fmt.Fprintf(os.Stderr, "rubylsp: invalid RUBYLSP_MAX_PROCS value %q, ignoring\n", envProcs)
		}
	}

	srv, err := lsp.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("constructing server: %w", err)
	}

	stream := lsp.NewStdioStream(os.Stdin, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logging.Infof("rubylsp: serving on stdio")
		errChan <- srv.Run(ctx, stream)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("lsp server error: %w", err)
		}
		return nil
	case sig := <-sigChan:
		logging.Warnf("rubylsp: received signal %v, shutting down gracefully", sig)
		cancel()

		shutdownTimer := time.NewTimer(2 * time.Second)
		defer shutdownTimer.Stop()

		select {
		case err := <-errChan:
			logging.Infof("rubylsp: shutdown completed")
			return err
		case <-shutdownTimer.C:
			logging.Warnf("rubylsp: graceful shutdown timed out, forcing exit")
			os.Stdin.Close()

			forceTimer := time.NewTimer(500 * time.Millisecond)
			defer forceTimer.Stop()

			select {
			case err := <-errChan:
				logging.Infof("rubylsp: shutdown completed after stdin close")
				return err
			case <-forceTimer.C:
				logging.Warnf("rubylsp: force shutdown timeout exceeded")
				return nil
			}
		}
	}
}
