package lsp

import (
	"context"
	"time"

	"go.lsp.dev/jsonrpc2"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/config"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/document"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/entrystore"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/indexing"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/intern"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/logging"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/metrics"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/parser"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/query"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/resolver"
)

// Server is the LSP-facing half of the whole system: it owns every
// component's handle (C1-C8) and the live jsonrpc2.Conn, and implements
// jsonrpc2.Handler by dispatching to the per-method functions in
// handlers.go. Grounded on the teacher's mcp.Server (internal/mcp/server.go):
// a single struct wiring the index, config, and diagnostic logger together,
// with NewServer constructing the pipeline and Run/gracefulStop bracketing
// its lifetime.
type Server struct {
	cfg *config.Config

	store *entrystore.Store
	in    *intern.Interners
	par   *parser.Parser
	docs  *document.Cache
	res   *resolver.Resolver
	coord *indexing.Coordinator
	proj  *query.Projector

	metrics *metrics.Registry
	cancels *cancelRegistry
	watcher *indexing.Watcher

	conn     jsonrpc2.Conn
	progress *progressNotifier

	shutdownRequested bool
}

// NewServer builds every C1-C8 component fresh and wires them into a Server,
// mirroring the teacher's NewServer(goroutineIndex, cfg) pipeline
// construction (internal/mcp/server.go) — but building the index lazily via
// "initialize" instead of eagerly, since LSP's initialize handshake is the
// first point rootUri is known.
func NewServer(cfg *config.Config) (*Server, error) {
	par, err := parser.New()
	if err != nil {
		return nil, err
	}
	store := entrystore.New()
	in := intern.New()
	docs := document.NewCache()
	res := resolver.New(store, in)
	coord := indexing.New(cfg, store, in, par, docs)
	proj := query.New(store, in, res, par)

	return &Server{
		cfg:     cfg,
		store:   store,
		in:      in,
		par:     par,
		docs:    docs,
		res:     res,
		coord:   coord,
		proj:    proj,
		metrics: metrics.NewRegistry(),
		cancels: newCancelRegistry(),
	}, nil
}

// Run binds conn to this server and serves until the stream closes,
// matching the teacher's mcpCommand choreography: start the transport in a
// goroutine, then select between its completion and an external cancel,
// with a bounded grace period for in-flight requests to finish.
func (s *Server) Run(ctx context.Context, stream jsonrpc2.Stream) error {
	s.conn = jsonrpc2.NewConn(stream)
	s.progress = newProgressNotifier(s.conn)
	s.coord.SetDiagnosticsHook(s.publishDiagnosticsFor)

	errCh := make(chan error, 1)
	go func() {
		errCh <- Serve(ctx, s.conn, s.Handle)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.gracefulStop(errCh)
	}
}

// gracefulStop mirrors the teacher's 2-second-then-force shutdown timer in
// cmd/lci/main.go's mcpCommand: give the connection a chance to drain, then
// force-close it.
func (s *Server) gracefulStop(errCh chan error) error {
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		logging.Warnf("lsp: graceful shutdown timed out, closing connection")
		if err := s.conn.Close(); err != nil {
			logging.Warnf("lsp: error closing connection: %v", err)
		}
		return nil
	}
}
