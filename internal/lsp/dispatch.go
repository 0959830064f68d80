package lsp

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"go.lsp.dev/jsonrpc2"

	rlsperrors "github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/errors"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/logging"
)

// cancelRegistry tracks the context.CancelFunc for every in-flight request,
// keyed by its JSON-RPC id, so a `$/cancelRequest` notification (§6) can
// reach across goroutines and cancel the matching handler's context. Grounded
// on the teacher's mcp server, which keys an analogous in-flight map by
// request id for its own long-running tool calls.
type cancelRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{cancels: make(map[string]context.CancelFunc)}
}

func (r *cancelRegistry) register(id string, cancel context.CancelFunc) {
	r.mu.Lock()
	r.cancels[id] = cancel
	r.mu.Unlock()
}

func (r *cancelRegistry) unregister(id string) {
	r.mu.Lock()
	delete(r.cancels, id)
	r.mu.Unlock()
}

func (r *cancelRegistry) cancel(id string) {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

// Handle implements jsonrpc2.Handler: it is the single entry point the
// transport calls for every request and notification, dispatching on method
// name to the Server's per-method implementations (handlers.go).
func (s *Server) Handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	method := req.Method()

	call, isCall := req.(*jsonrpc2.Call)
	var reqID string
	if isCall {
		reqID = call.ID().String()
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		s.cancels.register(reqID, cancel)
		defer s.cancels.unregister(reqID)
	}

	start := time.Now()
	result, err := s.dispatch(ctx, method, req.Params())
	s.metrics.Record(method, time.Since(start), err)

	if !isCall {
		// Notifications never reply; log handler errors since the client
		// will never see them.
		if err != nil {
			logging.Warnf("lsp: notification %s: %v", method, err)
		}
		return nil
	}
	return reply(ctx, result, err)
}

func (s *Server) dispatch(ctx context.Context, method string, params json.RawMessage) (interface{}, error) {
	switch method {
	case "initialize":
		return s.handleInitialize(ctx, params)
	case "initialized":
		return nil, nil
	case "shutdown":
		return s.handleShutdown(ctx)
	case "exit":
		s.handleExit()
		return nil, nil

	case "textDocument/didOpen":
		return nil, s.handleDidOpen(ctx, params)
	case "textDocument/didChange":
		return nil, s.handleDidChange(ctx, params)
	case "textDocument/didClose":
		return nil, s.handleDidClose(ctx, params)
	case "textDocument/didSave":
		return nil, s.handleDidSave(ctx, params)

	case "textDocument/definition":
		return s.handleDefinition(ctx, params)
	case "textDocument/references":
		return s.handleReferences(ctx, params)
	case "textDocument/completion":
		return s.handleCompletion(ctx, params)
	case "completionItem/resolve":
		return s.handleCompletionResolve(ctx, params)
	case "textDocument/documentSymbol":
		return s.handleDocumentSymbol(ctx, params)
	case "textDocument/semanticTokens/full":
		return s.handleSemanticTokensFull(ctx, params)
	case "textDocument/foldingRange":
		return s.handleFoldingRange(ctx, params)
	case "textDocument/inlayHint":
		return s.handleInlayHint(ctx, params)
	case "textDocument/codeLens":
		return s.handleCodeLens(ctx, params)
	case "textDocument/onTypeFormatting":
		return s.handleOnTypeFormatting(ctx, params)
	case "textDocument/documentHighlight":
		return s.handleDocumentHighlight(ctx, params)

	case "workspace/symbol":
		return s.handleWorkspaceSymbol(ctx, params)
	case "workspace/didChangeConfiguration":
		return nil, s.handleDidChangeConfiguration(ctx, params)
	case "workspace/didChangeWatchedFiles":
		return nil, s.handleDidChangeWatchedFiles(ctx, params)

	case "$/cancelRequest":
		return nil, s.handleCancelRequest(params)

	default:
		return nil, &rlsperrors.ProtocolError{Method: method, Code: -32601, Message: "method not found"}
	}
}

func (s *Server) handleCancelRequest(raw json.RawMessage) error {
	var p CancelParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	s.cancels.cancel(cancelKey(p.ID))
	return nil
}

// cancelKey normalizes a JSON-RPC id (number or string on the wire) to the
// same string form jsonrpc2.ID.String() produces, so it matches the keys
// registered in Handle.
func cancelKey(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}
