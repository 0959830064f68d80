package lsp

import (
	"context"
	"io"

	"go.lsp.dev/jsonrpc2"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/logging"
)

// Stream wraps an io.ReadWriteCloser (stdin+stdout, conventionally) as a
// jsonrpc2.Stream using Content-Length framing — the same framing every
// LSP client/server pair speaks, and the one real production Go LSP server
// in the retrieval pack (bufbuild-buf's buflsp) hands to this exact
// constructor rather than rolling its own header parser.
func Stream(rwc io.ReadWriteCloser) jsonrpc2.Stream {
	return jsonrpc2.NewStream(rwc)
}

// stdioReadWriteCloser adapts separate stdin/stdout handles (os.Stdin never
// needs its own Close called on process exit) into the single
// io.ReadWriteCloser jsonrpc2.NewStream expects.
type stdioReadWriteCloser struct {
	in  io.ReadCloser
	out io.WriteCloser
}

func (s stdioReadWriteCloser) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s stdioReadWriteCloser) Write(p []byte) (int, error) { return s.out.Write(p) }
func (s stdioReadWriteCloser) Close() error {
	if err := s.in.Close(); err != nil {
		return err
	}
	return s.out.Close()
}

// NewStdioStream builds the Content-Length-framed stream over in/out.
// Before returning, it forces logging into stdio-safe mode (§6 Configuration,
// §9 Concurrency: "never interleave unframed log bytes with protocol
// frames"); callers that want log output should call logging.SetOutput with
// a file before serving.
func NewStdioStream(in io.ReadCloser, out io.WriteCloser) jsonrpc2.Stream {
	logging.SetStdioMode(true)
	return Stream(stdioReadWriteCloser{in: in, out: out})
}

// Serve drives conn with handler until the stream closes or ctx is
// cancelled, logging a warning on abnormal exit.
func Serve(ctx context.Context, conn jsonrpc2.Conn, handler jsonrpc2.Handler) error {
	conn.Go(ctx, handler)
	<-conn.Done()
	if err := conn.Err(); err != nil && ctx.Err() == nil {
		logging.Warnf("lsp: connection closed: %v", err)
		return err
	}
	return nil
}
