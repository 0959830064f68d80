package lsp

import (
	"context"

	"go.lsp.dev/jsonrpc2"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/indexing"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/logging"
)

// indexingProgressToken is the single `$/progress` stream this server ever
// opens, per §6's custom-notification contract.
const indexingProgressToken ProgressToken = "indexing"

// progressNotifier adapts indexing.ProgressFunc to `$/progress`
// begin/report/end notifications over conn, following buflsp's
// Begin/Report/Done staged-progress pattern (the only progress-reporting LSP
// server in the retrieval pack) rather than a single terminal notification.
type progressNotifier struct {
	conn    jsonrpc2.Conn
	started map[string]bool
}

func newProgressNotifier(conn jsonrpc2.Conn) *progressNotifier {
	return &progressNotifier{conn: conn, started: make(map[string]bool)}
}

func (p *progressNotifier) Report(prog indexing.Progress) {
	ctx := context.Background()
	if !p.started[prog.Phase] {
		p.started[prog.Phase] = true
		p.notify(ctx, WorkDoneProgressBegin{
			Kind:        "begin",
			Title:       "Indexing: " + prog.Phase,
			Percentage:  prog.Percentage,
			Cancellable: false,
		})
	}
	if prog.Done >= prog.Total && prog.Total > 0 {
		p.notify(ctx, WorkDoneProgressEnd{Kind: "end"})
		return
	}
	p.notify(ctx, WorkDoneProgressReport{
		Kind:       "report",
		Percentage: prog.Percentage,
	})
}

func (p *progressNotifier) notify(ctx context.Context, value interface{}) {
	if err := p.conn.Notify(ctx, "$/progress", ProgressParams{Token: indexingProgressToken, Value: value}); err != nil {
		logging.Warnf("lsp: progress notify: %v", err)
	}
}
