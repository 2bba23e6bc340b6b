package server

import (
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/polylsp/polylsp/internal/progress"
)

// notifySender implements progress.Sender over *glsp.Context.Notify, the
// package's doc comment wrapping it calls for: every WorkDoneProgress kind
// becomes a $/progress notification carrying the token and a
// begin/report/end value, the same pattern PublishDiagnostics
// (dwscript/diagnostics.go) uses for textDocument/publishDiagnostics. glsp
// hands the Dispatcher a fresh *glsp.Context per inbound message rather
// than one long-lived context progress.Manager could be built with, so
// notifySender is updated with the request's context at the top of every
// handler that may trigger progress (see updateContext) and used lazily
// from there.
type notifySender struct {
	mu      sync.Mutex
	context *glsp.Context
}

func newNotifySender() *notifySender { return &notifySender{} }

func (s *notifySender) updateContext(context *glsp.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = context
}

func (s *notifySender) Begin(token progress.Token, title string) {
	s.notify(token, protocol.WorkDoneProgressBegin{Kind: "begin", Title: title})
}

func (s *notifySender) Report(token progress.Token, message string, percentage *int) {
	var pct *uint32
	if percentage != nil {
		v := uint32(*percentage)
		pct = &v
	}
	s.notify(token, protocol.WorkDoneProgressReport{Kind: "report", Message: message, Percentage: pct})
}

func (s *notifySender) End(token progress.Token, message string) {
	s.notify(token, protocol.WorkDoneProgressEnd{Kind: "end", Message: message})
}

func (s *notifySender) notify(token progress.Token, value any) {
	s.mu.Lock()
	context := s.context
	s.mu.Unlock()

	if context == nil || context.Notify == nil {
		return
	}
	context.Notify(protocol.MethodProgress, protocol.ProgressParams{
		Token: protocol.ProgressToken(string(token)),
		Value: value,
	})
}

var _ progress.Sender = (*notifySender)(nil)
