// Package server assembles the process-level composition root: logging,
// configuration, the workspace router, the message handling queue, the
// cross-language rename engine, and the glsp transport, fronting both the
// DWScript and C-family LanguageService backends. Grounded on the teacher's
// cmd/go-dws-lsp/main.go (which built this wiring inline) and
// simon-lentz-yammm/lsp/server.go (slog-over-commonlog logging setup, and
// the cancelRequest/setTrace handler shape), split out into its own package
// the way bennypowers-cem separates lsp.NewServer from cmd/lsp.go.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple" // required logging backend for glsp
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/polylsp/polylsp/internal/backend/cfam"
	"github.com/polylsp/polylsp/internal/backend/dwscript"
	"github.com/polylsp/polylsp/internal/buildsystem"
	"github.com/polylsp/polylsp/internal/capability"
	"github.com/polylsp/polylsp/internal/config"
	"github.com/polylsp/polylsp/internal/document"
	"github.com/polylsp/polylsp/internal/index"
	"github.com/polylsp/polylsp/internal/langservice"
	"github.com/polylsp/polylsp/internal/progress"
	"github.com/polylsp/polylsp/internal/queue"
	"github.com/polylsp/polylsp/internal/rename"
	"github.com/polylsp/polylsp/internal/testindex"
	"github.com/polylsp/polylsp/internal/workspace"
)

// Name is the glsp server identity string reported to clients.
const Name = "lspcore-server"

// backendLookup implements rename.BackendLookup over the two concrete
// backends the Dispatcher owns.
type backendLookup struct {
	dw   *dwscript.Backend
	cfam *cfam.Backend
}

func (b *backendLookup) ForLanguage(lang index.Language) (langservice.LanguageService, bool) {
	switch lang {
	case dwscript.Language:
		return b.dw, true
	case cfam.Language:
		return b.cfam, true
	default:
		return nil, false
	}
}

func (b *backendLookup) ASTLanguage() index.Language      { return dwscript.Language }
func (b *backendLookup) CFamilyLanguage() index.Language   { return cfam.Language }

// Dispatcher owns every long-lived piece of server state: the DWScript and
// C-family backends, the shared document/index/test state the
// WorkspaceRouter and rename engine work over, and the MessageHandlingQueue
// every glsp handler submits its work through rather than running inline.
// One Dispatcher serves any number of workspace roots via router, matching
// SPEC_FULL.md §4.3 rather than the teacher's single-workspace assumption.
type Dispatcher struct {
	Logger *slog.Logger
	Config config.Config

	backend    *dwscript.Server
	glspServer *glspserver.Server

	dwBackend   *dwscript.Backend
	cfamBackend *cfam.Backend
	docs        *document.Manager
	memIndex    *index.MemoryIndex
	mq          *queue.Queue
	router      *workspace.Router
	testIndex   *testindex.Index
	progressMgr    *progress.Manager
	progressSender *notifySender
	renameEngine   *rename.Engine
}

// New builds a Dispatcher: it configures logging, silences commonlog in
// favor of slog (simon-lentz-yammm/lsp/server.go's pattern), constructs the
// DWScript and C-family backends plus the shared document/index/queue/
// router/progress/test-index state, and registers a glsp handler table
// whose entries are Dispatcher methods routing through that pipeline
// instead of binding backend handlers straight onto it.
func New(cfg config.Config, debug bool) (*Dispatcher, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	commonlog.Configure(0, nil)

	backend := dwscript.New()
	backend.UpdateConfig(func(c *dwscript.Config) {
		c.MaxProblems = cfg.MaxDiagnostics
	})
	dwscript.SetServer(backend)

	d := &Dispatcher{
		Logger:      logger,
		Config:      cfg,
		backend:     backend,
		dwBackend:   dwscript.NewBackend(backend),
		cfamBackend: cfam.NewBackend(),
		docs:        document.NewManager(),
		memIndex:    index.NewMemoryIndex(),
		mq:          queue.New(cfg.MaxConcurrency),
		testIndex:   testindex.NewIndex(dwscript.NewTestScanner()),
	}
	d.router = workspace.NewRouter(d.newWorkspace)
	d.renameEngine = &rename.Engine{
		Index:    d.memIndex,
		Docs:     d.docs,
		Backends: &backendLookup{dw: d.dwBackend, cfam: d.cfamBackend},
	}
	d.progressSender = newNotifySender()
	d.progressMgr = progress.NewManager(d.progressSender)

	handler := protocol.Handler{
		Initialize:  d.initialize,
		Initialized: d.initialized,
		Shutdown:    d.shutdown,
		SetTrace:    func(glspCtx *glsp.Context, params *protocol.SetTraceParams) error { return nil },
		CancelRequest: d.cancelRequest,

		TextDocumentDidOpen:    d.didOpen,
		TextDocumentDidChange:  d.didChange,
		TextDocumentDidClose:   d.didClose,
		TextDocumentCompletion: d.completion,
		TextDocumentHover:      d.hover,
		TextDocumentDefinition: d.definition,
		TextDocumentReferences: d.references,

		TextDocumentRename:                 d.rename,
		TextDocumentPrepareRename:          d.prepareRename,
		TextDocumentDocumentSymbol:         d.documentSymbol,
		WorkspaceSymbol:                    d.workspaceSymbol,
		WorkspaceDidChangeConfiguration:    dwscript.DidChangeConfiguration,
		WorkspaceDidChangeWorkspaceFolders: d.didChangeWorkspaceFolders,
	}

	d.glspServer = glspserver.NewServer(&handler, Name, debug)

	return d, nil
}

// newWorkspace is the WorkspaceRouter's implicit-workspace constructor
// (SPEC_FULL.md §4.3): it wires a fresh GlobBuildSystem plus the
// Dispatcher's shared semantic and test indexes into a new Workspace
// rooted at rootURI.
func (d *Dispatcher) newWorkspace(rootURI string) *workspace.Workspace {
	root := strings.TrimPrefix(rootURI, "file://")
	w := workspace.NewWorkspace(rootURI, buildsystem.NewGlobBuildSystem(root), capability.NewRegistry(nil))
	w.Index = d.memIndex
	w.TestIndex = d.testIndex
	return w
}

// backendFor picks the LanguageService serving uri by file extension: the
// WorkspaceRouter resolves which workspace ROOT owns a URI, not which
// language backend parses it, so that selection stays a Dispatcher-level
// concern (SPEC_FULL.md §4.3's router and §4.6's BackendLookup are
// deliberately separate axes).
func (d *Dispatcher) backendFor(uri document.URI) (langservice.LanguageService, index.Language, bool) {
	lower := strings.ToLower(uri)
	if strings.HasSuffix(lower, ".c") || strings.HasSuffix(lower, ".h") {
		return d.cfamBackend, cfam.Language, true
	}
	if strings.HasSuffix(lower, ".dws") {
		return d.dwBackend, dwscript.Language, true
	}
	return nil, "", false
}

// newLogger builds the application's slog logger per cfg.LogLevel/LogFile.
func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	out := os.Stderr
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		out = f
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("component", "server")), nil
}

func parseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}

// RunStdio serves over standard input/output.
func (d *Dispatcher) RunStdio() error {
	d.Logger.Info("starting stdio transport")
	return d.glspServer.RunStdio()
}

// RunTCP serves over TCP at address (e.g. "127.0.0.1:8765").
func (d *Dispatcher) RunTCP(address string) error {
	d.Logger.Info("starting tcp transport", slog.String("address", address))
	return d.glspServer.RunTCP(address)
}

// RunPipe serves a single client over a Unix domain socket at path. glsp's
// server.Server only exposes RunStdio/RunTCP/RunWebSocket/RunNodeJs (no
// named-pipe transport of its own — confirmed against bennypowers-cem's
// lsp/server.go, the one pack repo that exercises every one of those four),
// so --pipe is built from the stdlib instead: accept one connection on the
// socket, duplicate its file descriptor onto the process's stdin/stdout via
// net.UnixConn.File, and hand off to RunStdio. This only supports platforms
// with Unix domain sockets.
func (d *Dispatcher) RunPipe(path string) error {
	_ = os.Remove(path)

	listener, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("listening on pipe %s: %w", path, err)
	}
	defer listener.Close()

	d.Logger.Info("starting pipe transport", slog.String("path", path))

	conn, err := listener.Accept()
	if err != nil {
		return fmt.Errorf("accepting pipe connection: %w", err)
	}
	defer conn.Close()

	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return fmt.Errorf("pipe connection is not a unix socket: %T", conn)
	}

	f, err := unixConn.File()
	if err != nil {
		return fmt.Errorf("duplicating pipe file descriptor: %w", err)
	}
	defer f.Close()

	os.Stdin = f
	os.Stdout = f

	return d.glspServer.RunStdio()
}

// submit runs fn on d's MessageHandlingQueue under tag and blocks for its
// result, giving every handler real dependency tracking and out-of-band
// cancellation (SPEC_FULL.md §4.4/§5) without each one reimplementing the
// Submit/Wait/Err dance.
func submit[T any](d *Dispatcher, tag queue.Tag, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	task := d.mq.Submit(context.Background(), tag, "", func(taskCtx context.Context) error {
		r, err := fn(taskCtx)
		result = r
		return err
	})
	<-task.Wait()
	return result, task.Err()
}
