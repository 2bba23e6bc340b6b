// Package capability tracks a workspace's client-declared static
// capabilities and the server's own dynamic registrations, and negotiates
// registration/unregistration against the client (SPEC_FULL.md §4.2).
package capability

import (
	"fmt"

	"github.com/segmentio/ksuid"

	"github.com/polylsp/polylsp/internal/corerr"
)

// Kind identifies one of the dynamically-registrable capability families.
type Kind int

const (
	Completion Kind = iota
	SignatureHelp
	FoldingRange
	SemanticTokens
	InlayHint
	PullDiagnostics
	WorkspaceFileWatching
	ExecuteCommand
)

func (k Kind) method() string {
	switch k {
	case Completion:
		return "textDocument/completion"
	case SignatureHelp:
		return "textDocument/signatureHelp"
	case FoldingRange:
		return "textDocument/foldingRange"
	case SemanticTokens:
		return "textDocument/semanticTokens"
	case InlayHint:
		return "textDocument/inlayHint"
	case PullDiagnostics:
		return "textDocument/diagnostic"
	case WorkspaceFileWatching:
		return "workspace/didChangeWatchedFiles"
	case ExecuteCommand:
		return "workspace/executeCommand"
	default:
		return "unknown"
	}
}

// RegisterCapabilityFunc abstracts the transport call that sends a
// client/registerCapability request. It returns an error if the client
// rejects the registration.
type RegisterCapabilityFunc func(id, method string, options any) error

// UnregisterCapabilityFunc abstracts client/unregisterCapability.
type UnregisterCapabilityFunc func(id, method string) error

type registration struct {
	id        string
	options   any
	languages map[string]bool
}

func optionsEqual(a, b any) bool {
	return fmt.Sprintf("%#v", a) == fmt.Sprintf("%#v", b)
}

// Registry is one instance per workspace.
type Registry struct {
	dynamicRegistrationSupported map[Kind]bool

	registrations map[Kind][]*registration

	commandIDs map[string]bool

	fileWatchRegistrationID string

	experimental map[string]bool
}

// NewRegistry creates a Registry seeded with the client's statically declared
// dynamic-registration support per kind.
func NewRegistry(dynamicRegistrationSupported map[Kind]bool) *Registry {
	if dynamicRegistrationSupported == nil {
		dynamicRegistrationSupported = map[Kind]bool{}
	}
	return &Registry{
		dynamicRegistrationSupported: dynamicRegistrationSupported,
		registrations:                make(map[Kind][]*registration),
		commandIDs:                   make(map[string]bool),
		experimental:                 make(map[string]bool),
	}
}

// SupportsDynamicRegistration reports the client's static declaration for kind.
func (r *Registry) SupportsDynamicRegistration(kind Kind) bool {
	return r.dynamicRegistrationSupported[kind]
}

// Register negotiates a dynamic registration for kind across languages. It
// follows the shared flow from SPEC_FULL.md §4.2: no-op if the client never
// declared dynamic registration for this kind; no-op (or fault) if an
// existing registration already covers any requested language; otherwise
// synthesizes a registration id, records it before calling register (so
// concurrent duplicate registrations are blocked), and rolls back on
// rejection.
func (r *Registry) Register(kind Kind, options any, languages []string, register RegisterCapabilityFunc) error {
	if !r.dynamicRegistrationSupported[kind] {
		return nil
	}

	langSet := make(map[string]bool, len(languages))
	for _, l := range languages {
		langSet[l] = true
	}

	for _, existing := range r.registrations[kind] {
		for l := range langSet {
			if existing.languages[l] {
				if !optionsEqual(existing.options, options) {
					return corerr.Wrap(
						fmt.Sprintf("capability %s already registered for %s with different options", kind.method(), l),
						corerr.ErrCapabilityConflict,
					)
				}
				return nil
			}
		}
	}

	id := ksuid.New().String()
	reg := &registration{id: id, options: options, languages: langSet}
	r.registrations[kind] = append(r.registrations[kind], reg)

	if err := register(id, kind.method(), options); err != nil {
		r.removeRegistration(kind, id)
		return err
	}
	return nil
}

func (r *Registry) removeRegistration(kind Kind, id string) {
	regs := r.registrations[kind]
	for i, reg := range regs {
		if reg.id == id {
			r.registrations[kind] = append(regs[:i], regs[i+1:]...)
			return
		}
	}
}

// RegisterCommands registers only the command ids not already known,
// matching VS Code's rule that re-registering a known command id is
// rejected by the client.
func (r *Registry) RegisterCommands(commandIDs []string, register RegisterCapabilityFunc) error {
	if !r.dynamicRegistrationSupported[ExecuteCommand] {
		return nil
	}

	var delta []string
	for _, id := range commandIDs {
		if !r.commandIDs[id] {
			delta = append(delta, id)
		}
	}
	if len(delta) == 0 {
		return nil
	}

	regID := ksuid.New().String()
	if err := register(regID, ExecuteCommand.method(), map[string]any{"commands": delta}); err != nil {
		return err
	}
	for _, id := range delta {
		r.commandIDs[id] = true
	}
	return nil
}

// RegisterFileWatching unregisters any prior watcher registration (there is
// a single active watcher set) before submitting the new one.
func (r *Registry) RegisterFileWatching(watchers any, register RegisterCapabilityFunc, unregister UnregisterCapabilityFunc) error {
	if !r.dynamicRegistrationSupported[WorkspaceFileWatching] {
		return nil
	}

	if r.fileWatchRegistrationID != "" {
		if err := unregister(r.fileWatchRegistrationID, WorkspaceFileWatching.method()); err != nil {
			return err
		}
		r.fileWatchRegistrationID = ""
	}

	id := ksuid.New().String()
	if err := register(id, WorkspaceFileWatching.method(), watchers); err != nil {
		return err
	}
	r.fileWatchRegistrationID = id
	return nil
}

// SetExperimental records a client-reported experimental capability, which
// LSP permits to be either a bare bool or an object of the shape
// {"supported": true}.
func (r *Registry) SetExperimental(name string, raw any) {
	switch v := raw.(type) {
	case bool:
		r.experimental[name] = v
	case map[string]any:
		if supported, ok := v["supported"].(bool); ok {
			r.experimental[name] = supported
		} else {
			r.experimental[name] = true
		}
	default:
		r.experimental[name] = raw != nil
	}
}

// SupportsExperimental reports whether the client declared support for a
// named experimental capability.
func (r *Registry) SupportsExperimental(name string) bool {
	return r.experimental[name]
}
