// Package corerr defines the sentinel errors and LSP error-code mapping shared
// across the dispatcher and the components it orchestrates.
//
// Components never panic for control flow; they return one of these sentinels
// (wrapped with context via fmt.Errorf's %w) and the dispatcher maps the
// sentinel to an LSP error code before replying to the client.
package corerr

import (
	"errors"
	"fmt"
)

// Sentinel errors. Components wrap these with fmt.Errorf("...: %w", Err...)
// so callers can use errors.Is to classify a failure without string matching.
var (
	// ErrAlreadyOpen is returned by DocumentManager.Open when the URI is already tracked.
	ErrAlreadyOpen = errors.New("document already open")

	// ErrMissingDocument is returned when an operation targets an untracked URI.
	ErrMissingDocument = errors.New("document not tracked")

	// ErrUnknownWorkspace is returned when a workspace-scoped operation has no owning workspace.
	ErrUnknownWorkspace = errors.New("no workspace owns this resource")

	// ErrMethodNotImplemented is returned by a LanguageService that does not support a request.
	ErrMethodNotImplemented = errors.New("method not implemented by backend")

	// ErrCancelled is returned when a request's context was cancelled via $/cancelRequest.
	ErrCancelled = errors.New("request cancelled")

	// ErrCapabilityConflict is returned when a dynamic registration would conflict
	// with an existing one for the same (method, language) pair with different options.
	ErrCapabilityConflict = errors.New("capability registration conflict")

	// ErrInvariantViolation marks an internal bug (double reply, mis-tagged
	// dependency, ...). It is fault-logged by the caller; the server continues.
	ErrInvariantViolation = errors.New("internal invariant violation")
)

// Kind classifies an error for logging and metrics purposes. It does not
// replace errors.Is/As for control flow.
type Kind int

const (
	KindProtocol Kind = iota
	KindState
	KindBackend
	KindCancelled
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindProtocol:
		return "protocol"
	case KindState:
		return "state"
	case KindBackend:
		return "backend"
	case KindCancelled:
		return "cancelled"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Classify maps an error to a Kind using errors.Is against the sentinels
// above. Unrecognized errors are treated as protocol errors, matching the
// taxonomy's default for "ill-formed message / unknown method".
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	case errors.Is(err, ErrMethodNotImplemented):
		return KindBackend
	case errors.Is(err, ErrAlreadyOpen), errors.Is(err, ErrMissingDocument), errors.Is(err, ErrUnknownWorkspace), errors.Is(err, ErrCapabilityConflict):
		return KindState
	case errors.Is(err, ErrInvariantViolation):
		return KindInternal
	default:
		return KindProtocol
	}
}

// LSPCode is the subset of JSON-RPC/LSP error codes the dispatcher assigns
// based on Kind. Named RequestCancelled matches the LSP spec's reserved code.
const (
	CodeMethodNotFound    = -32601
	CodeInvalidParams     = -32602
	CodeInternalError     = -32603
	CodeRequestCancelled  = -32800
	CodeContentModified   = -32801
)

// LSPCode returns the JSON-RPC error code a dispatcher should use when
// replying to a request that failed with err.
func LSPCode(err error) int {
	switch Classify(err) {
	case KindCancelled:
		return CodeRequestCancelled
	case KindBackend:
		return CodeMethodNotFound
	case KindState:
		return CodeInvalidParams
	case KindProtocol:
		return CodeInvalidParams
	default:
		return CodeInternalError
	}
}

// Wrap annotates err with a component-local message while preserving errors.Is
// compatibility with the sentinel it wraps.
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
