// Package progress implements WorkDoneProgress (SPEC_FULL.md §4.8): a
// per-task manager whose begin/report/end messages are keyed by a
// client-chosen token, and a shared counted manager built on top of it for
// workspace-level states multiple callers may enter concurrently (e.g. "a
// backend crashed, restoring"). Grounded on the teacher's
// CompletionCache/SemanticTokensCache pattern of small, single-purpose
// structs each owning their own lock, generalized here to the progress
// token lifecycle SPEC_FULL.md §4.8 and §4 Data Model describe.
package progress

import (
	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
)

// Token is a WorkDoneProgressToken; SPEC_FULL.md's Data Model calls these
// "UUID-derived".
type Token string

// NewToken mints a fresh progress token.
func NewToken() Token { return Token(uuid.NewString()) }

// Sender delivers the three WorkDoneProgress notification kinds to the
// client; glsp's *glsp.Context.Notify satisfies this when wrapped.
type Sender interface {
	Begin(token Token, title string)
	Report(token Token, message string, percentage *int)
	End(token Token, message string)
}

type state struct {
	message    string
	percentage *int
	begun      bool
}

// Manager is the per-task progress manager (SPEC_FULL.md §4.8 variant 1):
// begin is sent by Begin (once per token), report on every Update that
// changes (message, percentage), end on Close. Update does not send begin
// for a token that Begin has not opened. All methods no-op until
// ServerInitialized is called, since the client forbids progress
// notifications before initialize has replied.
type Manager struct {
	mu          deadlock.Mutex
	sender      Sender
	initialized bool
	tasks       map[Token]*state
}

// NewManager creates a Manager that delivers notifications through sender.
func NewManager(sender Sender) *Manager {
	return &Manager{sender: sender, tasks: make(map[Token]*state)}
}

// ServerInitialized unblocks progress delivery; call once the initialize
// response has been sent.
func (m *Manager) ServerInitialized() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = true
}

// Begin starts a scope under token with the given title.
func (m *Manager) Begin(token Token, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return
	}
	if _, exists := m.tasks[token]; exists {
		return
	}
	m.tasks[token] = &state{begun: true}
	m.sender.Begin(token, title)
}

// Update reports message/percentage for token, suppressing the
// notification if neither value changed since the last Update
// (SPEC_FULL.md §4.8 variant 1).
func (m *Manager) Update(token Token, message string, percentage *int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return
	}
	st, ok := m.tasks[token]
	if !ok {
		st = &state{}
		m.tasks[token] = st
	}
	if st.message == message && equalPercentage(st.percentage, percentage) {
		return
	}
	st.message = message
	st.percentage = percentage
	m.sender.Report(token, message, percentage)
}

// Close ends the scope under token.
func (m *Manager) Close(token Token, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[token]; !ok {
		return
	}
	delete(m.tasks, token)
	if m.initialized {
		m.sender.End(token, message)
	}
}

func equalPercentage(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// SharedCounted is the shared counted manager (SPEC_FULL.md §4.8 variant
// 2): Start/End increment/decrement a refcount; the underlying per-task
// Manager scope is created on the 0→1 edge and torn down on the 1→0 edge.
type SharedCounted struct {
	mu      deadlock.Mutex
	manager *Manager
	token   Token
	title   string
	count   int
}

// NewSharedCounted creates a refcounted scope titled title, delivered
// through manager.
func NewSharedCounted(manager *Manager, title string) *SharedCounted {
	return &SharedCounted{manager: manager, title: title}
}

// Start increments the refcount, opening the underlying scope on the 0→1
// edge.
func (s *SharedCounted) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	if s.count == 1 {
		s.token = NewToken()
		s.manager.Begin(s.token, s.title)
	}
}

// End decrements the refcount, closing the underlying scope on the 1→0
// edge.
func (s *SharedCounted) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return
	}
	s.count--
	if s.count == 0 {
		s.manager.Close(s.token, "")
	}
}
