package progress

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	begins  []Token
	reports []string
	ends    []Token
}

func (f *fakeSender) Begin(token Token, title string) { f.begins = append(f.begins, token) }
func (f *fakeSender) Report(token Token, message string, percentage *int) {
	f.reports = append(f.reports, message)
}
func (f *fakeSender) End(token Token, message string) { f.ends = append(f.ends, token) }

func TestProgressSuppressedBeforeInitialized(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender)
	token := NewToken()

	m.Begin(token, "indexing")
	m.Update(token, "50%", nil)
	m.Close(token, "done")

	require.Empty(t, sender.begins)
	require.Empty(t, sender.reports)
	require.Empty(t, sender.ends)
}

func TestUpdateSuppressesUnchangedMessage(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender)
	m.ServerInitialized()
	token := NewToken()

	m.Begin(token, "indexing")
	m.Update(token, "half done", nil)
	m.Update(token, "half done", nil) // no change, should be suppressed
	m.Update(token, "almost done", nil)

	require.Equal(t, []string{"half done", "almost done"}, sender.reports)
}

func TestCloseEndsScopeOnlyOnce(t *testing.T) {
	sender := &fakeSender{}
	m := NewManager(sender)
	m.ServerInitialized()
	token := NewToken()

	m.Begin(token, "indexing")
	m.Close(token, "done")
	m.Close(token, "done again")

	require.Len(t, sender.ends, 1)
}

func TestSharedCountedOpensOnceAndClosesOnLastEnd(t *testing.T) {
	sender := &fakeSender{}
	mgr := NewManager(sender)
	mgr.ServerInitialized()
	shared := NewSharedCounted(mgr, "backend crashed, restoring")

	shared.Start()
	shared.Start()
	shared.Start()
	require.Len(t, sender.begins, 1, "scope should open only on the 0->1 edge")

	shared.End()
	shared.End()
	require.Empty(t, sender.ends, "scope should stay open while refcount > 0")

	shared.End()
	require.Len(t, sender.ends, 1, "scope should close on the 1->0 edge")
}
