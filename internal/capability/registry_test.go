package capability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterNoOpWithoutDynamicRegistration(t *testing.T) {
	r := NewRegistry(nil)
	called := false
	err := r.Register(Completion, map[string]any{"x": 1}, []string{"swift"}, func(id, method string, options any) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	require.False(t, called)
}

func TestRegisterSendsAndRecordsBeforeCallback(t *testing.T) {
	r := NewRegistry(map[Kind]bool{Completion: true})
	var seenMethod, seenID string
	err := r.Register(Completion, map[string]any{"triggerCharacters": []string{"."}}, []string{"swift"}, func(id, method string, options any) error {
		seenID, seenMethod = id, method
		require.Len(t, r.registrations[Completion], 1) // recorded before callback resolves
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "textDocument/completion", seenMethod)
	require.NotEmpty(t, seenID)
}

func TestRegisterRollsBackOnRejection(t *testing.T) {
	r := NewRegistry(map[Kind]bool{Completion: true})
	rejectErr := errors.New("client rejected")
	err := r.Register(Completion, nil, []string{"swift"}, func(id, method string, options any) error {
		return rejectErr
	})
	require.ErrorIs(t, err, rejectErr)
	require.Empty(t, r.registrations[Completion])
}

func TestRegisterDuplicateSameOptionsIsSilentNoOp(t *testing.T) {
	r := NewRegistry(map[Kind]bool{Completion: true})
	opts := map[string]any{"x": 1}
	calls := 0
	register := func(id, method string, options any) error { calls++; return nil }

	require.NoError(t, r.Register(Completion, opts, []string{"swift"}, register))
	require.NoError(t, r.Register(Completion, opts, []string{"swift"}, register))
	require.Equal(t, 1, calls)
}

func TestRegisterDuplicateDifferentOptionsFaults(t *testing.T) {
	r := NewRegistry(map[Kind]bool{Completion: true})
	register := func(id, method string, options any) error { return nil }

	require.NoError(t, r.Register(Completion, map[string]any{"x": 1}, []string{"swift"}, register))
	err := r.Register(Completion, map[string]any{"x": 2}, []string{"swift"}, register)
	require.Error(t, err)
}

func TestRegisterCommandsOnlyRegistersDelta(t *testing.T) {
	r := NewRegistry(map[Kind]bool{ExecuteCommand: true})
	var sentCommands []string
	register := func(id, method string, options any) error {
		sentCommands = options.(map[string]any)["commands"].([]string)
		return nil
	}

	require.NoError(t, r.RegisterCommands([]string{"a", "b"}, register))
	require.Equal(t, []string{"a", "b"}, sentCommands)

	sentCommands = nil
	require.NoError(t, r.RegisterCommands([]string{"a", "b", "c"}, register))
	require.Equal(t, []string{"c"}, sentCommands)
}

func TestRegisterCommandsNoOpWhenNothingNew(t *testing.T) {
	r := NewRegistry(map[Kind]bool{ExecuteCommand: true})
	calls := 0
	register := func(id, method string, options any) error { calls++; return nil }
	require.NoError(t, r.RegisterCommands([]string{"a"}, register))
	require.NoError(t, r.RegisterCommands([]string{"a"}, register))
	require.Equal(t, 1, calls)
}

func TestRegisterFileWatchingUnregistersPriorBeforeRegisteringNew(t *testing.T) {
	r := NewRegistry(map[Kind]bool{WorkspaceFileWatching: true})
	var order []string
	register := func(id, method string, options any) error {
		order = append(order, "register:"+id)
		return nil
	}
	unregister := func(id, method string) error {
		order = append(order, "unregister:"+id)
		return nil
	}

	require.NoError(t, r.RegisterFileWatching("globsetA", register, unregister))
	firstID := r.fileWatchRegistrationID
	require.NotEmpty(t, firstID)

	require.NoError(t, r.RegisterFileWatching("globsetB", register, unregister))
	require.Equal(t, []string{
		"register:" + firstID,
		"unregister:" + firstID,
		"register:" + r.fileWatchRegistrationID,
	}, order)
	require.NotEqual(t, firstID, r.fileWatchRegistrationID)
}

func TestExperimentalCapabilityAcceptsBoolOrObject(t *testing.T) {
	r := NewRegistry(nil)
	r.SetExperimental("foo", true)
	require.True(t, r.SupportsExperimental("foo"))

	r.SetExperimental("bar", map[string]any{"supported": true})
	require.True(t, r.SupportsExperimental("bar"))

	r.SetExperimental("baz", map[string]any{"supported": false})
	require.False(t, r.SupportsExperimental("baz"))

	require.False(t, r.SupportsExperimental("unknown"))
}
