package testutil

import "testing"

// Given opens a subtest named after the state it sets up. When and Then nest
// inside it for the action and the expectation, so `go test -run` can target
// any step by its prefixed name.
func Given(t *testing.T, state string, fn func(t *testing.T)) bool {
	t.Helper()
	return t.Run("given "+state, fn)
}

func When(t *testing.T, action string, fn func(t *testing.T)) bool {
	t.Helper()
	return t.Run("when "+action, fn)
}

func Then(t *testing.T, outcome string, fn func(t *testing.T)) bool {
	t.Helper()
	return t.Run("then "+outcome, fn)
}
