package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentCloneIsolation(t *testing.T) {
	env := testEnv()
	env.Vars["A"] = "1"
	env.Funcs["f"] = &BraceGroup{}
	env.DirStack = []string{"/x"}

	clone := env.Clone()
	clone.Vars["A"] = "2"
	clone.Vars["B"] = "new"
	clone.Funcs["g"] = &BraceGroup{}
	clone.DirStack[0] = "/y"
	clone.Cwd = "/elsewhere"

	assert.Equal(t, "1", env.Vars["A"])
	_, ok := env.Vars["B"]
	assert.False(t, ok)
	_, ok = env.Funcs["g"]
	assert.False(t, ok)
	assert.Equal(t, "/x", env.DirStack[0])
	assert.Equal(t, "/", env.Cwd)
}

func TestEnvironmentLocalsShadowGlobals(t *testing.T) {
	env := testEnv()
	require.NoError(t, env.Set("X", "global"))

	env.Locals = map[string]string{}
	require.NoError(t, env.SetLocal("X", "local"))

	v, ok := env.Lookup("X")
	assert.True(t, ok)
	assert.Equal(t, "local", v)

	// Assignment routes to the existing local.
	require.NoError(t, env.Set("X", "updated"))
	assert.Equal(t, "updated", env.Locals["X"])
	assert.Equal(t, "global", env.Vars["X"])
}

func TestEnvironmentReadonly(t *testing.T) {
	env := testEnv()
	require.NoError(t, env.Set("R", "v"))
	assert.True(t, env.MarkReadonly("R"))

	err := env.Set("R", "other")
	require.Error(t, err)
	assert.IsType(t, &ReadonlyError{}, err)

	err = env.Unset("R")
	assert.Error(t, err)

	assert.False(t, env.MarkReadonly("NEVER_BOUND"))
}

func TestEnvironmentUnset(t *testing.T) {
	env := testEnv()
	require.NoError(t, env.Set("X", "1"))
	env.Exported["X"] = true

	require.NoError(t, env.Unset("X"))
	_, ok := env.Lookup("X")
	assert.False(t, ok)
	assert.False(t, env.Exported["X"])

	assert.NoError(t, env.Unset("NEVER_SET"))
}

func TestOptionFlags(t *testing.T) {
	env := testEnv()
	assert.Equal(t, "", env.OptionFlags())

	env.Opts.Errexit = true
	env.Opts.Xtrace = true
	assert.Equal(t, "ex", env.OptionFlags())

	env.Opts.Noglob = true
	env.Opts.Nounset = true
	assert.Equal(t, "efux", env.OptionFlags())
}
