package shell

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seqRand struct {
	vals []uint64
	next int
}

func (s *seqRand) Uint64() uint64 {
	v := s.vals[s.next%len(s.vals)]
	s.next++
	return v
}

func testEnv() *Environment {
	env := NewEnvironment(&seqRand{vals: []uint64{7}})
	return env
}

func TestExpandPassthrough(t *testing.T) {
	// Text without expansion triggers comes through unchanged.
	cases := []string{
		"",
		"hello",
		"hello world",
		"/usr/local/bin",
		"a=b;c:d",
		"100%",
	}
	env := testEnv()
	for _, tc := range cases {
		t.Run(tc, func(t *testing.T) {
			for _, dq := range []bool{false, true} {
				got, err := expandString(tc, env, dq)
				require.NoError(t, err)
				assert.Equal(t, tc, got)
			}
		})
	}
}

func TestExpandVariables(t *testing.T) {
	env := testEnv()
	env.Vars["NAME"] = "world"
	env.Vars["EMPTY"] = ""

	cases := map[string]string{
		"hello $NAME":    "hello world",
		"hello ${NAME}":  "hello world",
		"$NAME$NAME":     "worldworld",
		"${NAME}s":       "worlds",
		"$MISSING":       "",
		"x${MISSING}x":   "xx",
		"$EMPTY.":      ".",
		"trailing $":   "trailing $",
		"${#NAME}":     "5",
		"cost: $5":     "cost: ",
	}
	for input, want := range cases {
		t.Run(input, func(t *testing.T) {
			got, err := expandString(input, env, false)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestExpandSpecialVariables(t *testing.T) {
	env := testEnv()
	env.Cwd = "/var/log"
	env.PrevCwd = "/etc"
	env.LastExit = 3
	env.Positional = []string{"one", "two"}

	cases := map[string]string{
		"$HOME":     "/",
		"$USER":     "user",
		"$LOGNAME":  "user",
		"$HOSTNAME": "sandbox",
		"$SHELL":    "/bin/sh",
		"$PWD":      "/var/log",
		"$OLDPWD":   "/etc",
		"$SHLVL":    "0",
		"$LINENO":   "1",
		"$SECONDS":  "0",
		"$?":        "3",
		"$#":        "2",
		"$*":        "one two",
		"$@":        "one two",
		"$1":        "one",
		"$2":        "two",
		"$3":        "",
		"$0":        "sh",
		"$!":        "",
	}
	for input, want := range cases {
		t.Run(input, func(t *testing.T) {
			got, err := expandString(input, env, false)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestExpandSpecialsShadowing(t *testing.T) {
	// Assignments never shadow the fixed shell variables.
	env := testEnv()
	env.Vars["HOME"] = "/home/other"

	got, err := expandString("$HOME", env, false)
	require.NoError(t, err)
	assert.Equal(t, "/", got)
}

func TestExpandRandomAndSession(t *testing.T) {
	env := NewEnvironment(&seqRand{vals: []uint64{40000, 7, 32769}})
	// The session id consumes the first random value.
	assert.Equal(t, 50000, env.SessionID)
	assert.Equal(t, fmt.Sprintf("%d", env.SessionID), mustExpand(t, env, "$$"))
	assert.Equal(t, "7", mustExpand(t, env, "$RANDOM"))
	assert.Equal(t, "1", mustExpand(t, env, "$RANDOM"))
}

func mustExpand(t *testing.T, env *Environment, input string) string {
	t.Helper()
	got, err := expandString(input, env, false)
	require.NoError(t, err)
	return got
}

func TestExpandBracedOperators(t *testing.T) {
	env := testEnv()
	env.Vars["SET"] = "value"
	env.Vars["EMPTY"] = ""

	cases := map[string]string{
		"${SET:-fallback}":     "value",
		"${EMPTY:-fallback}":   "fallback",
		"${MISSING:-fallback}": "fallback",
		"${EMPTY-fallback}":    "",
		"${MISSING-fallback}":  "fallback",
		"${EMPTY:=fallback}":   "fallback",
		"${SET:=fallback}":     "value",
		"${SET:+alt}":          "alt",
		"${EMPTY:+alt}":        "",
		"${MISSING:+alt}":      "",
		"${SET+alt}":           "alt",
		"${EMPTY+alt}":         "alt",
		"${MISSING+alt}":       "",
		"${SET:?message}":      "value",
	}
	for input, want := range cases {
		t.Run(input, func(t *testing.T) {
			got, err := expandString(input, env, false)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestAssignOperatorDoesNotPersist(t *testing.T) {
	env := testEnv()
	assert.Equal(t, "seed", mustExpand(t, env, "${NEW:=seed}"))
	_, ok := env.Lookup("NEW")
	assert.False(t, ok)
}

func TestExpandAssertErrors(t *testing.T) {
	env := testEnv()
	env.Vars["EMPTY"] = ""

	for _, input := range []string{"${MISSING:?}", "${EMPTY:?is empty}", "${MISSING?}"} {
		t.Run(input, func(t *testing.T) {
			_, err := expandString(input, env, false)
			require.Error(t, err)
			assert.IsType(t, &ExpandError{}, err)
		})
	}

	_, err := expandString("${EMPTY?}", env, false)
	assert.NoError(t, err, "plain ? only fires when unset")
}

func TestExpandTrimOperators(t *testing.T) {
	env := testEnv()
	env.Vars["FILE"] = "archive.tar.gz"
	env.Vars["PATHVAR"] = "/usr/local/bin"

	cases := map[string]string{
		"${FILE#*.}":     "tar.gz",
		"${FILE##*.}":    "gz",
		"${FILE%.*}":     "archive.tar",
		"${FILE%%.*}":    "archive",
		"${FILE#xyz}":    "archive.tar.gz",
		"${FILE%xyz}":    "archive.tar.gz",
		"${PATHVAR##*/}": "bin",
		"${PATHVAR%/*}":  "/usr/local",
	}
	for input, want := range cases {
		t.Run(input, func(t *testing.T) {
			got, err := expandString(input, env, false)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestExpandReplaceAndCase(t *testing.T) {
	env := testEnv()
	env.Vars["WORD"] = "banana"
	env.Vars["GREETING"] = "hello"
	env.Vars["LOUD"] = "STOP"

	cases := map[string]string{
		"${WORD/a/o}":     "bonana",
		"${WORD//a/o}":    "bonono",
		"${WORD/na/}":     "bana",
		"${GREETING^}":    "Hello",
		"${GREETING^^}":   "HELLO",
		"${LOUD,}":        "sTOP",
		"${LOUD,,}":       "stop",
		"${MISSING/a/b}":  "",
		"${MISSING^^}":    "",
	}
	for input, want := range cases {
		t.Run(input, func(t *testing.T) {
			got, err := expandString(input, env, false)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestExpandSubstring(t *testing.T) {
	env := testEnv()
	env.Vars["V"] = "hello world"

	cases := map[string]string{
		"${V:6}":    "world",
		"${V:0:5}":  "hello",
		"${V:4:3}":  "o w",
		"${V: -5}":  "world",
		"${V:99}":   "",
		"${V:6:99}": "world",
	}
	for input, want := range cases {
		t.Run(input, func(t *testing.T) {
			got, err := expandString(input, env, false)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestExpandNounset(t *testing.T) {
	env := testEnv()
	env.Opts.Nounset = true
	env.Vars["SET"] = "x"

	_, err := expandString("$MISSING", env, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MISSING: unbound variable")

	got, err := expandString("$SET", env, false)
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	// Specials never trip nounset.
	_, err = expandString("$HOME$?$#", env, false)
	assert.NoError(t, err)
}

func TestExpandDoubleQuoteBackslash(t *testing.T) {
	env := testEnv()
	env.Vars["X"] = "v"

	cases := map[string]string{
		`\$X`:  "$X",
		`\\`:   `\`,
		`\"`:   `"`,
		`\n`:   `\n`,
		`a\tb`: `a\tb`,
	}
	for input, want := range cases {
		t.Run(input, func(t *testing.T) {
			got, err := expandString(input, env, true)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	// Outside double quotes the backslash is ordinary text.
	got, err := expandString(`a\b`, env, false)
	require.NoError(t, err)
	assert.Equal(t, `a\b`, got)
}

func TestExpandCommandSubstitutionMarkers(t *testing.T) {
	env := testEnv()

	got, err := expandString("a $(echo hi) b", env, false)
	require.NoError(t, err)
	assert.Equal(t, "a "+cmdSubOpen+"echo hi"+cmdSubClose+" b", got)

	got, err = expandString("`date`", env, false)
	require.NoError(t, err)
	assert.Equal(t, cmdSubOpen+"date"+cmdSubClose, got)

	// Nested parens stay inside one marker.
	got, err = expandString("$(echo $(echo x))", env, false)
	require.NoError(t, err)
	assert.Equal(t, cmdSubOpen+"echo $(echo x)"+cmdSubClose, got)
}

func TestExpandArithmeticExpansion(t *testing.T) {
	env := testEnv()
	env.Vars["N"] = "6"
	env.Vars["WORDS"] = "abc"

	cases := map[string]string{
		"$((1+2))":      "3",
		"$((N*7))":      "42",
		"$(($N*7))":     "42",
		"$((WORDS+1))":  "1",
		"$((MISSING))":  "0",
		"eq $((2==2))":  "eq 1",
	}
	for input, want := range cases {
		t.Run(input, func(t *testing.T) {
			got, err := expandString(input, env, false)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err := expandString("$((1/0))", env, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")
}

func TestExpandLengthAndCount(t *testing.T) {
	env := testEnv()
	env.Vars["V"] = "héllo"
	env.Positional = []string{"a", "b", "c"}

	assert.Equal(t, "5", mustExpand(t, env, "${#V}"))
	assert.Equal(t, "0", mustExpand(t, env, "${#MISSING}"))
	assert.Equal(t, "3", mustExpand(t, env, "${#}"))
	assert.Equal(t, "3", mustExpand(t, env, "$#"))
}
