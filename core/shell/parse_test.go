package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, src string) Node {
	t.Helper()
	nodes, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	return nodes[0]
}

func TestParseSimple(t *testing.T) {
	node := parseOne(t, "echo hello world")
	simple, ok := node.(*Simple)
	require.True(t, ok)
	lit, _ := simple.Name.unquotedLit()
	assert.Equal(t, "echo", lit)
	require.Len(t, simple.Args, 2)
}

func TestParseQuoteTagging(t *testing.T) {
	node := parseOne(t, `echo 'single'"double $X"plain`)
	simple := node.(*Simple)
	require.Len(t, simple.Args, 1)
	parts := simple.Args[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, WordPart{Text: "single", Quote: SingleQuoted}, parts[0])
	assert.Equal(t, WordPart{Text: "double $X", Quote: DoubleQuoted}, parts[1])
	assert.Equal(t, WordPart{Text: "plain", Quote: Unquoted}, parts[2])
}

func TestParseExpansionsStayRaw(t *testing.T) {
	node := parseOne(t, "echo ${X:-d} $(date) $((1+2))")
	simple := node.(*Simple)
	require.Len(t, simple.Args, 3)
	assert.Equal(t, "${X:-d}", simple.Args[0].Parts[0].Text)
	assert.Equal(t, "$(date)", simple.Args[1].Parts[0].Text)
	assert.Equal(t, "$((1+2))", simple.Args[2].Parts[0].Text)
	for _, arg := range simple.Args {
		assert.Equal(t, Unquoted, arg.Parts[0].Quote)
	}
}

func TestParseAssignments(t *testing.T) {
	node := parseOne(t, "A=1 B='two' echo x")
	simple := node.(*Simple)
	require.Len(t, simple.Assigns, 2)
	assert.Equal(t, "A", simple.Assigns[0].Name)
	assert.Equal(t, "B", simple.Assigns[1].Name)

	node = parseOne(t, "A=1")
	simple = node.(*Simple)
	assert.True(t, simple.Name.empty())
	require.Len(t, simple.Assigns, 1)
}

func TestParsePipelineAndLists(t *testing.T) {
	node := parseOne(t, "a | b | c")
	pipe, ok := node.(*Pipeline)
	require.True(t, ok)
	assert.Len(t, pipe.Stages, 3)
	assert.False(t, pipe.Negate)

	node = parseOne(t, "! a | b")
	pipe = node.(*Pipeline)
	assert.True(t, pipe.Negate)
	assert.Len(t, pipe.Stages, 2)

	node = parseOne(t, "a && b || c")
	or, ok := node.(*Or)
	require.True(t, ok)
	_, ok = or.Left.(*And)
	assert.True(t, ok)
}

func TestParseControlFlow(t *testing.T) {
	node := parseOne(t, "if a; then b; elif c; then d; else e; fi")
	ifNode := node.(*If)
	require.Len(t, ifNode.Arms, 2)
	require.Len(t, ifNode.Else, 1)

	node = parseOne(t, "while a; do b; done")
	whileNode := node.(*While)
	assert.False(t, whileNode.Until)

	node = parseOne(t, "until a; do b; done")
	whileNode = node.(*While)
	assert.True(t, whileNode.Until)

	node = parseOne(t, "for x in 1 2 3; do echo $x; done")
	forNode := node.(*For)
	assert.Equal(t, "x", forNode.Var)
	assert.Len(t, forNode.Words, 3)

	node = parseOne(t, "case $x in a|b) echo ab;; *) echo other;; esac")
	caseNode := node.(*Case)
	require.Len(t, caseNode.Arms, 2)
	assert.Len(t, caseNode.Arms[0].Patterns, 2)
}

func TestParseGroupsAndFunctions(t *testing.T) {
	node := parseOne(t, "(a; b)")
	sub := node.(*Subshell)
	assert.Len(t, sub.Body, 2)

	node = parseOne(t, "{ a; b; }")
	group := node.(*BraceGroup)
	assert.Len(t, group.Body, 2)

	node = parseOne(t, "greet() { echo hi; }")
	fn := node.(*FunctionDef)
	assert.Equal(t, "greet", fn.Name)
	_, ok := fn.Body.(*BraceGroup)
	assert.True(t, ok)

	node = parseOne(t, "sleep 100 &")
	_, ok = node.(*Background)
	assert.True(t, ok)
}

func TestParseDeclClause(t *testing.T) {
	node := parseOne(t, "export FOO=bar BAZ")
	simple := node.(*Simple)
	name, _ := simple.Name.unquotedLit()
	assert.Equal(t, "export", name)
	require.Len(t, simple.Args, 2)
	assert.Equal(t, "FOO=", simple.Args[0].Parts[0].Text)
	assert.Equal(t, "bar", simple.Args[0].Parts[1].Text)
	assert.Equal(t, "BAZ", simple.Args[1].Parts[0].Text)

	node = parseOne(t, "local x=1")
	simple = node.(*Simple)
	name, _ = simple.Name.unquotedLit()
	assert.Equal(t, "local", name)
}

func TestParseRedirects(t *testing.T) {
	node := parseOne(t, "cmd <in >out 2>>err 2>&1")
	simple := node.(*Simple)
	require.Len(t, simple.Redirects, 4)

	assert.Equal(t, RedirRead, simple.Redirects[0].Kind)
	assert.Equal(t, 0, simple.Redirects[0].FD)

	assert.Equal(t, RedirWrite, simple.Redirects[1].Kind)
	assert.Equal(t, 1, simple.Redirects[1].FD)
	assert.False(t, simple.Redirects[1].Append)

	assert.Equal(t, RedirWrite, simple.Redirects[2].Kind)
	assert.Equal(t, 2, simple.Redirects[2].FD)
	assert.True(t, simple.Redirects[2].Append)

	assert.Equal(t, RedirDupOut, simple.Redirects[3].Kind)
	assert.Equal(t, 2, simple.Redirects[3].FD)
	assert.Equal(t, "1", rawText(simple.Redirects[3].Target))
}

func TestParseHeredoc(t *testing.T) {
	node := parseOne(t, "cat <<EOF\nline one\nline $X\nEOF\n")
	simple := node.(*Simple)
	require.Len(t, simple.Redirects, 1)
	assert.Equal(t, RedirHeredoc, simple.Redirects[0].Kind)
	assert.Equal(t, "line one\nline $X\n", rawText(simple.Redirects[0].Target))

	node = parseOne(t, "cat <<<word")
	simple = node.(*Simple)
	assert.Equal(t, RedirHereString, simple.Redirects[0].Kind)
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{"if true; then", "do done", "((", "echo 'unterminated"} {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			require.Error(t, err)
			assert.IsType(t, &ParseError{}, err)
		})
	}
}

func TestParseMultipleStatements(t *testing.T) {
	nodes, err := Parse("a; b\nc")
	require.NoError(t, err)
	assert.Len(t, nodes, 3)
}

func TestFormatRoundTrip(t *testing.T) {
	cases := []string{
		"echo hello world",
		"a | b | c",
		"! true",
		"a && b || c",
		"if a; then b; else c; fi",
		"while a; do b; done",
		"until a; do b; done",
		"for x in 1 2 3; do echo $x; done",
		"case $x in a) b;; *) c;; esac",
		"(a; b)",
		"{ a; b; }",
		"greet() { echo hi $1; }",
		"echo 'single quoted' \"double $X\"",
		"cmd <in >out",
		"A=1 cmd arg",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			first, err := Parse(src)
			require.NoError(t, err)
			printed := formatList(first)

			second, err := Parse(printed)
			require.NoError(t, err, "formatted output must reparse: %q", printed)
			assert.Equal(t, printed, formatList(second))
		})
	}
}
