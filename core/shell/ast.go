package shell

// Node is a single statement in a parsed command tree. The grammar
// adapter in parse.go builds these from source text; the interpreter in
// interp.go walks them.
type Node interface {
	node()
}

// Quote records how a fragment of a word was quoted in the source.
// Single-quoted text is inert, double-quoted text expands but never
// globs or word-splits, and unquoted text gets the full treatment.
type Quote int

const (
	Unquoted Quote = iota
	SingleQuoted
	DoubleQuoted
)

// WordPart is a contiguous run of word text under one quoting regime.
// For single-quoted parts Text is the final literal value. For the
// other two it is raw source text still subject to expansion.
type WordPart struct {
	Text  string
	Quote Quote
}

// Word is the concatenation of its parts. "a"'b'$c is three parts.
type Word struct {
	Parts []WordPart
}

func litWord(text string) Word {
	return Word{Parts: []WordPart{{Text: text}}}
}

// empty reports whether the word has no parts at all.
func (w Word) empty() bool {
	return len(w.Parts) == 0
}

// unquotedLit reports whether the word is a single unquoted part, the
// only shape brace expansion and tilde expansion apply to.
func (w Word) unquotedLit() (string, bool) {
	if len(w.Parts) == 1 && w.Parts[0].Quote == Unquoted {
		return w.Parts[0].Text, true
	}
	return "", false
}

// Assign is one name=value prefix on a simple command.
type Assign struct {
	Name  string
	Value Word
}

// RedirKind discriminates the redirection forms a simple command can
// carry.
type RedirKind int

const (
	// RedirRead feeds a file to the command's input.
	RedirRead RedirKind = iota
	// RedirWrite truncates or appends the command's output to a file.
	RedirWrite
	// RedirHeredoc feeds inline document text, expanded like a
	// double-quoted string, to the command's input.
	RedirHeredoc
	// RedirHereString feeds a single expanded word plus a newline to
	// the command's input.
	RedirHereString
	// RedirDupOut duplicates an output descriptor (2>&1, 1>&2).
	RedirDupOut
	// RedirDupIn duplicates an input descriptor (<&0).
	RedirDupIn
)

// Redirect is one redirection operator attached to a simple command.
// Target holds the path, document body, word, or descriptor number
// depending on Kind.
type Redirect struct {
	Kind   RedirKind
	FD     int
	Target Word
	Append bool
}

// Simple is one command invocation: optional assignment prefixes, a
// name word, argument words, and redirections. A Simple with an empty
// Name carries assignments only.
type Simple struct {
	Assigns   []Assign
	Name      Word
	Args      []Word
	Redirects []Redirect
}

// Pipeline connects stages so each one's output feeds the next one's
// input. Negate flips the final exit code between zero and one.
type Pipeline struct {
	Stages []Node
	Negate bool
}

// And runs Right only when Left exits zero.
type And struct {
	Left, Right Node
}

// Or runs Right only when Left exits non-zero.
type Or struct {
	Left, Right Node
}

// If holds one or more condition/body arms plus an optional else body.
type If struct {
	Arms []IfArm
	Else []Node
}

type IfArm struct {
	Cond []Node
	Body []Node
}

// While loops while the condition list exits zero, or non-zero when
// Until is set.
type While struct {
	Until bool
	Cond  []Node
	Body  []Node
}

// For binds Var to each expanded word in turn and runs the body.
type For struct {
	Var   string
	Words []Word
	Body  []Node
}

// Case runs the body of the first arm whose pattern set matches the
// expanded subject.
type Case struct {
	Subject Word
	Arms    []CaseArm
}

type CaseArm struct {
	Patterns []Word
	Body     []Node
}

// Subshell runs its body in a cloned environment whose mutations do
// not reach the parent.
type Subshell struct {
	Body []Node
}

// BraceGroup runs its body in the current environment.
type BraceGroup struct {
	Body []Node
}

// FunctionDef binds Name to Body in the environment's function table.
type FunctionDef struct {
	Name string
	Body Node
}

// Background marks a statement launched with &. Execution is still
// synchronous; the marker only affects formatting and $!.
type Background struct {
	Body Node
}

func (*Simple) node()      {}
func (*Pipeline) node()    {}
func (*And) node()         {}
func (*Or) node()          {}
func (*If) node()          {}
func (*While) node()       {}
func (*For) node()         {}
func (*Case) node()        {}
func (*Subshell) node()    {}
func (*BraceGroup) node()  {}
func (*FunctionDef) node() {}
func (*Background) node()  {}
