package shell

import (
	"sort"
	"strings"
)

// RandSource supplies the randomness behind $RANDOM and session ids.
// Tests plug in a fixed sequence; the CLI wires math/rand.
type RandSource interface {
	Uint64() uint64
}

// Options holds the set -o and shopt toggles the interpreter honors.
type Options struct {
	Errexit  bool // set -e
	Nounset  bool // set -u
	Xtrace   bool // set -x
	Noglob   bool // set -f
	Pipefail bool // set -o pipefail

	Extglob     bool
	Nullglob    bool
	Dotglob     bool
	Nocasematch bool
	Nocaseglob  bool
	Globstar    bool
}

// Environment is the mutable state a command tree executes against.
// Subshells and command substitutions run against a Clone so their
// writes stay contained.
type Environment struct {
	Cwd      string
	PrevCwd  string
	DirStack []string

	Vars     map[string]string
	Exported map[string]bool
	Readonly map[string]bool
	Funcs    map[string]Node

	Arg0       string
	Positional []string

	// Locals is non-nil only while a function body runs.
	Locals     map[string]string
	InFunction bool

	Opts          Options
	LastExit      int
	SessionID     int
	SubshellDepth int

	Rand RandSource

	// Control-flow bookkeeping consumed by the interpreter.
	loopDepth     int
	breakLevel    int
	continueLevel int
	returning     bool
	returnCode    int
}

// NewEnvironment builds a fresh top-level environment rooted at /.
func NewEnvironment(rand RandSource) *Environment {
	env := &Environment{
		Cwd:      "/",
		PrevCwd:  "/",
		Vars:     map[string]string{},
		Exported: map[string]bool{},
		Readonly: map[string]bool{},
		Funcs:    map[string]Node{},
		Arg0:     "sh",
		Rand:     rand,
	}
	if rand != nil {
		env.SessionID = int(rand.Uint64()%90000) + 10000
	} else {
		env.SessionID = 10000
	}
	return env
}

// Clone deep-copies the environment for a subshell or substitution.
// The random source is shared so $RANDOM keeps advancing.
func (e *Environment) Clone() *Environment {
	out := &Environment{
		Cwd:           e.Cwd,
		PrevCwd:       e.PrevCwd,
		DirStack:      append([]string(nil), e.DirStack...),
		Vars:          copyStrings(e.Vars),
		Exported:      copyBools(e.Exported),
		Readonly:      copyBools(e.Readonly),
		Funcs:         copyFuncs(e.Funcs),
		Arg0:          e.Arg0,
		Positional:    append([]string(nil), e.Positional...),
		InFunction:    e.InFunction,
		Opts:          e.Opts,
		LastExit:      e.LastExit,
		SessionID:     e.SessionID,
		SubshellDepth: e.SubshellDepth,
		Rand:          e.Rand,
	}
	if e.Locals != nil {
		out.Locals = copyStrings(e.Locals)
	}
	return out
}

// Lookup resolves a variable, checking function locals before the
// global table.
func (e *Environment) Lookup(name string) (string, bool) {
	if e.Locals != nil {
		if v, ok := e.Locals[name]; ok {
			return v, true
		}
	}
	v, ok := e.Vars[name]
	return v, ok
}

// Set assigns a variable, routing to the local table when the name is
// already local. Writes to readonly names fail.
func (e *Environment) Set(name, value string) error {
	if e.Readonly[name] {
		return &ReadonlyError{Name: name}
	}
	if e.Locals != nil {
		if _, ok := e.Locals[name]; ok {
			e.Locals[name] = value
			return nil
		}
	}
	e.Vars[name] = value
	return nil
}

// SetLocal assigns into the function-local table.
func (e *Environment) SetLocal(name, value string) error {
	if e.Readonly[name] {
		return &ReadonlyError{Name: name}
	}
	e.Locals[name] = value
	return nil
}

// Unset removes a variable binding. Readonly names cannot be unset;
// unsetting an absent name is fine.
func (e *Environment) Unset(name string) error {
	if e.Readonly[name] {
		return &ReadonlyError{Name: name}
	}
	if e.Locals != nil {
		delete(e.Locals, name)
	}
	delete(e.Vars, name)
	delete(e.Exported, name)
	return nil
}

// MarkReadonly freezes an already-bound name.
func (e *Environment) MarkReadonly(name string) bool {
	if _, ok := e.Lookup(name); !ok {
		return false
	}
	e.Readonly[name] = true
	return true
}

// OptionFlags renders the active single-letter options for $-.
func (e *Environment) OptionFlags() string {
	var b strings.Builder
	if e.Opts.Errexit {
		b.WriteByte('e')
	}
	if e.Opts.Noglob {
		b.WriteByte('f')
	}
	if e.Opts.Nounset {
		b.WriteByte('u')
	}
	if e.Opts.Xtrace {
		b.WriteByte('x')
	}
	return b.String()
}

// ExportedNames returns the sorted names marked for export, used by
// the export builtin's listing mode.
func (e *Environment) ExportedNames() []string {
	names := make([]string, 0, len(e.Exported))
	for name := range e.Exported {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func copyStrings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyBools(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyFuncs(in map[string]Node) map[string]Node {
	out := make(map[string]Node, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
