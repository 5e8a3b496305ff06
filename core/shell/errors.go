package shell

import "fmt"

// Exit codes reported by the interpreter for its own failures. Commands
// and builtins choose their own codes.
const (
	ExitUsage           = 2   // parse and expansion failures
	ExitReadonly        = 1   // writes to readonly variables
	ExitCommandNotFound = 127 // name resolved to nothing
)

// ParseError reports input the grammar adapter could not turn into a
// command tree.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error: %s", e.Msg)
}

// ExpandError reports a failure during word expansion, including
// arithmetic evaluation and ${name?} style assertions.
type ExpandError struct {
	Msg string
}

func (e *ExpandError) Error() string {
	return e.Msg
}

func expandErrorf(format string, args ...interface{}) *ExpandError {
	return &ExpandError{Msg: fmt.Sprintf(format, args...)}
}

// ReadonlyError reports an attempt to assign to or unset a variable
// marked readonly.
type ReadonlyError struct {
	Name string
}

func (e *ReadonlyError) Error() string {
	return fmt.Sprintf("%s: readonly variable", e.Name)
}

// exitCodeFor maps interpreter errors to the code the shell reports.
func exitCodeFor(err error) int {
	switch err.(type) {
	case *ParseError:
		return ExitUsage
	case *ExpandError:
		return ExitUsage
	case *ReadonlyError:
		return ExitReadonly
	default:
		return 1
	}
}
