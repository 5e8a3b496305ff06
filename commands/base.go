// Package commands holds the sandboxed command library the shell
// dispatches to when a name is neither a builtin nor a function.
// Commands only see their Proc: argv, captured streams, the sandbox
// filesystem, and the calling environment.
package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	getopt "github.com/pborman/getopt/v2"

	"sandshell/core/shell"
)

// Registry maps command names to implementations.
type Registry map[string]shell.CommandFunc

// Default holds every command registered by this package's init
// functions.
var Default = make(Registry)

func register(name string, cmd shell.CommandFunc) {
	Default[name] = cmd
}

// Resolver adapts the registry to the interpreter's lookup hook.
func (r Registry) Resolver() shell.CommandResolver {
	return func(name string) shell.CommandFunc {
		return r[name]
	}
}

// SimpleCommand handles the boilerplate of flag parsing and help
// output shared by most commands.
type SimpleCommand struct {
	// Use holds a one line usage string
	Use string
	// Short holds a one line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help
	// flag isn't added.
	ShowHelp *bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run the command, if flag parsing was successful call the callback.
func (s *SimpleCommand) Run(proc *shell.Proc, callback func() int) int {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	if err := opts.Getopt(proc.Args, nil); err != nil {
		fmt.Fprintf(proc.Stderr, "error: %s\n\n", err)

		s.PrintHelp(proc.Stdout)
		return 1
	}

	if *s.ShowHelp {
		s.PrintHelp(proc.Stdout)
		return 0
	}

	return callback()
}

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

var (
	ColorBoldBlue  = color.New(color.FgBlue, color.Bold)
	ColorBoldGreen = color.New(color.FgGreen, color.Bold)
	ColorBoldCyan  = color.New(color.FgCyan, color.Bold)
	ColorBoldRed   = color.New(color.FgRed, color.Bold)
)

// ColorPrinter gates ANSI color output behind a --color flag.
type ColorPrinter struct {
	value *string
}

// Init sets up the flag used to determine the color output.
func (c *ColorPrinter) Init(flags *getopt.Set) {
	c.value = flags.EnumLong(
		"color",
		rune(0), // No short flag.
		[]string{colorAlways, colorAuto, colorNever},
		colorAuto,
		"colorize the output (always|auto|never)")
}

func (c *ColorPrinter) ShouldColor() bool {
	// Streams are always captured buffers, never terminals, so auto
	// means off.
	return *c.value == colorAlways
}

// readInputs hands each input to the callback: the named files when
// arguments exist, stdin otherwise. Returns the name of the first
// file that failed to open.
func readInputs(proc *shell.Proc, args []string, fn func(r io.Reader)) (string, bool) {
	if len(args) == 0 {
		fn(proc.Stdin)
		return "", true
	}
	for _, arg := range args {
		full := shell.ResolvePath(proc.Env.Cwd, arg)
		f, err := proc.FS.Open(full)
		if err != nil {
			return arg, false
		}
		fn(f)
		f.Close()
	}
	return "", true
}
