package commands

import (
	"context"
	"fmt"
	"strconv"

	"sandshell/core/shell"
)

// Test implements the test command. Exit code 0 means the expression
// held, 1 means it didn't, 2 means the expression was malformed.
func Test(ctx context.Context, proc *shell.Proc) int {
	return evalTest(proc, proc.Args[1:])
}

// OpenBracket implements "[", which is test with a mandatory closing
// "]" argument.
func OpenBracket(ctx context.Context, proc *shell.Proc) int {
	args := proc.Args[1:]
	if len(args) == 0 || args[len(args)-1] != "]" {
		fmt.Fprintln(proc.Stderr, "[: missing `]'")
		return shell.ExitUsage
	}
	return evalTest(proc, args[:len(args)-1])
}

func evalTest(proc *shell.Proc, args []string) int {
	if len(args) > 0 && args[0] == "!" {
		switch code := evalTest(proc, args[1:]); code {
		case 0:
			return 1
		case 1:
			return 0
		default:
			return code
		}
	}

	boolCode := func(ok bool) int {
		if ok {
			return 0
		}
		return 1
	}

	switch len(args) {
	case 0:
		return 1
	case 1:
		// Bare string is true when non-empty.
		return boolCode(args[0] != "")
	case 2:
		arg := args[1]
		switch args[0] {
		case "-z":
			return boolCode(arg == "")
		case "-n":
			return boolCode(arg != "")
		case "-e", "-f", "-d":
			full := shell.ResolvePath(proc.Env.Cwd, arg)
			info, err := proc.FS.Stat(full)
			if err != nil {
				return 1
			}
			switch args[0] {
			case "-f":
				return boolCode(!info.IsDir())
			case "-d":
				return boolCode(info.IsDir())
			default:
				return 0
			}
		}
	case 3:
		lhs, op, rhs := args[0], args[1], args[2]
		switch op {
		case "=", "==":
			return boolCode(lhs == rhs)
		case "!=":
			return boolCode(lhs != rhs)
		case "-eq", "-ne", "-lt", "-le", "-gt", "-ge":
			l, lerr := strconv.ParseInt(lhs, 10, 64)
			r, rerr := strconv.ParseInt(rhs, 10, 64)
			if lerr != nil || rerr != nil {
				fmt.Fprintln(proc.Stderr, "test: integer expression expected")
				return shell.ExitUsage
			}
			switch op {
			case "-eq":
				return boolCode(l == r)
			case "-ne":
				return boolCode(l != r)
			case "-lt":
				return boolCode(l < r)
			case "-le":
				return boolCode(l <= r)
			case "-gt":
				return boolCode(l > r)
			default:
				return boolCode(l >= r)
			}
		}
	}

	fmt.Fprintln(proc.Stderr, "test: unsupported expression")
	return shell.ExitUsage
}

var (
	_ shell.CommandFunc = Test
	_ shell.CommandFunc = OpenBracket
)

func init() {
	register("test", Test)
	register("[", OpenBracket)
}
