package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"sandshell/core/shell"
)

// expandSet turns a tr set like "a-z0-9" into its member runes.
// Malformed ranges keep their literal characters.
func expandSet(set string) []rune {
	runes := []rune(set)
	var out []rune
	for i := 0; i < len(runes); i++ {
		if i+2 < len(runes) && runes[i+1] == '-' && runes[i] <= runes[i+2] {
			for r := runes[i]; r <= runes[i+2]; r++ {
				out = append(out, r)
			}
			i += 2
			continue
		}
		out = append(out, runes[i])
	}
	return out
}

// Tr implements the tr command.
func Tr(ctx context.Context, proc *shell.Proc) int {
	cmd := &SimpleCommand{
		Use:   "tr [-d] SET1 [SET2]",
		Short: "Translate or delete characters read from stdin.",
	}

	opt := cmd.Flags()
	del := opt.Bool('d', "delete characters in SET1 rather than translating")

	return cmd.Run(proc, func() int {
		args := opt.Args()

		switch {
		case *del && len(args) == 1:
			drop := make(map[rune]bool)
			for _, r := range expandSet(args[0]) {
				drop[r] = true
			}
			data, _ := io.ReadAll(proc.Stdin)
			out := strings.Map(func(r rune) rune {
				if drop[r] {
					return -1
				}
				return r
			}, string(data))
			fmt.Fprint(proc.Stdout, out)
			return 0

		case !*del && len(args) == 2:
			from := expandSet(args[0])
			to := expandSet(args[1])
			if len(from) == 0 || len(to) == 0 {
				fmt.Fprintln(proc.Stderr, "tr: empty set")
				return 1
			}
			table := make(map[rune]rune, len(from))
			for i, r := range from {
				// SET2 is padded with its last member, matching
				// coreutils.
				j := i
				if j >= len(to) {
					j = len(to) - 1
				}
				table[r] = to[j]
			}
			data, _ := io.ReadAll(proc.Stdin)
			out := strings.Map(func(r rune) rune {
				if repl, ok := table[r]; ok {
					return repl
				}
				return r
			}, string(data))
			fmt.Fprint(proc.Stdout, out)
			return 0

		default:
			fmt.Fprintln(proc.Stderr, "tr: wrong number of arguments")
			return shell.ExitUsage
		}
	})
}

var _ shell.CommandFunc = Tr

func init() {
	register("tr", Tr)
}
