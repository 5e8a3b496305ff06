package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"sandshell/core/shell"
)

// Head implements the head command.
func Head(ctx context.Context, proc *shell.Proc) int {
	cmd := &SimpleCommand{
		Use:   "head [-n COUNT] [FILE]...",
		Short: "Print the first lines of each input.",
	}

	opt := cmd.Flags()
	count := opt.Int('n', 10, "number of lines to print")

	return cmd.Run(proc, func() int {
		failed, ok := readInputs(proc, opt.Args(), func(r io.Reader) {
			scanner := bufio.NewScanner(r)
			for printed := 0; printed < *count && scanner.Scan(); printed++ {
				fmt.Fprintln(proc.Stdout, scanner.Text())
			}
		})
		if !ok {
			fmt.Fprintf(proc.Stderr, "head: %s: No such file or directory\n", failed)
			return 1
		}
		return 0
	})
}

var _ shell.CommandFunc = Head

func init() {
	register("head", Head)
}
