package commands

import (
	"context"
	"fmt"
	"io"

	"sandshell/core/shell"
)

// Cat implements the cat command over the sandbox filesystem.
func Cat(ctx context.Context, proc *shell.Proc) int {
	cmd := &SimpleCommand{
		Use:   "cat [FILE]...",
		Short: "Concatenate files to standard output.",
	}

	opt := cmd.Flags()
	return cmd.Run(proc, func() int {
		failed, ok := readInputs(proc, opt.Args(), func(r io.Reader) {
			io.Copy(proc.Stdout, r)
		})
		if !ok {
			fmt.Fprintf(proc.Stderr, "cat: %s: No such file or directory\n", failed)
			return 1
		}
		return 0
	})
}

var _ shell.CommandFunc = Cat

func init() {
	register("cat", Cat)
}
