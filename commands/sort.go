package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"

	"sandshell/core/shell"
)

// Sort implements the sort command.
func Sort(ctx context.Context, proc *shell.Proc) int {
	cmd := &SimpleCommand{
		Use:   "sort [-ru] [FILE]...",
		Short: "Sort lines of text.",
	}

	opt := cmd.Flags()
	reverse := opt.Bool('r', "reverse the result of comparisons")
	unique := opt.Bool('u', "output only the first of equal lines")

	return cmd.Run(proc, func() int {
		var lines []string
		failed, ok := readInputs(proc, opt.Args(), func(r io.Reader) {
			scanner := bufio.NewScanner(r)
			for scanner.Scan() {
				lines = append(lines, scanner.Text())
			}
		})
		if !ok {
			fmt.Fprintf(proc.Stderr, "sort: %s: No such file or directory\n", failed)
			return 1
		}

		sort.Strings(lines)
		if *unique {
			deduped := lines[:0]
			for i, line := range lines {
				if i == 0 || line != lines[i-1] {
					deduped = append(deduped, line)
				}
			}
			lines = deduped
		}
		if *reverse {
			for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
				lines[i], lines[j] = lines[j], lines[i]
			}
		}

		for _, line := range lines {
			fmt.Fprintln(proc.Stdout, line)
		}
		return 0
	})
}

var _ shell.CommandFunc = Sort

func init() {
	register("sort", Sort)
}
