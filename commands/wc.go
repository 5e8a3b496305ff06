package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"sandshell/core/shell"
)

// Wc implements the wc command.
func Wc(ctx context.Context, proc *shell.Proc) int {
	cmd := &SimpleCommand{
		Use:   "wc [-lwc] [FILE]...",
		Short: "Count lines, words, and bytes.",
	}

	opt := cmd.Flags()
	countLines := opt.Bool('l', "print the newline count")
	countWords := opt.Bool('w', "print the word count")
	countBytes := opt.Bool('c', "print the byte count")

	return cmd.Run(proc, func() int {
		// Default mirrors coreutils: all three.
		if !*countLines && !*countWords && !*countBytes {
			*countLines = true
			*countWords = true
			*countBytes = true
		}

		failed, ok := readInputs(proc, opt.Args(), func(r io.Reader) {
			data, err := io.ReadAll(r)
			if err != nil {
				return
			}
			text := string(data)

			var fields []string
			if *countLines {
				fields = append(fields, fmt.Sprintf("%d", strings.Count(text, "\n")))
			}
			if *countWords {
				fields = append(fields, fmt.Sprintf("%d", len(strings.Fields(text))))
			}
			if *countBytes {
				fields = append(fields, fmt.Sprintf("%d", len(data)))
			}
			fmt.Fprintln(proc.Stdout, strings.Join(fields, " "))
		})
		if !ok {
			fmt.Fprintf(proc.Stderr, "wc: %s: No such file or directory\n", failed)
			return 1
		}
		return 0
	})
}

var _ shell.CommandFunc = Wc

func init() {
	register("wc", Wc)
}
