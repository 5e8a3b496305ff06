package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"sandshell/core/shell"
)

// Ls implements the ls command.
func Ls(ctx context.Context, proc *shell.Proc) int {
	cmd := &SimpleCommand{
		Use:   "ls [-al] [--color=WHEN] [FILE]...",
		Short: "List directory contents.",
	}

	opt := cmd.Flags()
	listAll := opt.Bool('a', "don't ignore entries starting with .")
	longListing := opt.Bool('l', "use a long listing format")

	var cp ColorPrinter
	cp.Init(opt)

	return cmd.Run(proc, func() int {
		targets := opt.Args()
		if len(targets) == 0 {
			targets = append(targets, ".")
		}
		sort.Strings(targets)

		showNames := len(targets) > 1
		exitCode := 0

		for i, target := range targets {
			full := shell.ResolvePath(proc.Env.Cwd, target)

			info, err := proc.FS.Stat(full)
			if err != nil {
				fmt.Fprintf(proc.Stderr, "ls: %s: No such file or directory\n", target)
				exitCode = 1
				continue
			}

			if !info.IsDir() {
				fmt.Fprintln(proc.Stdout, target)
				continue
			}

			entries, err := afero.ReadDir(proc.FS, full)
			if err != nil {
				fmt.Fprintf(proc.Stderr, "ls: %s: %v\n", target, err)
				exitCode = 1
				continue
			}

			if showNames {
				if i > 0 {
					fmt.Fprintln(proc.Stdout)
				}
				fmt.Fprintf(proc.Stdout, "%s:\n", target)
			}

			for _, entry := range entries {
				name := entry.Name()
				if !*listAll && strings.HasPrefix(name, ".") {
					continue
				}

				display := name
				if entry.IsDir() && cp.ShouldColor() {
					display = ColorBoldBlue.Sprint(name)
				}

				if *longListing {
					fmt.Fprintf(proc.Stdout, "%s %8d %s\n", entry.Mode(), entry.Size(), display)
				} else {
					fmt.Fprintln(proc.Stdout, display)
				}
			}
		}

		return exitCode
	})
}

var _ shell.CommandFunc = Ls

func init() {
	register("ls", Ls)
}
