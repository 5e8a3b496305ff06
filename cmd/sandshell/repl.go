package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/spf13/cobra"

	"sandshell/core/shell"
)

const defaultPrompt = `\u@\h:\w\$ `

// prompt renders PS1-style escapes against the current environment.
func prompt(env *shell.Environment) string {
	p := defaultPrompt

	user := "user"
	if v, ok := env.Lookup("USER"); ok {
		user = v
	}
	p = strings.ReplaceAll(p, `\u`, user)
	p = strings.ReplaceAll(p, `\h`, "sandbox")
	p = strings.ReplaceAll(p, `\w`, env.Cwd)
	p = strings.ReplaceAll(p, `\$`, "$")
	return p
}

// runREPL reads lines until EOF or an exit command.
func runREPL(ctx context.Context, cmd *cobra.Command, runner *shell.Runner, env *shell.Environment) error {
	cfg := &readline.Config{
		Stdin:  readline.NewCancelableStdin(cmd.InOrStdin()),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}
	if err := cfg.Init(); err != nil {
		return err
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		rl.SetPrompt(prompt(env))
		line, err := rl.Readline()

		switch {
		case err == io.EOF:
			return nil // Input closed, quit.

		case err == readline.ErrInterrupt:
			continue // Drop the partial line.

		case err != nil:
			return err

		case strings.TrimSpace(line) == "":
			continue

		case strings.TrimSpace(line) == "exit":
			return nil

		default:
			res := runner.Run(ctx, line, env)
			fmt.Fprint(cmd.OutOrStdout(), res.Stdout)
			fmt.Fprint(cmd.ErrOrStderr(), res.Stderr)
		}
	}
}
