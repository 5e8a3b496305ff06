package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"sandshell/commands"
	"sandshell/core/config"
	"sandshell/core/logger"
	"sandshell/core/shell"
)

var (
	cfgPath     string
	logPath     string
	commandLine string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sandshell [SCRIPT]...",
	Short: "Sandboxed shell",
	Long:  `A POSIX-style shell evaluated against an in-memory filesystem.`,
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		session, closeLog, err := openSessionLog()
		if err != nil {
			return err
		}
		defer closeLog()

		runner, env := newShell(cfg, session)
		session.SessionStart()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		switch {
		case commandLine != "":
			res := runner.Run(ctx, commandLine, env)
			fmt.Fprint(cmd.OutOrStdout(), res.Stdout)
			fmt.Fprint(cmd.ErrOrStderr(), res.Stderr)
			return exitCodeError(res.Code)

		case len(args) > 0:
			for _, script := range args {
				src, err := os.ReadFile(script)
				if err != nil {
					return err
				}
				res := runner.Run(ctx, string(src), env)
				fmt.Fprint(cmd.OutOrStdout(), res.Stdout)
				fmt.Fprint(cmd.ErrOrStderr(), res.Stderr)
				if res.Code != 0 {
					return exitCodeError(res.Code)
				}
			}
			return nil

		default:
			return runREPL(ctx, cmd, runner, env)
		}
	},
}

func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	return config.Load(afero.NewOsFs(), cfgPath)
}

// openSessionLog wires the JSON-lines event log. Without --log the
// session logger is nil, which disables recording.
func openSessionLog() (*logger.SessionLogger, func(), error) {
	if logPath == "" {
		return nil, func() {}, nil
	}
	fd, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	recorder := logger.NewJSONLinesLogRecorder(fd)
	session := recorder.NewSession(fmt.Sprintf("%d", time.Now().UnixNano()))
	return session, func() { fd.Close() }, nil
}

// newShell builds the interpreter over a fresh in-memory filesystem
// seeded with the usual top-level directories.
func newShell(cfg *config.Config, session *logger.SessionLogger) (*shell.Runner, *shell.Environment) {
	fs := afero.NewMemMapFs()
	for _, dir := range []string{"/bin", "/etc", "/home", "/tmp", "/usr"} {
		fs.MkdirAll(dir, 0755)
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	env := shell.NewEnvironment(rnd)

	runner := shell.NewRunner(fs, commands.Default.Resolver(), cfg)
	runner.Log = session
	return runner, env
}

type exitError int

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

func exitCodeError(code int) error {
	if code == 0 {
		return nil
	}
	return exitError(code)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if code, ok := err.(exitError); ok {
			os.Exit(int(code))
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a limits config file")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "append session events to this JSON-lines file")
	rootCmd.Flags().StringVarP(&commandLine, "command", "c", "", "evaluate this command line and exit")
}
