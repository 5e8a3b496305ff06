// Package shell interprets a POSIX-flavored command language against a
// virtual filesystem and a pluggable command registry. Nothing here
// touches the host: files come from an afero.Fs, commands from a
// resolver, and randomness from an injected source, so a hostile line
// of input can only ever mutate the sandbox.
package shell

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/afero"

	"sandshell/core/config"
	"sandshell/core/logger"
)

// Result is the captured outcome of running a command tree.
type Result struct {
	Stdout string
	Stderr string
	Code   int
}

// Proc is the view of the world handed to a registry command: its
// argv (argv[0] is the command name), the environment it runs under,
// captured standard streams, and the sandbox filesystem.
type Proc struct {
	Args   []string
	Env    *Environment
	FS     afero.Fs
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// CommandFunc is one runnable command. The return value is its exit
// code.
type CommandFunc func(ctx context.Context, proc *Proc) int

// CommandResolver maps a command name to its implementation, or nil
// when the name is unknown.
type CommandResolver func(name string) CommandFunc

// Runner executes parsed statements. It is stateless across calls;
// everything mutable lives in the Environment.
type Runner struct {
	FS       afero.Fs
	Resolver CommandResolver
	Config   *config.Config
	Log      *logger.SessionLogger
}

// NewRunner wires a runner. A nil config gets defaults and a nil
// resolver makes every name unknown.
func NewRunner(fs afero.Fs, resolver CommandResolver, cfg *config.Config) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Runner{FS: fs, Resolver: resolver, Config: cfg}
}

// Run parses and executes one line (or several). The environment's
// last exit status is updated to the result code.
func (r *Runner) Run(ctx context.Context, line string, env *Environment) Result {
	nodes, err := Parse(line)
	if err != nil {
		r.Log.ParseError(line, err)
		return Result{Stderr: err.Error() + "\n", Code: exitCodeFor(err)}
	}
	res := r.runSequence(ctx, nodes, env, nil)
	env.LastExit = res.Code
	return res
}

// runSequence executes statements in order, stopping early for
// break/continue/return propagation and for errexit.
func (r *Runner) runSequence(ctx context.Context, nodes []Node, env *Environment, stdin []byte) Result {
	var out, errb strings.Builder
	code := 0
	for _, node := range nodes {
		res := r.exec(ctx, node, env, stdin)
		out.WriteString(res.Stdout)
		errb.WriteString(res.Stderr)
		code = res.Code
		env.LastExit = code
		if env.returning || env.breakLevel > 0 || env.continueLevel > 0 {
			break
		}
		if env.Opts.Errexit && code != 0 {
			break
		}
	}
	return Result{Stdout: out.String(), Stderr: errb.String(), Code: code}
}

func (r *Runner) exec(ctx context.Context, node Node, env *Environment, stdin []byte) Result {
	switch t := node.(type) {
	case *Simple:
		return r.execSimple(ctx, t, env, stdin)
	case *Pipeline:
		return r.execPipeline(ctx, t, env, stdin)
	case *And:
		left := r.exec(ctx, t.Left, env, stdin)
		env.LastExit = left.Code
		if left.Code != 0 || env.returning {
			return left
		}
		right := r.exec(ctx, t.Right, env, stdin)
		return combine(left, right)
	case *Or:
		left := r.exec(ctx, t.Left, env, stdin)
		env.LastExit = left.Code
		if left.Code == 0 || env.returning {
			return left
		}
		right := r.exec(ctx, t.Right, env, stdin)
		return combine(left, right)
	case *If:
		return r.execIf(ctx, t, env, stdin)
	case *While:
		return r.execWhile(ctx, t, env, stdin)
	case *For:
		return r.execFor(ctx, t, env, stdin)
	case *Case:
		return r.execCase(ctx, t, env, stdin)
	case *Subshell:
		child := env.Clone()
		child.SubshellDepth++
		if child.SubshellDepth > r.Config.MaxSubshellDepth {
			return Result{Stderr: "maximum subshell depth exceeded\n", Code: 1}
		}
		return r.runSequence(ctx, t.Body, child, stdin)
	case *BraceGroup:
		return r.runSequence(ctx, t.Body, env, stdin)
	case *FunctionDef:
		env.Funcs[t.Name] = t.Body
		return Result{}
	case *Background:
		// No job control: & runs to completion before the next
		// statement, it just never contributes a $!.
		return r.exec(ctx, t.Body, env, stdin)
	default:
		return Result{Stderr: "unsupported statement\n", Code: 1}
	}
}

func combine(left, right Result) Result {
	return Result{
		Stdout: left.Stdout + right.Stdout,
		Stderr: left.Stderr + right.Stderr,
		Code:   right.Code,
	}
}

func (r *Runner) execPipeline(ctx context.Context, p *Pipeline, env *Environment, stdin []byte) Result {
	var errb strings.Builder
	data := stdin
	code := 0
	lastFailure := 0
	for _, stage := range p.Stages {
		res := r.exec(ctx, stage, env, data)
		errb.WriteString(res.Stderr)
		data = []byte(res.Stdout)
		code = res.Code
		if res.Code != 0 {
			lastFailure = res.Code
		}
		env.LastExit = res.Code
	}
	if env.Opts.Pipefail && lastFailure != 0 {
		code = lastFailure
	}
	if p.Negate {
		if code == 0 {
			code = 1
		} else {
			code = 0
		}
	}
	return Result{Stdout: string(data), Stderr: errb.String(), Code: code}
}

func (r *Runner) execIf(ctx context.Context, n *If, env *Environment, stdin []byte) Result {
	var out, errb strings.Builder
	for _, arm := range n.Arms {
		cond := r.runSequence(ctx, arm.Cond, env, stdin)
		out.WriteString(cond.Stdout)
		errb.WriteString(cond.Stderr)
		if env.returning {
			return Result{Stdout: out.String(), Stderr: errb.String(), Code: cond.Code}
		}
		if cond.Code == 0 {
			body := r.runSequence(ctx, arm.Body, env, stdin)
			out.WriteString(body.Stdout)
			errb.WriteString(body.Stderr)
			return Result{Stdout: out.String(), Stderr: errb.String(), Code: body.Code}
		}
	}
	if len(n.Else) > 0 {
		body := r.runSequence(ctx, n.Else, env, stdin)
		out.WriteString(body.Stdout)
		errb.WriteString(body.Stderr)
		return Result{Stdout: out.String(), Stderr: errb.String(), Code: body.Code}
	}
	return Result{Stdout: out.String(), Stderr: errb.String(), Code: 0}
}

func (r *Runner) execWhile(ctx context.Context, n *While, env *Environment, stdin []byte) Result {
	var out, errb strings.Builder
	code := 0
	env.loopDepth++
	defer func() { env.loopDepth-- }()
	for iter := 0; ; iter++ {
		if iter >= r.Config.MaxLoopIterations {
			errb.WriteString("loop iteration limit exceeded\n")
			code = 1
			break
		}
		cond := r.runSequence(ctx, n.Cond, env, stdin)
		out.WriteString(cond.Stdout)
		errb.WriteString(cond.Stderr)
		if env.returning {
			code = cond.Code
			break
		}
		passed := cond.Code == 0
		if n.Until {
			passed = !passed
		}
		if !passed {
			break
		}
		body := r.runSequence(ctx, n.Body, env, stdin)
		out.WriteString(body.Stdout)
		errb.WriteString(body.Stderr)
		code = body.Code
		if stop := loopControl(env); stop {
			break
		}
		if env.returning {
			break
		}
		if env.Opts.Errexit && code != 0 {
			break
		}
	}
	return Result{Stdout: out.String(), Stderr: errb.String(), Code: code}
}

func (r *Runner) execFor(ctx context.Context, n *For, env *Environment, stdin []byte) Result {
	var out, errb strings.Builder
	x := &expander{runner: r, ctx: ctx, env: env}
	var items []string
	for _, w := range n.Words {
		candidates := []Word{w}
		if lit, ok := w.unquotedLit(); ok && strings.ContainsRune(lit, '{') {
			candidates = candidates[:0]
			for _, b := range expandBraces(lit) {
				candidates = append(candidates, litWord(b))
			}
		}
		for _, cand := range candidates {
			text, _, err := x.word(cand)
			if err != nil {
				return errorResult(err, x)
			}
			items = append(items, strings.Fields(text)...)
		}
	}

	code := 0
	env.loopDepth++
	defer func() { env.loopDepth-- }()
	for iter, item := range items {
		if iter >= r.Config.MaxLoopIterations {
			errb.WriteString("loop iteration limit exceeded\n")
			code = 1
			break
		}
		if err := env.Set(n.Var, item); err != nil {
			errb.WriteString(err.Error() + "\n")
			code = exitCodeFor(err)
			break
		}
		body := r.runSequence(ctx, n.Body, env, stdin)
		out.WriteString(body.Stdout)
		errb.WriteString(body.Stderr)
		code = body.Code
		if stop := loopControl(env); stop {
			break
		}
		if env.returning {
			break
		}
		if env.Opts.Errexit && code != 0 {
			break
		}
	}
	return Result{Stdout: out.String(), Stderr: x.stderr.String() + errb.String(), Code: code}
}

// loopControl consumes one level of a pending break or continue and
// reports whether the current loop should stop.
func loopControl(env *Environment) bool {
	if env.breakLevel > 0 {
		env.breakLevel--
		return true
	}
	if env.continueLevel > 0 {
		env.continueLevel--
		if env.continueLevel > 0 {
			return true
		}
	}
	return false
}

func (r *Runner) execCase(ctx context.Context, n *Case, env *Environment, stdin []byte) Result {
	x := &expander{runner: r, ctx: ctx, env: env}
	subject, _, err := x.word(n.Subject)
	if err != nil {
		return errorResult(err, x)
	}
	for _, arm := range n.Arms {
		for _, pat := range arm.Patterns {
			text, _, err := x.word(pat)
			if err != nil {
				return errorResult(err, x)
			}
			if matchPattern(text, subject, env.Opts.Nocasematch) {
				res := r.runSequence(ctx, arm.Body, env, stdin)
				res.Stderr = x.stderr.String() + res.Stderr
				return res
			}
		}
	}
	return Result{Stderr: x.stderr.String()}
}

func (r *Runner) execSimple(ctx context.Context, s *Simple, env *Environment, stdin []byte) Result {
	x := &expander{runner: r, ctx: ctx, env: env}

	name := ""
	if !s.Name.empty() {
		text, _, err := x.word(s.Name)
		if err != nil {
			return errorResult(err, x)
		}
		name = tildeExpand(s.Name, text)
	}

	args, err := x.args(s.Args)
	if err != nil {
		return errorResult(err, x)
	}

	var trace string
	if env.Opts.Xtrace && name != "" {
		trace = "+ " + strings.Join(append([]string{name}, args...), " ") + "\n"
	}

	for _, as := range s.Assigns {
		value, _, err := x.word(as.Value)
		if err != nil {
			return errorResult(err, x)
		}
		if err := env.Set(as.Name, value); err != nil {
			return Result{Stderr: x.stderr.String() + trace + err.Error() + "\n", Code: exitCodeFor(err)}
		}
	}

	if name == "" {
		return Result{Stderr: x.stderr.String() + trace}
	}

	stdinData, errRes := r.gatherInput(s.Redirects, x, stdin)
	if errRes != nil {
		errRes.Stderr = x.stderr.String() + trace + errRes.Stderr
		return *errRes
	}

	var res Result
	switch {
	case builtins[name] != nil:
		res = builtins[name](r, ctx, env, args)
	case env.Funcs[name] != nil:
		res = r.callFunction(ctx, env.Funcs[name], args, env, stdinData)
	default:
		fn := r.resolve(name)
		if fn == nil {
			r.Log.UnknownCommand(name, args)
			res = Result{Stderr: name + ": command not found\n", Code: ExitCommandNotFound}
		} else {
			res = r.runProcess(ctx, fn, append([]string{name}, args...), env, stdinData)
			r.Log.CommandRun(name, args, res.Code)
		}
	}

	res = r.applyOutputRedirects(res, s.Redirects, x)
	res.Stderr = x.stderr.String() + trace + res.Stderr
	return res
}

func (r *Runner) resolve(name string) CommandFunc {
	if r.Resolver == nil {
		return nil
	}
	return r.Resolver(name)
}

// gatherInput resolves input redirections to the byte slice the
// command will read. The last input redirection wins.
func (r *Runner) gatherInput(redirects []Redirect, x *expander, stdin []byte) ([]byte, *Result) {
	data := stdin
	for _, rd := range redirects {
		switch rd.Kind {
		case RedirRead:
			path, _, err := x.word(rd.Target)
			if err != nil {
				return nil, &Result{Stderr: err.Error() + "\n", Code: exitCodeFor(err)}
			}
			full := resolvePath(x.env.Cwd, path)
			content, err := afero.ReadFile(r.FS, full)
			if err != nil {
				return nil, &Result{Stderr: path + ": No such file or directory\n", Code: 1}
			}
			data = content
		case RedirHeredoc:
			body, err := expandString(rawText(rd.Target), x.env, true)
			if err != nil {
				return nil, &Result{Stderr: err.Error() + "\n", Code: exitCodeFor(err)}
			}
			body, err = x.runner.resolveSubstitutions(x.ctx, body, x.env, &x.stderr)
			if err != nil {
				return nil, &Result{Stderr: err.Error() + "\n", Code: exitCodeFor(err)}
			}
			data = []byte(body)
		case RedirHereString:
			text, _, err := x.word(rd.Target)
			if err != nil {
				return nil, &Result{Stderr: err.Error() + "\n", Code: exitCodeFor(err)}
			}
			data = []byte(text + "\n")
		case RedirDupIn:
			target := rawText(rd.Target)
			if target != "0" {
				return nil, &Result{Stderr: target + ": bad file descriptor\n", Code: 1}
			}
		}
	}
	return data, nil
}

// applyOutputRedirects rewrites the captured streams per the command's
// output redirections, in source order. File writes land on the
// sandbox filesystem; descriptor duplication merges streams.
func (r *Runner) applyOutputRedirects(res Result, redirects []Redirect, x *expander) Result {
	for _, rd := range redirects {
		switch rd.Kind {
		case RedirWrite:
			path, _, err := x.word(rd.Target)
			if err != nil {
				res.Stderr += err.Error() + "\n"
				res.Code = exitCodeFor(err)
				return res
			}
			var payload string
			switch rd.FD {
			case 1:
				payload = res.Stdout
				res.Stdout = ""
			case 2:
				payload = res.Stderr
				res.Stderr = ""
			default:
				res.Stderr += "bad file descriptor\n"
				res.Code = 1
				return res
			}
			full := resolvePath(x.env.Cwd, tildeExpand(rd.Target, path))
			if err := writeRedirect(r.FS, full, payload, rd.Append); err != nil {
				res.Stderr += path + ": cannot create file\n"
				res.Code = 1
				return res
			}
		case RedirDupOut:
			target := rawText(rd.Target)
			switch {
			case rd.FD == 2 && target == "1":
				res.Stdout += res.Stderr
				res.Stderr = ""
			case rd.FD == 1 && target == "2":
				res.Stderr += res.Stdout
				res.Stdout = ""
			case (rd.FD == 1 && target == "1") || (rd.FD == 2 && target == "2"):
			default:
				res.Stderr += target + ": bad file descriptor\n"
				res.Code = 1
				return res
			}
		}
	}
	return res
}

func writeRedirect(fs afero.Fs, path, payload string, appendTo bool) error {
	if !appendTo {
		return afero.WriteFile(fs, path, []byte(payload), 0644)
	}
	existing, err := afero.ReadFile(fs, path)
	if err != nil {
		existing = nil
	}
	return afero.WriteFile(fs, path, append(existing, payload...), 0644)
}

// callFunction runs a stored function body with fresh positional
// parameters and a fresh locals table, restoring both afterwards.
func (r *Runner) callFunction(ctx context.Context, body Node, args []string, env *Environment, stdin []byte) Result {
	savedPos := env.Positional
	savedLocals := env.Locals
	savedIn := env.InFunction
	env.Positional = args
	env.Locals = map[string]string{}
	env.InFunction = true

	res := r.exec(ctx, body, env, stdin)
	if env.returning {
		env.returning = false
		res.Code = env.returnCode
	}

	env.Positional = savedPos
	env.Locals = savedLocals
	env.InFunction = savedIn
	return res
}

// runProcess executes a registry command with bounded pipes on all
// three streams. Drain goroutines start before the command so a stage
// that fills its output buffer never deadlocks against the collector.
func (r *Runner) runProcess(ctx context.Context, fn CommandFunc, argv []string, env *Environment, stdin []byte) Result {
	in := newPipe(r.Config.PipeCapacity)
	out := newPipe(r.Config.PipeCapacity)
	errp := newPipe(r.Config.PipeCapacity)

	go func() {
		if len(stdin) > 0 {
			// Error ignored: the command may exit without reading.
			in.Write(stdin)
		}
		in.CloseWrite()
	}()
	outCh := drain(out)
	errCh := drain(errp)

	proc := &Proc{
		Args:   argv,
		Env:    env,
		FS:     r.FS,
		Stdin:  in,
		Stdout: out,
		Stderr: errp,
	}
	code := fn(ctx, proc)

	in.CloseRead()
	out.CloseWrite()
	errp.CloseWrite()
	return Result{Stdout: <-outCh, Stderr: <-errCh, Code: code}
}

func drain(p *pipe) chan string {
	ch := make(chan string, 1)
	go func() {
		b, _ := io.ReadAll(p)
		ch <- string(b)
	}()
	return ch
}

// resolveSubstitutions runs the command text captured by the expansion
// scanner and splices its output, minus trailing newlines, back into
// the word. Each substitution runs in a clone one subshell level down.
func (r *Runner) resolveSubstitutions(ctx context.Context, s string, env *Environment, stderr *strings.Builder) (string, error) {
	for {
		start := strings.Index(s, cmdSubOpen)
		if start < 0 {
			return s, nil
		}
		rest := s[start+len(cmdSubOpen):]
		end := strings.Index(rest, cmdSubClose)
		if end < 0 {
			return s, nil
		}
		inner := rest[:end]

		child := env.Clone()
		child.SubshellDepth++
		if child.SubshellDepth > r.Config.MaxSubshellDepth {
			return "", &ExpandError{Msg: "maximum substitution depth exceeded"}
		}
		res := r.Run(ctx, inner, child)
		stderr.WriteString(res.Stderr)
		env.LastExit = res.Code

		spliced := strings.TrimRight(res.Stdout, "\n")
		s = s[:start] + spliced + rest[end+len(cmdSubClose):]
	}
}

// expander performs full word expansion for one statement, carrying
// the context a command substitution needs and collecting any stderr
// those substitutions produce.
type expander struct {
	runner *Runner
	ctx    context.Context
	env    *Environment
	stderr strings.Builder
}

// word expands a single word to one string: parameter and arithmetic
// expansion per part, then command substitution. The second return
// reports whether an unquoted part came out containing glob
// characters.
func (x *expander) word(w Word) (string, bool, error) {
	var b strings.Builder
	globbable := false
	for _, part := range w.Parts {
		if part.Quote == SingleQuoted {
			b.WriteString(part.Text)
			continue
		}
		text, err := expandString(part.Text, x.env, part.Quote == DoubleQuoted)
		if err != nil {
			return "", false, err
		}
		text, err = x.runner.resolveSubstitutions(x.ctx, text, x.env, &x.stderr)
		if err != nil {
			return "", false, err
		}
		if part.Quote == Unquoted && strings.ContainsAny(text, "*?") {
			globbable = true
		}
		b.WriteString(text)
	}
	return b.String(), globbable, nil
}

// args expands argument words: brace expansion on unquoted literals,
// then per-word expansion, tilde rewriting, and pathname globbing.
func (x *expander) args(words []Word) ([]string, error) {
	var out []string
	for _, w := range words {
		candidates := []Word{w}
		if lit, ok := w.unquotedLit(); ok && strings.ContainsRune(lit, '{') {
			candidates = candidates[:0]
			for _, b := range expandBraces(lit) {
				candidates = append(candidates, litWord(b))
			}
		}
		for _, cand := range candidates {
			text, globbable, err := x.word(cand)
			if err != nil {
				return nil, err
			}
			text = tildeExpand(cand, text)
			if globbable && !x.env.Opts.Noglob {
				out = append(out, expandGlob(x.runner.FS, x.env, text)...)
				continue
			}
			out = append(out, text)
		}
	}
	return out, nil
}

// tildeExpand rewrites a leading unquoted ~ to the home directory,
// which is always / in the sandbox.
func tildeExpand(w Word, expanded string) string {
	if len(w.Parts) == 0 || w.Parts[0].Quote != Unquoted || !strings.HasPrefix(w.Parts[0].Text, "~") {
		return expanded
	}
	if expanded == "~" {
		return "/"
	}
	if strings.HasPrefix(expanded, "~/") {
		return expanded[1:]
	}
	return expanded
}

func errorResult(err error, x *expander) Result {
	return Result{Stderr: x.stderr.String() + err.Error() + "\n", Code: exitCodeFor(err)}
}
