package shell

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// builtinFunc runs inside the shell process and mutates the
// environment directly. Arguments arrive fully expanded.
type builtinFunc func(r *Runner, ctx context.Context, env *Environment, args []string) Result

var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		":":        builtinTrue,
		"true":     builtinTrue,
		"false":    builtinFalse,
		"export":   builtinExport,
		"unset":    builtinUnset,
		"set":      builtinSet,
		"shopt":    builtinShopt,
		"readonly": builtinReadonly,
		"local":    builtinLocal,
		"return":   builtinReturn,
		"break":    builtinBreak,
		"continue": builtinContinue,
		"cd":       builtinCd,
		"pushd":    builtinPushd,
		"popd":     builtinPopd,
		"dirs":     builtinDirs,
		"pwd":      builtinPwd,
		"eval":     builtinEval,
	}
}

func builtinTrue(r *Runner, ctx context.Context, env *Environment, args []string) Result {
	return Result{}
}

func builtinFalse(r *Runner, ctx context.Context, env *Environment, args []string) Result {
	return Result{Code: 1}
}

func splitAssign(arg string) (name, value string, hasValue bool) {
	if idx := strings.IndexByte(arg, '='); idx >= 0 {
		return arg[:idx], arg[idx+1:], true
	}
	return arg, "", false
}

func builtinExport(r *Runner, ctx context.Context, env *Environment, args []string) Result {
	if len(args) == 0 {
		var b strings.Builder
		for _, name := range env.ExportedNames() {
			value, _ := env.Lookup(name)
			fmt.Fprintf(&b, "export %s=%q\n", name, value)
		}
		return Result{Stdout: b.String()}
	}
	for _, arg := range args {
		name, value, hasValue := splitAssign(arg)
		if hasValue {
			if err := env.Set(name, value); err != nil {
				return Result{Stderr: "export: " + err.Error() + "\n", Code: exitCodeFor(err)}
			}
		}
		env.Exported[name] = true
	}
	return Result{}
}

func builtinUnset(r *Runner, ctx context.Context, env *Environment, args []string) Result {
	unsetFuncs := false
	for _, arg := range args {
		if arg == "-f" {
			unsetFuncs = true
			continue
		}
		if unsetFuncs {
			delete(env.Funcs, arg)
			continue
		}
		if err := env.Unset(arg); err != nil {
			return Result{Stderr: "unset: " + err.Error() + "\n", Code: exitCodeFor(err)}
		}
	}
	return Result{}
}

// setFlag maps the single-letter set options to their fields.
func setFlag(env *Environment, c byte) *bool {
	switch c {
	case 'e':
		return &env.Opts.Errexit
	case 'f':
		return &env.Opts.Noglob
	case 'u':
		return &env.Opts.Nounset
	case 'x':
		return &env.Opts.Xtrace
	}
	return nil
}

func setOption(env *Environment, name string) *bool {
	switch name {
	case "errexit":
		return &env.Opts.Errexit
	case "noglob":
		return &env.Opts.Noglob
	case "nounset":
		return &env.Opts.Nounset
	case "xtrace":
		return &env.Opts.Xtrace
	case "pipefail":
		return &env.Opts.Pipefail
	}
	return nil
}

func builtinSet(r *Runner, ctx context.Context, env *Environment, args []string) Result {
	if len(args) == 0 {
		names := make([]string, 0, len(env.Vars))
		for name := range env.Vars {
			names = append(names, name)
		}
		sort.Strings(names)
		var b strings.Builder
		for _, name := range names {
			fmt.Fprintf(&b, "%s=%s\n", name, env.Vars[name])
		}
		return Result{Stdout: b.String()}
	}
	sawTerminator := false
	i := 0
	for ; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			sawTerminator = true
			i++
			break
		}
		if len(arg) < 2 || (arg[0] != '-' && arg[0] != '+') {
			break
		}
		enable := arg[0] == '-'
		if arg[1] == 'o' {
			i++
			if i >= len(args) {
				return setListOptions(env)
			}
			flag := setOption(env, args[i])
			if flag == nil {
				return Result{Stderr: "set: " + args[i] + ": invalid option name\n", Code: 2}
			}
			*flag = enable
			continue
		}
		for _, c := range []byte(arg[1:]) {
			flag := setFlag(env, c)
			if flag == nil {
				return Result{Stderr: fmt.Sprintf("set: -%c: invalid option\n", c), Code: 2}
			}
			*flag = enable
		}
	}
	if i < len(args) || sawTerminator {
		env.Positional = append([]string(nil), args[i:]...)
	}
	return Result{}
}

func setListOptions(env *Environment) Result {
	var b strings.Builder
	for _, name := range []string{"errexit", "noglob", "nounset", "pipefail", "xtrace"} {
		state := "off"
		if *setOption(env, name) {
			state = "on"
		}
		fmt.Fprintf(&b, "%-15s %s\n", name, state)
	}
	return Result{Stdout: b.String()}
}

func shoptFlag(env *Environment, name string) *bool {
	switch name {
	case "extglob":
		return &env.Opts.Extglob
	case "nullglob":
		return &env.Opts.Nullglob
	case "dotglob":
		return &env.Opts.Dotglob
	case "nocasematch":
		return &env.Opts.Nocasematch
	case "nocaseglob":
		return &env.Opts.Nocaseglob
	case "globstar":
		return &env.Opts.Globstar
	}
	return nil
}

var shoptNames = []string{"dotglob", "extglob", "globstar", "nocaseglob", "nocasematch", "nullglob"}

func builtinShopt(r *Runner, ctx context.Context, env *Environment, args []string) Result {
	mode := ""
	var names []string
	for _, arg := range args {
		switch arg {
		case "-s", "-u", "-q", "-p":
			mode = arg
		default:
			names = append(names, arg)
		}
	}

	if mode == "-s" || mode == "-u" {
		if len(names) == 0 {
			return shoptList(env, mode == "-s")
		}
		for _, name := range names {
			flag := shoptFlag(env, name)
			if flag == nil {
				return Result{Stderr: "shopt: " + name + ": invalid shell option name\n", Code: 1}
			}
			*flag = mode == "-s"
		}
		return Result{}
	}

	if mode == "-q" {
		for _, name := range names {
			flag := shoptFlag(env, name)
			if flag == nil {
				return Result{Stderr: "shopt: " + name + ": invalid shell option name\n", Code: 1}
			}
			if !*flag {
				return Result{Code: 1}
			}
		}
		return Result{}
	}

	if len(names) == 0 {
		return shoptListAll(env, mode == "-p")
	}
	var b strings.Builder
	code := 0
	for _, name := range names {
		flag := shoptFlag(env, name)
		if flag == nil {
			return Result{Stderr: "shopt: " + name + ": invalid shell option name\n", Code: 1}
		}
		b.WriteString(shoptLine(name, *flag, mode == "-p"))
		if !*flag {
			code = 1
		}
	}
	return Result{Stdout: b.String(), Code: code}
}

func shoptLine(name string, on, asCommand bool) string {
	if asCommand {
		flag := "-u"
		if on {
			flag = "-s"
		}
		return fmt.Sprintf("shopt %s %s\n", flag, name)
	}
	state := "off"
	if on {
		state = "on"
	}
	return fmt.Sprintf("%s\t%s\n", name, state)
}

func shoptList(env *Environment, wantOn bool) Result {
	var b strings.Builder
	for _, name := range shoptNames {
		if *shoptFlag(env, name) == wantOn {
			b.WriteString(shoptLine(name, wantOn, false))
		}
	}
	return Result{Stdout: b.String()}
}

func shoptListAll(env *Environment, asCommand bool) Result {
	var b strings.Builder
	for _, name := range shoptNames {
		b.WriteString(shoptLine(name, *shoptFlag(env, name), asCommand))
	}
	return Result{Stdout: b.String()}
}

func builtinReadonly(r *Runner, ctx context.Context, env *Environment, args []string) Result {
	if len(args) == 0 {
		names := make([]string, 0, len(env.Readonly))
		for name := range env.Readonly {
			names = append(names, name)
		}
		sort.Strings(names)
		var b strings.Builder
		for _, name := range names {
			value, _ := env.Lookup(name)
			fmt.Fprintf(&b, "readonly %s=%q\n", name, value)
		}
		return Result{Stdout: b.String()}
	}
	for _, arg := range args {
		name, value, hasValue := splitAssign(arg)
		if hasValue {
			if err := env.Set(name, value); err != nil {
				return Result{Stderr: "readonly: " + err.Error() + "\n", Code: exitCodeFor(err)}
			}
			env.Readonly[name] = true
			continue
		}
		if !env.MarkReadonly(name) {
			return Result{Stderr: "readonly: " + name + ": not found\n", Code: 1}
		}
	}
	return Result{}
}

func builtinLocal(r *Runner, ctx context.Context, env *Environment, args []string) Result {
	if !env.InFunction {
		return Result{Stderr: "local: can only be used in a function\n", Code: 1}
	}
	for _, arg := range args {
		name, value, _ := splitAssign(arg)
		if err := env.SetLocal(name, value); err != nil {
			return Result{Stderr: "local: " + err.Error() + "\n", Code: exitCodeFor(err)}
		}
	}
	return Result{}
}

func builtinReturn(r *Runner, ctx context.Context, env *Environment, args []string) Result {
	if !env.InFunction {
		return Result{Stderr: "return: can only `return' from a function\n", Code: 1}
	}
	code := env.LastExit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return Result{Stderr: "return: " + args[0] + ": numeric argument required\n", Code: 2}
		}
		code = n
	}
	env.returning = true
	env.returnCode = code
	return Result{Code: code}
}

func loopLevel(args []string, depth int) (int, error) {
	level := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return 0, fmt.Errorf("%s: loop count out of range", args[0])
		}
		level = n
	}
	if level > depth {
		level = depth
	}
	return level, nil
}

func builtinBreak(r *Runner, ctx context.Context, env *Environment, args []string) Result {
	if env.loopDepth == 0 {
		return Result{Stderr: "break: only meaningful in a `for' or `while' loop\n"}
	}
	level, err := loopLevel(args, env.loopDepth)
	if err != nil {
		return Result{Stderr: "break: " + err.Error() + "\n", Code: 1}
	}
	env.breakLevel = level
	return Result{}
}

func builtinContinue(r *Runner, ctx context.Context, env *Environment, args []string) Result {
	if env.loopDepth == 0 {
		return Result{Stderr: "continue: only meaningful in a `for' or `while' loop\n"}
	}
	level, err := loopLevel(args, env.loopDepth)
	if err != nil {
		return Result{Stderr: "continue: " + err.Error() + "\n", Code: 1}
	}
	env.continueLevel = level
	return Result{}
}

// changeDir validates a destination and updates cwd/oldpwd together.
func changeDir(r *Runner, env *Environment, target string) (string, error) {
	full := resolvePath(env.Cwd, target)
	info, err := r.FS.Stat(full)
	if err != nil {
		return "", fmt.Errorf("%s: No such file or directory", target)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: Not a directory", target)
	}
	env.PrevCwd = env.Cwd
	env.Cwd = full
	return full, nil
}

func builtinCd(r *Runner, ctx context.Context, env *Environment, args []string) Result {
	target := "/"
	printDest := false
	if len(args) > 0 {
		switch args[0] {
		case "~":
		case "-":
			target = env.PrevCwd
			printDest = true
		default:
			target = args[0]
		}
	}
	dest, err := changeDir(r, env, target)
	if err != nil {
		return Result{Stderr: "cd: " + err.Error() + "\n", Code: 1}
	}
	if printDest {
		return Result{Stdout: dest + "\n"}
	}
	return Result{}
}

func builtinPushd(r *Runner, ctx context.Context, env *Environment, args []string) Result {
	if len(args) == 0 {
		return Result{Stderr: "pushd: no other directory\n", Code: 1}
	}
	previous := env.Cwd
	if _, err := changeDir(r, env, args[0]); err != nil {
		return Result{Stderr: "pushd: " + err.Error() + "\n", Code: 1}
	}
	env.DirStack = append([]string{previous}, env.DirStack...)
	return Result{Stdout: dirStackLine(env)}
}

func builtinPopd(r *Runner, ctx context.Context, env *Environment, args []string) Result {
	if len(env.DirStack) == 0 {
		return Result{Stderr: "popd: directory stack empty\n", Code: 1}
	}
	target := env.DirStack[0]
	env.DirStack = env.DirStack[1:]
	if _, err := changeDir(r, env, target); err != nil {
		return Result{Stderr: "popd: " + err.Error() + "\n", Code: 1}
	}
	return Result{Stdout: dirStackLine(env)}
}

func builtinDirs(r *Runner, ctx context.Context, env *Environment, args []string) Result {
	return Result{Stdout: dirStackLine(env)}
}

func dirStackLine(env *Environment) string {
	parts := append([]string{env.Cwd}, env.DirStack...)
	return strings.Join(parts, " ") + "\n"
}

func builtinPwd(r *Runner, ctx context.Context, env *Environment, args []string) Result {
	return Result{Stdout: env.Cwd + "\n"}
}

func builtinEval(r *Runner, ctx context.Context, env *Environment, args []string) Result {
	src := strings.Join(args, " ")
	if strings.TrimSpace(src) == "" {
		return Result{}
	}
	nodes, err := Parse(src)
	if err != nil {
		return Result{Stderr: err.Error() + "\n", Code: exitCodeFor(err)}
	}
	return r.runSequence(ctx, nodes, env, nil)
}
