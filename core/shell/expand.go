package shell

import (
	"strconv"
	"strings"
)

// Command substitutions are expanded in two phases: the scanner below
// replaces $(...) and `...` with a marker carrying the inner text, and
// the interpreter later runs the inner text in a cloned environment
// and splices the captured output back in. The marker never appears in
// final output unless the interpreter is skipped.
const (
	cmdSubOpen  = "$__CMD_SUB__:"
	cmdSubClose = ":__END__"
)

// specialVars resolve before user variables and cannot be shadowed by
// assignment. PWD, OLDPWD, SHLVL and RANDOM are computed per lookup.
var specialVars = map[string]string{
	"HOME":     "/",
	"USER":     "user",
	"LOGNAME":  "user",
	"HOSTNAME": "sandbox",
	"SHELL":    "/bin/sh",
	"IFS":      " \t\n",
	"LINENO":   "1",
	"SECONDS":  "0",
}

func specialVar(name string, env *Environment) (string, bool) {
	switch name {
	case "PWD":
		return env.Cwd, true
	case "OLDPWD":
		return env.PrevCwd, true
	case "SHLVL":
		return strconv.Itoa(env.SubshellDepth), true
	case "RANDOM":
		if env.Rand == nil {
			return "0", true
		}
		return strconv.FormatUint(env.Rand.Uint64()%32768, 10), true
	}
	v, ok := specialVars[name]
	return v, ok
}

// expandString performs parameter, arithmetic, and command-substitution
// scanning over raw word text. Inside double quotes a backslash escapes
// only $ ` \ " and newline; everywhere else it is an ordinary
// character. Text with none of the trigger characters passes through
// byte for byte.
func expandString(input string, env *Environment, inDoubleQuotes bool) (string, error) {
	runes := []rune(input)
	var out strings.Builder
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case c == '\\' && inDoubleQuotes:
			if i+1 < len(runes) {
				switch runes[i+1] {
				case '$', '`', '\\', '"', '\n':
					out.WriteRune(runes[i+1])
					i += 2
					continue
				}
			}
			out.WriteRune(c)
			i++
		case c == '$':
			text, next, err := expandDollar(runes, i, env)
			if err != nil {
				return "", err
			}
			out.WriteString(text)
			i = next
		case c == '`':
			end := findBacktickEnd(runes, i+1)
			if end < 0 {
				out.WriteRune(c)
				i++
				continue
			}
			out.WriteString(cmdSubOpen)
			out.WriteString(string(runes[i+1 : end]))
			out.WriteString(cmdSubClose)
			i = end + 1
		default:
			out.WriteRune(c)
			i++
		}
	}
	return out.String(), nil
}

func findBacktickEnd(runes []rune, from int) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == '\\' {
			i++
			continue
		}
		if runes[i] == '`' {
			return i
		}
	}
	return -1
}

// expandDollar handles one $ trigger starting at index i. It returns
// the replacement text and the index of the first unconsumed rune.
func expandDollar(runes []rune, i int, env *Environment) (string, int, error) {
	if i+1 >= len(runes) {
		return "$", i + 1, nil
	}
	next := runes[i+1]
	switch {
	case next == '{':
		end := findBraceEnd(runes, i+2)
		if end < 0 {
			return "", 0, expandErrorf("bad substitution: %s", string(runes[i:]))
		}
		text, err := expandBraced(string(runes[i+2:end]), env)
		if err != nil {
			return "", 0, err
		}
		return text, end + 1, nil
	case next == '(' && i+2 < len(runes) && runes[i+2] == '(':
		end := findArithEnd(runes, i+3)
		if end < 0 {
			return "", 0, expandErrorf("bad arithmetic substitution: %s", string(runes[i:]))
		}
		text, err := expandArithmetic(string(runes[i+3:end]), env)
		if err != nil {
			return "", 0, err
		}
		return text, end + 2, nil
	case next == '(':
		end := findParenEnd(runes, i+2)
		if end < 0 {
			return "", 0, expandErrorf("bad substitution: %s", string(runes[i:]))
		}
		inner := string(runes[i+2:end])
		return cmdSubOpen + inner + cmdSubClose, end + 1, nil
	case next >= '0' && next <= '9':
		return positional(env, int(next-'0')), i + 2, nil
	case next == '?':
		return strconv.Itoa(env.LastExit), i + 2, nil
	case next == '$':
		return strconv.Itoa(env.SessionID), i + 2, nil
	case next == '#':
		return strconv.Itoa(len(env.Positional)), i + 2, nil
	case next == '*' || next == '@':
		return strings.Join(env.Positional, " "), i + 2, nil
	case next == '!':
		// Background jobs run synchronously, so there is never a
		// last-job pid to report.
		return "", i + 2, nil
	case next == '-':
		return env.OptionFlags(), i + 2, nil
	case next == '_' || isNameStart(next):
		j := i + 1
		for j < len(runes) && isNameChar(runes[j]) {
			j++
		}
		text, err := resolveName(string(runes[i+1:j]), env)
		if err != nil {
			return "", 0, err
		}
		return text, j, nil
	default:
		return "$", i + 1, nil
	}
}

func positional(env *Environment, n int) string {
	if n == 0 {
		return env.Arg0
	}
	if n <= len(env.Positional) {
		return env.Positional[n-1]
	}
	return ""
}

// resolveName looks up a plain $name reference. Fixed shell variables
// win over user assignments of the same name.
func resolveName(name string, env *Environment) (string, error) {
	if v, ok := specialVar(name, env); ok {
		return v, nil
	}
	if v, ok := env.Lookup(name); ok {
		return v, nil
	}
	if env.Opts.Nounset {
		return "", expandErrorf("%s: unbound variable", name)
	}
	return "", nil
}

func isNameStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c rune) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

// findBraceEnd returns the index of the } matching a ${ opened just
// before from, accounting for nested braces.
func findBraceEnd(runes []rune, from int) int {
	depth := 1
	for i := from; i < len(runes); i++ {
		switch runes[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// findParenEnd returns the index of the ) matching a $( opened just
// before from.
func findParenEnd(runes []rune, from int) int {
	depth := 1
	for i := from; i < len(runes); i++ {
		switch runes[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// findArithEnd returns the index of the first ) of the )) closing a
// $(( opened just before from.
func findArithEnd(runes []rune, from int) int {
	depth := 2
	for i := from; i < len(runes); i++ {
		switch runes[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i - 1
			}
		}
	}
	return -1
}

// bracedOps is a priority list: the first operator found anywhere in
// the braced text decides the form. Two-character operators sort
// before their single-character prefixes so ${x:-d} never reads as a
// bare - form.
var bracedOps = []string{
	":-", ":=", ":+", ":?",
	"-", "=", "+", "?",
	"##", "#", "%%", "%",
	"//", "/",
	"^^", "^", ",,", ",",
}

// expandBraced evaluates the interior of one ${...} form.
func expandBraced(content string, env *Environment) (string, error) {
	if content == "#" {
		return strconv.Itoa(len(env.Positional)), nil
	}
	if strings.HasPrefix(content, "#") && len(content) > 1 {
		name := content[1:]
		value, _ := env.Lookup(name)
		return strconv.Itoa(len([]rune(value))), nil
	}
	if len(content) == 1 {
		switch content[0] {
		case '?', '$', '*', '@', '!', '-':
			text, _, err := expandDollar([]rune("$"+content), 0, env)
			return text, err
		}
	}
	if name, spec, ok := substringForm(content); ok {
		return expandSubstring(name, spec, env)
	}
	for _, op := range bracedOps {
		if idx := strings.Index(content, op); idx >= 0 {
			name := content[:idx]
			arg := content[idx+len(op):]
			return applyBracedOp(name, op, arg, env)
		}
	}
	return resolveName(content, env)
}

// substringForm reports whether the braced text is ${name:offset} or
// ${name:offset:length}. A colon followed by a digit means substring;
// a negative offset needs a leading space (${v: -2}) so it is not read
// as the :- default operator.
func substringForm(content string) (name, spec string, ok bool) {
	idx := strings.IndexByte(content, ':')
	if idx <= 0 {
		return "", "", false
	}
	rest := content[idx+1:]
	if rest == "" {
		return "", "", false
	}
	if rest[0] >= '0' && rest[0] <= '9' {
		return content[:idx], rest, true
	}
	if rest[0] == ' ' {
		trimmed := strings.TrimLeft(rest, " ")
		if strings.HasPrefix(trimmed, "-") {
			return content[:idx], rest, true
		}
	}
	return "", "", false
}

func expandSubstring(name, spec string, env *Environment) (string, error) {
	value, _ := env.Lookup(name)
	runes := []rune(value)

	offsetPart := spec
	lengthPart := ""
	hasLength := false
	if idx := strings.IndexByte(spec, ':'); idx >= 0 {
		offsetPart = spec[:idx]
		lengthPart = spec[idx+1:]
		hasLength = true
	}
	offset, err := strconv.Atoi(strings.TrimSpace(offsetPart))
	if err != nil {
		return "", expandErrorf("%s: bad substring offset: %s", name, offsetPart)
	}
	if offset < 0 {
		offset += len(runes)
		if offset < 0 {
			offset = 0
		}
	}
	if offset >= len(runes) {
		return "", nil
	}
	if !hasLength {
		return string(runes[offset:]), nil
	}
	length, err := strconv.Atoi(strings.TrimSpace(lengthPart))
	if err != nil {
		return "", expandErrorf("%s: bad substring length: %s", name, lengthPart)
	}
	if length < 0 {
		return "", expandErrorf("%s: substring length must not be negative", name)
	}
	end := offset + length
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[offset:end]), nil
}

func applyBracedOp(name, op, arg string, env *Environment) (string, error) {
	value, set := env.Lookup(name)
	switch op {
	case ":-":
		if !set || value == "" {
			return arg, nil
		}
		return value, nil
	case "-":
		if !set {
			return arg, nil
		}
		return value, nil
	case ":=":
		if !set || value == "" {
			return arg, nil
		}
		return value, nil
	case "=":
		if !set {
			return arg, nil
		}
		return value, nil
	case ":+":
		if set && value != "" {
			return arg, nil
		}
		return "", nil
	case "+":
		if set {
			return arg, nil
		}
		return "", nil
	case ":?":
		if !set || value == "" {
			return "", expandErrorf("%s: %s", name, messageOr(arg, "parameter null or not set"))
		}
		return value, nil
	case "?":
		if !set {
			return "", expandErrorf("%s: %s", name, messageOr(arg, "parameter not set"))
		}
		return value, nil
	case "#":
		return trimPattern(value, arg, true, false), nil
	case "##":
		return trimPattern(value, arg, true, true), nil
	case "%":
		return trimPattern(value, arg, false, false), nil
	case "%%":
		return trimPattern(value, arg, false, true), nil
	case "/":
		pattern, repl := splitReplacement(arg)
		return strings.Replace(value, pattern, repl, 1), nil
	case "//":
		pattern, repl := splitReplacement(arg)
		return strings.ReplaceAll(value, pattern, repl), nil
	case "^":
		return changeCase(value, strings.ToUpper, false), nil
	case "^^":
		return changeCase(value, strings.ToUpper, true), nil
	case ",":
		return changeCase(value, strings.ToLower, false), nil
	case ",,":
		return changeCase(value, strings.ToLower, true), nil
	}
	return value, nil
}

func messageOr(arg, fallback string) string {
	if arg != "" {
		return arg
	}
	return fallback
}

func splitReplacement(arg string) (pattern, repl string) {
	if idx := strings.IndexByte(arg, '/'); idx >= 0 {
		return arg[:idx], arg[idx+1:]
	}
	return arg, ""
}

// trimPattern implements the ${v#p} family by trying prefix (or
// suffix) lengths in order and glob-matching each candidate against
// the pattern. shortest/longest picks the scan direction.
func trimPattern(value, pattern string, prefix, longest bool) string {
	runes := []rune(value)
	lengths := make([]int, 0, len(runes)+1)
	for k := 0; k <= len(runes); k++ {
		lengths = append(lengths, k)
	}
	if longest {
		for l, r := 0, len(lengths)-1; l < r; l, r = l+1, r-1 {
			lengths[l], lengths[r] = lengths[r], lengths[l]
		}
	}
	for _, k := range lengths {
		if prefix {
			if matchPattern(pattern, string(runes[:k]), false) {
				return string(runes[k:])
			}
		} else {
			if matchPattern(pattern, string(runes[len(runes)-k:]), false) {
				return string(runes[:len(runes)-k])
			}
		}
	}
	return value
}

func changeCase(value string, conv func(string) string, all bool) string {
	if value == "" {
		return ""
	}
	if all {
		return conv(value)
	}
	runes := []rune(value)
	return conv(string(runes[0])) + string(runes[1:])
}

// expandArithmetic evaluates the interior of $((...)). The text is
// first expanded (so $x references resolve), then bare identifiers are
// substituted from the environment, then the evaluator runs.
func expandArithmetic(inner string, env *Environment) (string, error) {
	expanded, err := expandString(inner, env, false)
	if err != nil {
		return "", err
	}
	substituted := substituteArithVars(expanded, env)
	n, err := evalArith(substituted)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}

// substituteArithVars replaces bare identifiers with their numeric
// variable values, or 0 when unset or non-numeric. An identifier must
// not follow a digit or letter so hex literals like 0x1F survive.
func substituteArithVars(expr string, env *Environment) string {
	runes := []rune(expr)
	var out strings.Builder
	i := 0
	for i < len(runes) {
		c := runes[i]
		if isNameStart(c) && (i == 0 || !isNameChar(runes[i-1])) {
			j := i
			for j < len(runes) && isNameChar(runes[j]) {
				j++
			}
			name := string(runes[i:j])
			value, ok := env.Lookup(name)
			if !ok {
				value = "0"
			} else if _, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err != nil {
				value = "0"
			} else {
				value = strings.TrimSpace(value)
			}
			out.WriteString(value)
			i = j
			continue
		}
		out.WriteRune(c)
		i++
	}
	return out.String()
}
