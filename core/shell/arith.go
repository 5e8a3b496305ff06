package shell

import (
	"strconv"
	"strings"
)

// evalArith evaluates an integer expression by recursive splitting,
// always at the lowest-precedence operator outside parentheses so the
// split point is the expression's root. Supported, loosest first:
// ternary, comparisons, || &&, | ^ &, + -, * / %, ** (right
// associative), unary - + ! ~, parentheses, and decimal/hex/octal/
// binary literals.
func evalArith(expr string) (int64, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, &ExpandError{Msg: "arithmetic: empty expression"}
	}

	if q := topLevelIndex(expr, "?", scanFirst); q >= 0 {
		rest := expr[q+1:]
		c := topLevelIndex(rest, ":", scanFirst)
		if c < 0 {
			return 0, expandErrorf("arithmetic: missing : in ternary: %s", expr)
		}
		cond, err := evalArith(expr[:q])
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return evalArith(rest[:c])
		}
		return evalArith(rest[c+1:])
	}

	for _, op := range []string{"<=", ">=", "==", "!=", "<", ">"} {
		if idx := topLevelIndex(expr, op, scanLast); idx >= 0 {
			left, err := evalArith(expr[:idx])
			if err != nil {
				return 0, err
			}
			right, err := evalArith(expr[idx+len(op):])
			if err != nil {
				return 0, err
			}
			switch op {
			case "<=":
				return boolToInt(left <= right), nil
			case ">=":
				return boolToInt(left >= right), nil
			case "==":
				return boolToInt(left == right), nil
			case "!=":
				return boolToInt(left != right), nil
			case "<":
				return boolToInt(left < right), nil
			default:
				return boolToInt(left > right), nil
			}
		}
	}

	// || and && decide on the left operand alone when they can, so a
	// skipped right side never evaluates (or errors).
	if idx := topLevelIndex(expr, "||", scanLast); idx >= 0 {
		left, err := evalArith(expr[:idx])
		if err != nil {
			return 0, err
		}
		if left != 0 {
			return 1, nil
		}
		right, err := evalArith(expr[idx+2:])
		if err != nil {
			return 0, err
		}
		return boolToInt(right != 0), nil
	}

	if idx := topLevelIndex(expr, "&&", scanLast); idx >= 0 {
		left, err := evalArith(expr[:idx])
		if err != nil {
			return 0, err
		}
		if left == 0 {
			return 0, nil
		}
		right, err := evalArith(expr[idx+2:])
		if err != nil {
			return 0, err
		}
		return boolToInt(right != 0), nil
	}

	for _, op := range []byte{'|', '^', '&'} {
		if idx := bitwiseIndex(expr, op); idx >= 0 {
			left, err := evalArith(expr[:idx])
			if err != nil {
				return 0, err
			}
			right, err := evalArith(expr[idx+1:])
			if err != nil {
				return 0, err
			}
			switch op {
			case '|':
				return left | right, nil
			case '^':
				return left ^ right, nil
			default:
				return left & right, nil
			}
		}
	}

	if idx := addSubIndex(expr); idx >= 0 {
		left, err := evalArith(expr[:idx])
		if err != nil {
			return 0, err
		}
		right, err := evalArith(expr[idx+1:])
		if err != nil {
			return 0, err
		}
		if expr[idx] == '+' {
			return left + right, nil
		}
		return left - right, nil
	}

	if idx := mulDivIndex(expr); idx >= 0 {
		left, err := evalArith(expr[:idx])
		if err != nil {
			return 0, err
		}
		right, err := evalArith(expr[idx+1:])
		if err != nil {
			return 0, err
		}
		switch expr[idx] {
		case '*':
			return left * right, nil
		case '/':
			if right == 0 {
				return 0, &ExpandError{Msg: "arithmetic: division by zero"}
			}
			return left / right, nil
		default:
			if right == 0 {
				return 0, &ExpandError{Msg: "arithmetic: division by zero"}
			}
			return left % right, nil
		}
	}

	// ** binds tighter than * and associates right, so split at the
	// first occurrence.
	if idx := topLevelIndex(expr, "**", scanFirst); idx >= 0 {
		left, err := evalArith(expr[:idx])
		if err != nil {
			return 0, err
		}
		right, err := evalArith(expr[idx+2:])
		if err != nil {
			return 0, err
		}
		if right < 0 {
			return 0, expandErrorf("arithmetic: exponent less than 0: %s", expr)
		}
		result := int64(1)
		for base := left; right > 0; right >>= 1 {
			if right&1 == 1 {
				result *= base
			}
			base *= base
		}
		return result, nil
	}

	switch expr[0] {
	case '-':
		v, err := evalArith(expr[1:])
		return -v, err
	case '+':
		return evalArith(expr[1:])
	case '!':
		v, err := evalArith(expr[1:])
		return boolToInt(v == 0), err
	case '~':
		v, err := evalArith(expr[1:])
		return ^v, err
	}

	if expr[0] == '(' {
		if matchingParen(expr) == len(expr)-1 {
			return evalArith(expr[1 : len(expr)-1])
		}
		return 0, expandErrorf("arithmetic: unbalanced parentheses: %s", expr)
	}

	return parseArithLiteral(expr)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func parseArithLiteral(expr string) (int64, error) {
	var v int64
	var err error
	switch {
	case strings.HasPrefix(expr, "0x"), strings.HasPrefix(expr, "0X"):
		v, err = strconv.ParseInt(expr[2:], 16, 64)
	case strings.HasPrefix(expr, "0o"), strings.HasPrefix(expr, "0O"):
		v, err = strconv.ParseInt(expr[2:], 8, 64)
	case strings.HasPrefix(expr, "0b"), strings.HasPrefix(expr, "0B"):
		v, err = strconv.ParseInt(expr[2:], 2, 64)
	case len(expr) > 1 && expr[0] == '0':
		v, err = strconv.ParseInt(expr[1:], 8, 64)
	default:
		v, err = strconv.ParseInt(expr, 10, 64)
	}
	if err != nil {
		return 0, expandErrorf("arithmetic: invalid number: %s", expr)
	}
	return v, nil
}

type scanDir int

const (
	scanFirst scanDir = iota
	scanLast
)

// topLevelIndex finds op at parenthesis depth zero, from either end.
func topLevelIndex(expr, op string, dir scanDir) int {
	depth := 0
	found := -1
	for i := 0; i+len(op) <= len(expr); i++ {
		switch expr[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth != 0 || expr[i:i+len(op)] != op {
			continue
		}
		if dir == scanFirst {
			return i
		}
		found = i
	}
	return found
}

// bitwiseIndex finds the rightmost single | ^ or & at depth zero,
// skipping the doubled logical forms.
func bitwiseIndex(expr string, op byte) int {
	depth := 0
	found := -1
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth != 0 || expr[i] != op {
			continue
		}
		if i > 0 && expr[i-1] == op {
			continue
		}
		if i+1 < len(expr) && expr[i+1] == op {
			continue
		}
		found = i
	}
	return found
}

// addSubIndex finds the rightmost binary + or - at depth zero. A sign
// is binary only when the previous non-space character ends an operand
// (digit or close paren).
func addSubIndex(expr string) int {
	depth := 0
	found := -1
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth != 0 || (expr[i] != '+' && expr[i] != '-') {
			continue
		}
		prev := prevNonSpace(expr, i)
		if prev < 0 {
			continue
		}
		c := expr[prev]
		if (c >= '0' && c <= '9') || c == ')' || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
			found = i
		}
	}
	return found
}

// mulDivIndex finds the rightmost * / or % at depth zero, skipping
// both characters of **.
func mulDivIndex(expr string) int {
	depth := 0
	found := -1
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth != 0 {
			continue
		}
		c := expr[i]
		if c != '*' && c != '/' && c != '%' {
			continue
		}
		if c == '*' {
			if i+1 < len(expr) && expr[i+1] == '*' {
				i++
				continue
			}
			if i > 0 && expr[i-1] == '*' {
				continue
			}
		}
		found = i
	}
	return found
}

// matchingParen returns the index of the ) closing expr's leading (,
// or -1 when unbalanced.
func matchingParen(expr string) int {
	depth := 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
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

func prevNonSpace(expr string, i int) int {
	for j := i - 1; j >= 0; j-- {
		if expr[j] != ' ' && expr[j] != '\t' {
			return j
		}
	}
	return -1
}
