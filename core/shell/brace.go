package shell

import (
	"strconv"
	"strings"
)

// expandBraces rewrites {a,b} alternations and {1..5} style ranges
// into the list of words they generate, left to right. A brace pair
// with no top-level comma and no valid range stays literal, but its
// interior is still searched so {{1,2}} expands the inner pair.
func expandBraces(word string) []string {
	open, close, items := findBraceGroup(word)
	if open < 0 {
		return []string{word}
	}
	prefix := word[:open]
	tails := expandBraces(word[close+1:])
	var out []string
	for _, item := range items {
		for _, head := range expandBraces(item) {
			for _, tail := range tails {
				out = append(out, prefix+head+tail)
			}
		}
	}
	return out
}

// findBraceGroup locates the leftmost expandable brace pair and
// returns its bounds plus the generated items.
func findBraceGroup(word string) (open, close int, items []string) {
	for i := 0; i < len(word); i++ {
		if word[i] != '{' {
			continue
		}
		end := matchingBrace(word, i)
		if end < 0 {
			continue
		}
		content := word[i+1 : end]
		if alts := splitAlternation(content); len(alts) > 1 {
			return i, end, alts
		}
		if seq, ok := expandRange(content); ok {
			return i, end, seq
		}
	}
	return -1, -1, nil
}

func matchingBrace(word string, open int) int {
	depth := 0
	for i := open; i < len(word); i++ {
		switch word[i] {
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

// splitAlternation splits on commas at brace depth zero.
func splitAlternation(content string) []string {
	var items []string
	depth := 0
	start := 0
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				items = append(items, content[start:i])
				start = i + 1
			}
		}
	}
	items = append(items, content[start:])
	return items
}

// expandRange handles {a..z}, {1..10}, and {1..10..2} interiors.
func expandRange(content string) ([]string, bool) {
	parts := strings.Split(content, "..")
	if len(parts) != 2 && len(parts) != 3 {
		return nil, false
	}
	step := 1
	if len(parts) == 3 {
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, false
		}
		if n < 0 {
			n = -n
		}
		if n == 0 {
			n = 1
		}
		step = n
	}
	if lo, err1 := strconv.Atoi(parts[0]); err1 == nil {
		hi, err2 := strconv.Atoi(parts[1])
		if err2 != nil {
			return nil, false
		}
		return intRange(lo, hi, step), true
	}
	loRunes := []rune(parts[0])
	hiRunes := []rune(parts[1])
	if len(loRunes) != 1 || len(hiRunes) != 1 {
		return nil, false
	}
	var out []string
	for _, n := range intRange(int(loRunes[0]), int(hiRunes[0]), step) {
		v, _ := strconv.Atoi(n)
		out = append(out, string(rune(v)))
	}
	return out, true
}

func intRange(lo, hi, step int) []string {
	var out []string
	if lo <= hi {
		for n := lo; n <= hi; n += step {
			out = append(out, strconv.Itoa(n))
		}
	} else {
		for n := lo; n >= hi; n -= step {
			out = append(out, strconv.Itoa(n))
		}
	}
	return out
}
