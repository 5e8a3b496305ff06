package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandBraces(t *testing.T) {
	cases := map[string][]string{
		"plain":       {"plain"},
		"a{b,c}":      {"ab", "ac"},
		"{b,c}d":      {"bd", "cd"},
		"a{b,c}d":     {"abd", "acd"},
		"{a,b}{1,2}":  {"a1", "a2", "b1", "b2"},
		"{a,{b,c}}":   {"a", "b", "c"},
		"{1..3}":      {"1", "2", "3"},
		"{3..1}":      {"3", "2", "1"},
		"{1..10..3}":  {"1", "4", "7", "10"},
		"{a..d}":      {"a", "b", "c", "d"},
		"file{,.bak}": {"file", "file.bak"},
		"{}":          {"{}"},
		"{a}":         {"{a}"},
		"{a..}":       {"{a..}"},
		"a{b":         {"a{b"},
		"{{1,2}}":     {"{1}", "{2}"},
		"x{1..2}y":    {"x1y", "x2y"},
	}
	for input, want := range cases {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, expandBraces(input))
		})
	}
}
