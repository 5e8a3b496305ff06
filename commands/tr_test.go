package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandSet(t *testing.T) {
	cases := []struct {
		set      string
		expected string
	}{
		{"abc", "abc"},
		{"a-e", "abcde"},
		{"a-c0-2", "abc012"},
		{"x-", "x-"},
		{"-x", "-x"},
		{"z-a", "z-a"},
	}

	for _, tc := range cases {
		t.Run(tc.set, func(t *testing.T) {
			assert.Equal(t, tc.expected, string(expandSet(tc.set)))
		})
	}
}

func TestTr(t *testing.T) {
	cases := []struct {
		name       string
		stdin      string
		args       []string
		wantStdout string
		wantCode   int
	}{
		{
			name:       "upcase",
			stdin:      "hello world\n",
			args:       []string{"tr", "a-z", "A-Z"},
			wantStdout: "HELLO WORLD\n",
		},
		{
			name:       "single chars",
			stdin:      "abcabc",
			args:       []string{"tr", "ab", "xy"},
			wantStdout: "xycxyc",
		},
		{
			name:       "short set2 pads",
			stdin:      "abc",
			args:       []string{"tr", "abc", "z"},
			wantStdout: "zzz",
		},
		{
			name:       "delete",
			stdin:      "banana\n",
			args:       []string{"tr", "-d", "an"},
			wantStdout: "b\n",
		},
		{
			name:     "missing set",
			stdin:    "x",
			args:     []string{"tr", "a-z"},
			wantCode: 2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stdout, _, code := runCommand(Tr, tc.stdin, tc.args...)

			assert.Equal(t, tc.wantStdout, stdout)
			assert.Equal(t, tc.wantCode, code)
		})
	}
}
