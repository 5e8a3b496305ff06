package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWc(t *testing.T) {
	cases := []struct {
		name       string
		stdin      string
		args       []string
		wantStdout string
		wantCode   int
	}{
		{
			name:       "all counts",
			stdin:      "one two\nthree\n",
			args:       []string{"wc"},
			wantStdout: "2 3 14\n",
		},
		{
			name:       "lines only",
			stdin:      "a\nb\nc\n",
			args:       []string{"wc", "-l"},
			wantStdout: "3\n",
		},
		{
			name:       "words only",
			stdin:      "a b  c\n",
			args:       []string{"wc", "-w"},
			wantStdout: "3\n",
		},
		{
			name:       "bytes only",
			stdin:      "abcd",
			args:       []string{"wc", "-c"},
			wantStdout: "4\n",
		},
		{
			name:       "file input",
			args:       []string{"wc", "-l", "/data/fruit.txt"},
			wantStdout: "4\n",
		},
		{
			name:     "missing file",
			args:     []string{"wc", "/nope"},
			wantCode: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stdout, _, code := runCommand(Wc, tc.stdin, tc.args...)

			assert.Equal(t, tc.wantStdout, stdout)
			assert.Equal(t, tc.wantCode, code)
		})
	}
}
