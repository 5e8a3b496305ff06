package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHead(t *testing.T) {
	cases := []struct {
		name       string
		stdin      string
		args       []string
		wantStdout string
		wantCode   int
	}{
		{
			name:       "default count",
			stdin:      "1\n2\n3\n",
			args:       []string{"head"},
			wantStdout: "1\n2\n3\n",
		},
		{
			name:       "limited",
			stdin:      "1\n2\n3\n4\n",
			args:       []string{"head", "-n", "2"},
			wantStdout: "1\n2\n",
		},
		{
			name:       "file input",
			args:       []string{"head", "-n", "1", "/data/fruit.txt"},
			wantStdout: "banana\n",
		},
		{
			name:     "missing file",
			args:     []string{"head", "/nope"},
			wantCode: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stdout, _, code := runCommand(Head, tc.stdin, tc.args...)

			assert.Equal(t, tc.wantStdout, stdout)
			assert.Equal(t, tc.wantCode, code)
		})
	}
}
