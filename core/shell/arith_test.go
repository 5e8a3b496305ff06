package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalArith(t *testing.T) {
	cases := map[string]int64{
		"0":              0,
		"42":             42,
		"  42  ":         42,
		"1+2":            3,
		"1 + 2 + 3":      6,
		"10-4":           6,
		"10 - 4 - 3":     3,
		"2*3":            6,
		"2+3*4":          14,
		"(2+3)*4":        20,
		"10/3":           3,
		"10%3":           1,
		"2**10":          1024,
		"2**3**2":        512,
		"-5":             -5,
		"+5":             5,
		"-5 + 10":        5,
		"10 + -3":        7,
		"!0":             1,
		"!7":             0,
		"~0":             -1,
		"1 < 2":          1,
		"2 < 1":          0,
		"2 <= 2":         1,
		"3 >= 4":         0,
		"5 == 5":         1,
		"5 != 5":         0,
		"1 && 1":         1,
		"1 && 0":         0,
		"0 || 1":         1,
		"0 || 0":         0,
		"5 | 2":          7,
		"6 & 3":          2,
		"6 ^ 3":          5,
		"1 ? 10 : 20":    10,
		"0 ? 10 : 20":    20,
		"2 > 1 ? 3 : 4":  3,
		"0x1F":           31,
		"0xff":           255,
		"0o17":           15,
		"017":            15,
		"0b101":          5,
		"(1+2)*(3+4)":    21,
		"((1+2))":        3,
		"1 < 2 && 3 < 4": 1,
		// Comparisons bind looser than the logical operators.
		"1 || 0 < 0": 0,
		"0 < 0 || 1": 1,
		// || and && never evaluate a right side they don't need.
		"1 || 5/0":      1,
		"0 && 5/0":      0,
		"1**9999999999": 1,
		"0**9999999999": 0,
		"-1**3":         -1,
	}
	for expr, want := range cases {
		t.Run(expr, func(t *testing.T) {
			got, err := evalArith(expr)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestEvalArithErrors(t *testing.T) {
	cases := []string{
		"",
		"1/0",
		"1%0",
		"0 || 5/0",
		"1 && 5/0",
		"2**-1",
		"1 ? 2",
		"(1+2",
		"abc",
	}
	for _, expr := range cases {
		t.Run(expr, func(t *testing.T) {
			_, err := evalArith(expr)
			assert.Error(t, err)
		})
	}
}

func TestSubstituteArithVars(t *testing.T) {
	env := testEnv()
	env.Vars["a"] = "4"
	env.Vars["b"] = "ten"

	cases := map[string]string{
		"a + 1":  "4 + 1",
		"b + 1":  "0 + 1",
		"c * 2":  "0 * 2",
		"0x1F":   "0x1F",
		"a + a":  "4 + 4",
		"2a":     "2a",
	}
	for input, want := range cases {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, substituteArithVars(input, env))
		})
	}
}
