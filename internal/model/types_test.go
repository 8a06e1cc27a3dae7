package model

import "testing"

func TestRound2(t *testing.T) {
	// Halfway cases use binary-exact inputs so the assertion is not at the
	// mercy of decimal representation error.
	cases := []struct{ in, want float64 }{
		{0, 0},
		{1.231, 1.23},
		{1.239, 1.24},
		{1.125, 1.13},
		{-1.125, -1.13},
		{-1.231, -1.23},
		{99.999, 100},
	}
	for _, c := range cases {
		if got := Round2(c.in); got != c.want {
			t.Fatalf("Round2(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
