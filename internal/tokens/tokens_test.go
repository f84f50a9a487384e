package tokens

import (
	"strings"
	"testing"
)

func TestEstimate_Empty(t *testing.T) {
	if got := Estimate(""); got != 0 {
		t.Fatalf("empty string should estimate 0 tokens, got %d", got)
	}
}

func TestEstimate_RoundsUp(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 8), 2},
		{strings.Repeat("x", 9), 3},
		{strings.Repeat("x", 4000), 1000},
	}
	for _, c := range cases {
		if got := Estimate(c.text); got != c.want {
			t.Fatalf("Estimate(%d chars) = %d, want %d", len(c.text), got, c.want)
		}
	}
}

func TestEstimate_Deterministic(t *testing.T) {
	s := "We decided to use Next.js and Postgres."
	if Estimate(s) != Estimate(s) {
		t.Fatal("estimate must be deterministic for a fixed input")
	}
}

func TestEstimate_MonotonicOnPrefixes(t *testing.T) {
	b := strings.Repeat("prefix monotonicity check ", 50)
	for i := 0; i <= len(b); i += 7 {
		if Estimate(b[:i]) > Estimate(b) {
			t.Fatalf("prefix of length %d estimated higher than the full string", i)
		}
	}
}
