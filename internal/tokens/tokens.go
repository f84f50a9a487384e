// Package tokens provides the character-based token estimate used by the
// context budgeting pipeline. The heuristic is intentionally crude: roughly
// four characters per token, rounded up. It is an upper-bound stand-in for a
// real tokenizer, and callers must treat the result as approximate — good
// enough to decide what fits in a prompt, not good enough for billing.
package tokens

// CharsPerToken is the assumed average characters per token.
const CharsPerToken = 4

// Estimate returns an approximate token count for text.
// Deterministic, O(len(text)), never negative. Empty input returns 0.
func Estimate(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + CharsPerToken - 1) / CharsPerToken
}
