package session

import "crypto/subtle"

// TokenEqual compares a supplied token against the session's token in
// constant time. A length mismatch is a definite not-equal; the
// comparison never short-circuits on the first differing byte, so timing
// reveals neither the token's length prefix nor where a mismatch occurs.
func TokenEqual(got, want string) bool {
	if len(got) != len(want) {
		// Still burn a comparison so length mismatches don't return
		// measurably faster than equal-length mismatches.
		subtle.ConstantTimeCompare([]byte(want), []byte(want))
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
