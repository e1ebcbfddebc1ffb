package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

func HashToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

// TokenMatches compares a presented token to the expected one in constant
// time. An empty expected token never matches.
func TokenMatches(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashToken(got)), []byte(HashToken(want))) == 1
}
