package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashToken(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashToken(""))
	assert.Len(t, HashToken("dev-secret-token"), 64)
	assert.NotEqual(t, HashToken("a"), HashToken("b"))
}

func TestTokenMatches(t *testing.T) {
	assert.True(t, TokenMatches("dev-secret-token", "dev-secret-token"))
	assert.False(t, TokenMatches("dev-secret-token", "other"))
	assert.False(t, TokenMatches("", ""))
	assert.False(t, TokenMatches("anything", ""))
}
