package seats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInviteToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := newInviteToken()
		require.NoError(t, err)
		assert.Len(t, token, inviteTokenLength)
		assert.False(t, seen[token], "token collision")
		seen[token] = true
	}
}
