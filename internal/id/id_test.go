package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	got, err := Generate(PrefixMessage)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, "msg_"))
	// prefix + "_" + 21-char nanoid
	assert.Len(t, got, len(PrefixMessage)+1+21)
}

func TestGenerateUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id, err := Generate(PrefixListing)
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate id generated: %s", id)
		seen[id] = true
	}
}

func TestMustGenerate(t *testing.T) {
	assert.NotPanics(t, func() {
		id := MustGenerate(PrefixConversation)
		assert.True(t, strings.HasPrefix(id, "conv_"))
	})
}
