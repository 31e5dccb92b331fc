package checkout

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderNoFormat(t *testing.T) {
	re := regexp.MustCompile(`^OD[0-9A-F]{10}\d{4}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		no, err := NewOrderNo()
		require.NoError(t, err)
		assert.Regexp(t, re, no)
		assert.False(t, seen[no], "duplicate order number %s", no)
		seen[no] = true
	}
}

func TestNewQueryTokenFormat(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{32}$`)
	a, err := NewQueryToken()
	require.NoError(t, err)
	b, err := NewQueryToken()
	require.NoError(t, err)
	assert.Regexp(t, re, a)
	assert.Regexp(t, re, b)
	assert.NotEqual(t, a, b)
}
