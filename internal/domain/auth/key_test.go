package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashKey(t *testing.T) {
	pepper := []byte("pepper")

	h := HashKey(pepper, "secret")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashKey(pepper, "secret"))
	assert.NotEqual(t, h, HashKey(pepper, "other"))
	assert.NotEqual(t, h, HashKey([]byte("salt"), "secret"))
}

func TestNewKey(t *testing.T) {
	a, b := NewKey(), NewKey()
	assert.True(t, strings.HasPrefix(a, "ksr_"))
	assert.NotEqual(t, a, b)
}
