package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashString(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashString(""))

	h := HashString("+15551234567")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashString("+15551234567"))
	assert.NotEqual(t, h, HashString("+15551234568"))
	assert.NotContains(t, h, "5551234567")
}
