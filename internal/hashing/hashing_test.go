package hashing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashBytesDeterministic(t *testing.T) {
	a := HashBytes([]byte("certificate body"))
	b := HashBytes([]byte("certificate body"))
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestHashBytesDiffers(t *testing.T) {
	assert.NotEqual(t, HashBytes([]byte("a")), HashBytes([]byte("b")))
}

func TestHashTextMatchesBytes(t *testing.T) {
	// text hashing is defined over the UTF-8 encoding
	assert.Equal(t, HashBytes([]byte("héllo")), HashText("héllo"))
}

func TestHashTextEmpty(t *testing.T) {
	// sha256 of the empty string, stable across runs
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", HashText(""))
}
