package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssetIDDeterministic(t *testing.T) {
	a := AssetID("drive-1", "footage/A001_C001_0612AB.r3d", "deadbeef")
	b := AssetID("drive-1", "footage/A001_C001_0612AB.r3d", "deadbeef")
	assert.Equal(t, a, b, "same inputs must always yield the same ID")
	assert.True(t, IsValidUUID(a))
}

func TestAssetIDDistinguishesInputs(t *testing.T) {
	base := AssetID("drive-1", "a/b.mov", "h1")

	assert.NotEqual(t, base, AssetID("drive-2", "a/b.mov", "h1"))
	assert.NotEqual(t, base, AssetID("drive-1", "a/c.mov", "h1"))
	assert.NotEqual(t, base, AssetID("drive-1", "a/b.mov", "h2"))
}

func TestAssetIDFieldSeparation(t *testing.T) {
	// NUL separators keep concatenation ambiguity out of the derivation
	assert.NotEqual(t,
		AssetID("drive", "ab", "c"),
		AssetID("drive", "a", "bc"))
}

func TestGenerateUUIDUnique(t *testing.T) {
	assert.NotEqual(t, GenerateUUID(), GenerateUUID())
}
