package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestComputeFileHashFull(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	path := writeTempFile(t, "small.txt", data)

	hash, err := ComputeFileHashFull(path)
	require.NoError(t, err)

	expected := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(expected[:]), hash)
}

func TestComputeFileHashSampledDeterministic(t *testing.T) {
	// 4MB of patterned data so all three sample windows exist
	data := make([]byte, 4*1024*1024)
	for i := range data {
		data[i] = byte(i % 251)
	}
	path := writeTempFile(t, "large.bin", data)

	first, err := ComputeFileHashSampled(path, int64(len(data)))
	require.NoError(t, err)
	second, err := ComputeFileHashSampled(path, int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, ValidateHash(first))
}

func TestComputeFileHashSampledDiffersFromFull(t *testing.T) {
	data := make([]byte, 4*1024*1024)
	path := writeTempFile(t, "large2.bin", data)

	full, err := ComputeFileHashFull(path)
	require.NoError(t, err)
	sampled, err := ComputeFileHashSampled(path, int64(len(data)))
	require.NoError(t, err)

	// Sampled mode includes the size prefix, so the digests must differ
	assert.NotEqual(t, full, sampled)
}

func TestComputeFileHashThreshold(t *testing.T) {
	data := []byte("threshold test content")
	path := writeTempFile(t, "t.bin", data)

	full, err := ComputeFileHash(path, int64(len(data)), 1024)
	require.NoError(t, err)

	expected := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(expected[:]), full, "below threshold uses full hash")

	sampled, err := ComputeFileHash(path, int64(len(data)), 4)
	require.NoError(t, err)
	assert.NotEqual(t, full, sampled, "above threshold uses sampled hash")
}

func TestComputeFileHashUnreadable(t *testing.T) {
	_, err := ComputeFileHashFull(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
}

func TestValidateHash(t *testing.T) {
	assert.True(t, ValidateHash("a665a45920422f9d417e4867efdc4fb8a04a1f3fff1fa07e998e86f7f7a27ae3"))
	assert.False(t, ValidateHash("short"))
	assert.False(t, ValidateHash("zz65a45920422f9d417e4867efdc4fb8a04a1f3fff1fa07e998e86f7f7a27ae3"))
}

func TestTruncateHash(t *testing.T) {
	assert.Equal(t, "abcd...", TruncateHash("abcdef", 4))
	assert.Equal(t, "ab", TruncateHash("ab", 4))
}
