package scanner

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
)

func makeTree(t *testing.T, files map[string][]byte) string {
	t.Helper()
	root := t.TempDir()
	for rel, data := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, data, 0644))
	}
	return root
}

func TestWalkerScanBasic(t *testing.T) {
	root := makeTree(t, map[string][]byte{
		"footage/clip1.mov":  []byte("video one"),
		"footage/clip2.mov":  []byte("video two"),
		"audio/interview.wav": []byte("audio"),
		"docs/notes.pdf":     []byte("doc"),
	})

	walker := NewWalker(NewExtractor(0))
	result, err := walker.Scan(root, ScanOptions{})
	require.NoError(t, err)

	assert.Len(t, result.Files, 4)
	assert.Empty(t, result.Failures)
	assert.Equal(t, 4, result.Summary.TotalFiles)
	assert.Equal(t, 2, result.Summary.ByType[database.MediaTypeVideo])
	assert.Equal(t, 1, result.Summary.ByType[database.MediaTypeAudio])
	assert.Equal(t, 1, result.Summary.ByType[database.MediaTypeDocument])

	for _, rec := range result.Files {
		assert.NotEmpty(t, rec.Hash)
		assert.NotContains(t, rec.RelPath, root, "paths are drive-relative")
	}
}

func TestWalkerScanMissingRoot(t *testing.T) {
	walker := NewWalker(NewExtractor(0))
	_, err := walker.Scan(filepath.Join(t.TempDir(), "not-mounted"), ScanOptions{})
	assert.Error(t, err, "unreadable root is a drive-level failure")
}

func TestWalkerPartialFailureTolerance(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks unreliable on windows")
	}

	root := makeTree(t, map[string][]byte{
		"ok1.mov": []byte("a"),
		"ok2.mov": []byte("b"),
	})
	// Dangling symlink: stat fails during extraction, scan continues
	require.NoError(t, os.Symlink(filepath.Join(root, "gone.mov"), filepath.Join(root, "broken.mov")))

	walker := NewWalker(NewExtractor(0))
	result, err := walker.Scan(root, ScanOptions{})
	require.NoError(t, err, "per-file failures never abort the scan")

	assert.Len(t, result.Files, 2)
	assert.Len(t, result.Failures, 1)
}

func TestWalkerSymlinkCycleGuard(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks unreliable on windows")
	}

	root := makeTree(t, map[string][]byte{
		"sub/file.mov": []byte("content"),
	})
	// sub/loop -> sub creates a traversal cycle
	require.NoError(t, os.Symlink(filepath.Join(root, "sub"), filepath.Join(root, "sub", "loop")))

	walker := NewWalker(NewExtractor(0))
	result, err := walker.Scan(root, ScanOptions{})
	require.NoError(t, err)

	assert.Len(t, result.Files, 1, "each file visited exactly once despite the cycle")
}

func TestWalkerIncludeWinsOverExclude(t *testing.T) {
	root := makeTree(t, map[string][]byte{
		"a.mov": []byte("v"),
		"b.wav": []byte("a"),
		"c.pdf": []byte("d"),
	})

	walker := NewWalker(NewExtractor(0))
	result, err := walker.Scan(root, ScanOptions{
		IncludeTypes: []database.MediaType{database.MediaTypeVideo},
		ExcludeTypes: []database.MediaType{database.MediaTypeVideo},
	})
	require.NoError(t, err)

	require.Len(t, result.Files, 1)
	assert.Equal(t, database.MediaTypeVideo, result.Files[0].MediaType)
}

func TestWalkerExcludeFilter(t *testing.T) {
	root := makeTree(t, map[string][]byte{
		"a.mov": []byte("v"),
		"b.wav": []byte("a"),
	})

	walker := NewWalker(NewExtractor(0))
	result, err := walker.Scan(root, ScanOptions{
		ExcludeTypes: []database.MediaType{database.MediaTypeAudio},
	})
	require.NoError(t, err)

	require.Len(t, result.Files, 1)
	assert.Equal(t, database.MediaTypeVideo, result.Files[0].MediaType)
}

func TestWalkerIgnorePatterns(t *testing.T) {
	root := makeTree(t, map[string][]byte{
		"keep.mov":                 []byte("v"),
		".DS_Store":                []byte("junk"),
		"System Volume Information/x.mov": []byte("junk"),
	})

	walker := NewWalker(NewExtractor(0))
	result, err := walker.Scan(root, ScanOptions{
		IgnorePatterns: []string{"**/.*", ".*", "System Volume Information/**", "System Volume Information"},
	})
	require.NoError(t, err)

	require.Len(t, result.Files, 1)
	assert.Equal(t, "keep.mov", result.Files[0].Filename)
}
