package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(paths ...string) []*FileRecord {
	out := make([]*FileRecord, 0, len(paths))
	for _, p := range paths {
		out = append(out, &FileRecord{
			RelPath:  p,
			Filename: p[lastSlash(p)+1:],
		})
	}
	return out
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

func TestClipKeyFor(t *testing.T) {
	assert.Equal(t, "A001_C001", clipKeyFor("A001_C001_0612AB.r3d"))
	assert.Equal(t, "B002_C015", clipKeyFor("B002_C015_0001.R3D"))
	assert.Equal(t, "", clipKeyFor("readme.txt"))
	assert.Equal(t, "", clipKeyFor("A001_C001.r3d"), "no chunk counter, no clip key")
}

func TestIsClipFolder(t *testing.T) {
	assert.True(t, isClipFolder("A001_0612AB.RDC/A001_C001_0612AB_001.R3D"))
	assert.True(t, isClipFolder("card1/rdc/A001_C001_0001.r3d"))
	assert.False(t, isClipFolder("footage/interview.mov"))
}

func TestGroupClipsChunkedRecording(t *testing.T) {
	recs := records(
		"A001.RDC/A001_C001_0001.r3d",
		"A001.RDC/A001_C001_0002.r3d",
		"A001.RDC/A001_C001_0003.r3d",
		"A001.RDC/A001_C002_0001.r3d",
		"misc/readme.txt",
	)

	groups := GroupClips(recs)
	require.Len(t, groups, 3)

	var clipGroup *ClipGroup
	for _, g := range groups {
		if g.ClipKey == "A001_C001" {
			clipGroup = g
		}
	}
	require.NotNil(t, clipGroup)
	assert.Len(t, clipGroup.Members, 3)

	// Representative is the middle of the path-sorted members
	assert.Equal(t, "A001.RDC/A001_C001_0002.r3d", clipGroup.Representative().RelPath)

	// Members carry the clip key, singletons don't
	for _, m := range clipGroup.Members {
		assert.Equal(t, "A001_C001", m.ClipKey)
	}
}

func TestGroupClipsStability(t *testing.T) {
	paths := []string{
		"A001.RDC/A001_C001_0003.r3d",
		"A001.RDC/A001_C001_0001.r3d",
		"A001.RDC/A001_C001_0002.r3d",
	}

	first := GroupClips(records(paths...))
	// Different input order, same file set
	second := GroupClips(records(paths[2], paths[0], paths[1]))

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Key, second[0].Key)
	assert.Equal(t, first[0].Representative().RelPath, second[0].Representative().RelPath)

	firstPaths := make([]string, 0)
	for _, m := range first[0].Members {
		firstPaths = append(firstPaths, m.RelPath)
	}
	secondPaths := make([]string, 0)
	for _, m := range second[0].Members {
		secondPaths = append(secondPaths, m.RelPath)
	}
	assert.Equal(t, firstPaths, secondPaths, "membership order is stable across runs")
}

func TestGroupClipsSingletons(t *testing.T) {
	recs := records("a/x.mov", "a/y.mov")
	groups := GroupClips(recs)

	require.Len(t, groups, 2)
	for _, g := range groups {
		assert.Len(t, g.Members, 1)
		assert.Empty(t, g.ClipKey)
		assert.Equal(t, g.Members[0], g.Representative())
	}
}

func TestGroupClipsOutsideRDCNotGrouped(t *testing.T) {
	// Clip-style names outside an RDC folder stay singletons
	recs := records(
		"loose/A001_C001_0001.r3d",
		"loose/A001_C001_0002.r3d",
	)
	groups := GroupClips(recs)
	assert.Len(t, groups, 2)
}
