package scanner

import (
	"path"
	"regexp"
	"sort"
	"strings"
)

// ClipGroup is a set of files belonging to one camera clip. Multi-file
// recordings (chunked RED clips) share a group so that thumbnail and
// detailed-metadata extraction runs once per clip, not once per chunk.
type ClipGroup struct {
	// Key is "dir|clipKey" for camera clips, or the file's own relative
	// path for singletons
	Key string

	// ClipKey is the reel_clip filename prefix, empty for singletons
	ClipKey string

	// Members are path-sorted so representative selection is stable
	Members []*FileRecord
}

// Representative returns the deterministic middle member of the path-sorted
// group. Singletons return their only member.
func (g *ClipGroup) Representative() *FileRecord {
	return g.Members[len(g.Members)/2]
}

// clipKeyPattern matches chunked camera filenames like A001_C001_0612AB:
// two underscore-delimited fields followed by a chunk counter.
var clipKeyPattern = regexp.MustCompile(`^([A-Za-z]\d+_[A-Za-z]\d+)_\w+$`)

// isClipFolder reports whether any path segment matches the RDC camera
// folder convention, case-insensitively.
func isClipFolder(relPath string) bool {
	dir := path.Dir(relPath)
	for _, segment := range strings.Split(dir, "/") {
		if strings.EqualFold(segment, "RDC") || strings.HasSuffix(strings.ToUpper(segment), ".RDC") {
			return true
		}
	}
	return false
}

// clipKeyFor derives the clip key from a chunked camera filename.
// "A001_C001_0612AB.r3d" yields "A001_C001"; filenames that don't follow
// the convention yield "".
func clipKeyFor(filename string) string {
	base := baseName(filename)
	m := clipKeyPattern.FindStringSubmatch(base)
	if m == nil {
		return ""
	}
	return m[1]
}

// GroupClips partitions scanned records into clip groups. Files inside an
// RDC folder sharing a clip key group together; everything else is a
// singleton keyed by its own path. Output order and group membership are
// stable across runs for the same input set.
func GroupClips(records []*FileRecord) []*ClipGroup {
	byKey := make(map[string]*ClipGroup)
	order := make([]string, 0, len(records))

	for _, rec := range records {
		key := rec.RelPath
		clipKey := ""

		if isClipFolder(rec.RelPath) {
			if ck := clipKeyFor(rec.Filename); ck != "" {
				clipKey = ck
				key = path.Dir(rec.RelPath) + "|" + ck
			}
		}

		rec.ClipKey = clipKey

		group, exists := byKey[key]
		if !exists {
			group = &ClipGroup{Key: key, ClipKey: clipKey}
			byKey[key] = group
			order = append(order, key)
		}
		group.Members = append(group.Members, rec)
	}

	sort.Strings(order)

	groups := make([]*ClipGroup, 0, len(order))
	for _, key := range order {
		group := byKey[key]
		sort.Slice(group.Members, func(i, j int) bool {
			return group.Members[i].RelPath < group.Members[j].RelPath
		})
		groups = append(groups, group)
	}

	return groups
}
