package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
)

func TestClassifyFile(t *testing.T) {
	cases := map[string]database.MediaType{
		"footage/A001_C001_0612AB.R3D": database.MediaTypeVideo,
		"clip.braw":                    database.MediaTypeVideo,
		"broadcast/master.mxf":         database.MediaTypeVideo,
		"interview.wav":                database.MediaTypeAudio,
		"stills/IMG_0001.CR2":          database.MediaTypeImage,
		"notes/shotlist.pdf":           database.MediaTypeDocument,
		"edit/timeline.prproj":         database.MediaTypeProject,
		"unknown.xyz":                  database.MediaTypeOther,
		"no-extension":                 database.MediaTypeOther,
	}
	for path, want := range cases {
		assert.Equal(t, want, ClassifyFile(path), "path %s", path)
	}
}

func TestNormalizeExtension(t *testing.T) {
	assert.Equal(t, "r3d", NormalizeExtension("A001_C001_0612AB.R3D"))
	assert.Equal(t, "", NormalizeExtension("noext"))
}
