// Package scanner implements the drive cataloging pipeline: per-file
// extraction, camera clip grouping, filesystem traversal, and catalog
// reconciliation.
package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/errors"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/utils"
)

// FileRecord is the normalized output of extraction for a single file
type FileRecord struct {
	Path      string // absolute path on the mounted drive
	RelPath   string // path relative to the drive root
	Filename  string
	Extension string
	Size      int64
	Modified  time.Time
	MediaType database.MediaType
	Hash      string
	Metadata  map[string]interface{}

	// Clip grouping, filled in by the grouper
	ClipKey string
}

// Extractor computes content fingerprints and file attributes
type Extractor struct {
	// FastHashThreshold is the size above which sampled hashing is used
	FastHashThreshold int64
}

// NewExtractor returns an extractor with the given hash threshold.
// Pass 0 to use the default.
func NewExtractor(fastHashThreshold int64) *Extractor {
	if fastHashThreshold <= 0 {
		fastHashThreshold = utils.DefaultFastHashThreshold
	}
	return &Extractor{FastHashThreshold: fastHashThreshold}
}

// Extract stats, hashes, and classifies a single file. root is the drive
// mount point used to derive the relative path. Unreadable paths return an
// IOError; the caller records the failure and continues the batch.
func (e *Extractor) Extract(root, path string) (*FileRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewIOError("cannot stat file", path, err)
	}

	hash, err := utils.ComputeFileHash(path, info.Size(), e.FastHashThreshold)
	if err != nil {
		return nil, errors.NewIOError("cannot hash file", path, err)
	}

	relPath, err := filepath.Rel(root, path)
	if err != nil {
		relPath = path
	}
	relPath = filepath.ToSlash(relPath)

	mediaType := utils.ClassifyFile(path)

	record := &FileRecord{
		Path:      path,
		RelPath:   relPath,
		Filename:  filepath.Base(path),
		Extension: utils.NormalizeExtension(path),
		Size:      info.Size(),
		Modified:  info.ModTime(),
		MediaType: mediaType,
		Hash:      hash,
		Metadata:  map[string]interface{}{},
	}

	if mediaType == database.MediaTypeAudio {
		e.enrichAudio(record)
	}

	return record, nil
}

// enrichAudio merges embedded tag metadata into the record. Tag-read
// failures are ignored and the record keeps its extractor-basic metadata.
func (e *Extractor) enrichAudio(record *FileRecord) {
	f, err := os.Open(record.Path)
	if err != nil {
		return
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return
	}

	if v := meta.Title(); v != "" {
		record.Metadata["title"] = v
	}
	if v := meta.Artist(); v != "" {
		record.Metadata["artist"] = v
	}
	if v := meta.Album(); v != "" {
		record.Metadata["album"] = v
	}
	if v := meta.Genre(); v != "" {
		record.Metadata["genre"] = v
	}
	if v := meta.Year(); v != 0 {
		record.Metadata["year"] = v
	}
}

// baseName returns the filename without its extension
func baseName(filename string) string {
	ext := filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext)
}
