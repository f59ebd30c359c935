// Package utils provides shared file system, hashing, and identifier
// utilities used by the scanner and catalog modules.
package utils

import (
	"path/filepath"
	"strings"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
)

// extensionTypes maps lowercase file extensions to their media type.
// Professional camera formats (r3d, braw, mxf, ari) classify as video.
var extensionTypes = map[string]database.MediaType{
	// Video formats
	".mp4":  database.MediaTypeVideo,
	".mov":  database.MediaTypeVideo,
	".mkv":  database.MediaTypeVideo,
	".avi":  database.MediaTypeVideo,
	".wmv":  database.MediaTypeVideo,
	".flv":  database.MediaTypeVideo,
	".webm": database.MediaTypeVideo,
	".m4v":  database.MediaTypeVideo,
	".mpg":  database.MediaTypeVideo,
	".mpeg": database.MediaTypeVideo,
	".mts":  database.MediaTypeVideo,
	".m2ts": database.MediaTypeVideo,
	".mxf":  database.MediaTypeVideo,
	".r3d":  database.MediaTypeVideo,
	".braw": database.MediaTypeVideo,
	".ari":  database.MediaTypeVideo,
	".dng":  database.MediaTypeVideo, // cinema DNG sequences
	".prores": database.MediaTypeVideo,

	// Audio formats
	".wav":  database.MediaTypeAudio,
	".mp3":  database.MediaTypeAudio,
	".aac":  database.MediaTypeAudio,
	".flac": database.MediaTypeAudio,
	".ogg":  database.MediaTypeAudio,
	".m4a":  database.MediaTypeAudio,
	".aif":  database.MediaTypeAudio,
	".aiff": database.MediaTypeAudio,
	".opus": database.MediaTypeAudio,
	".wma":  database.MediaTypeAudio,

	// Image formats
	".jpg":  database.MediaTypeImage,
	".jpeg": database.MediaTypeImage,
	".png":  database.MediaTypeImage,
	".gif":  database.MediaTypeImage,
	".tif":  database.MediaTypeImage,
	".tiff": database.MediaTypeImage,
	".bmp":  database.MediaTypeImage,
	".webp": database.MediaTypeImage,
	".cr2":  database.MediaTypeImage,
	".cr3":  database.MediaTypeImage,
	".nef":  database.MediaTypeImage,
	".arw":  database.MediaTypeImage,
	".raf":  database.MediaTypeImage,
	".psd":  database.MediaTypeImage,
	".exr":  database.MediaTypeImage,
	".heic": database.MediaTypeImage,

	// Document formats
	".pdf":  database.MediaTypeDocument,
	".doc":  database.MediaTypeDocument,
	".docx": database.MediaTypeDocument,
	".xls":  database.MediaTypeDocument,
	".xlsx": database.MediaTypeDocument,
	".txt":  database.MediaTypeDocument,
	".md":   database.MediaTypeDocument,
	".csv":  database.MediaTypeDocument,
	".rtf":  database.MediaTypeDocument,

	// Editing project formats
	".prproj":  database.MediaTypeProject,
	".aep":     database.MediaTypeProject,
	".drp":     database.MediaTypeProject,
	".fcpxml":  database.MediaTypeProject,
	".fcpx":    database.MediaTypeProject,
	".avp":     database.MediaTypeProject,
	".veg":     database.MediaTypeProject,
	".xml":     database.MediaTypeProject,
	".edl":     database.MediaTypeProject,
	".aaf":     database.MediaTypeProject,
	".otio":    database.MediaTypeProject,
}

// ClassifyFile returns the media type for a file path based on its
// extension. Unknown extensions classify as MediaTypeOther.
func ClassifyFile(path string) database.MediaType {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	return database.MediaTypeOther
}

// IsMediaType reports whether the extension maps to a known media type
func IsMediaType(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := extensionTypes[ext]
	return ok
}

// NormalizeExtension returns the lowercase extension without the dot
func NormalizeExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return strings.TrimPrefix(ext, ".")
}
