package utils

import (
	"github.com/google/uuid"
)

// GenerateUUID generates a new UUID v4 string for entity primary keys.
func GenerateUUID() string {
	return uuid.New().String()
}

// IsValidUUID checks if a string is a valid UUID.
func IsValidUUID(uuidStr string) bool {
	_, err := uuid.Parse(uuidStr)
	return err == nil
}

// NamespaceAssets is the namespace UUID for deterministic media asset IDs.
var NamespaceAssets = uuid.MustParse("6ba7b815-9dad-11d1-80b4-00c04fd430c8")

// AssetID derives the deterministic asset identifier from the owning drive,
// the drive-relative path, and the content hash. The same three inputs
// always yield the same UUID, so re-scans of unchanged files resolve to
// the same catalog row. NUL separators keep the fields unambiguous.
func AssetID(driveID, relPath, hash string) string {
	name := driveID + "\x00" + relPath + "\x00" + hash
	return uuid.NewSHA1(NamespaceAssets, []byte(name)).String()
}
