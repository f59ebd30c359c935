// This file contains content hashing utilities. Files at or below the
// configured threshold get a full SHA256; larger files get a sampled hash
// that trades collision resistance for scan throughput.
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// DefaultFastHashThreshold is the size above which sampled hashing is used.
const DefaultFastHashThreshold = int64(512 * 1024 * 1024) // 512MB

// ComputeFileHash returns a hex content hash for the file. Files at or
// below threshold are fully hashed with SHA256; larger files use
// ComputeFileHashSampled. Pass threshold <= 0 to use the default.
func ComputeFileHash(filePath string, fileSize int64, threshold int64) (string, error) {
	if threshold <= 0 {
		threshold = DefaultFastHashThreshold
	}
	if fileSize <= threshold {
		return ComputeFileHashFull(filePath)
	}
	return ComputeFileHashSampled(filePath, fileSize)
}

// ComputeFileHashFull calculates the full SHA256 hash of a file.
// Uses a 64KB buffer for better I/O efficiency on sequential reads.
func ComputeFileHashFull(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	buffer := make([]byte, 65536)

	for {
		n, err := file.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// ComputeFileHashSampled calculates a hash by sampling parts of large files.
// This is much faster for large files while still providing good uniqueness.
//
// Samples the beginning, middle, and end of the file (1MB each) together
// with the file size. Not collision-proof: two large files differing only
// outside the sampled regions hash identically. Acceptable for catalog
// identity where size and path also participate in the asset ID.
func ComputeFileHashSampled(filePath string, fileSize int64) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()

	sampleSize := int64(1024 * 1024)

	// Hash the file size first (helps differentiate files of different sizes)
	fmt.Fprintf(hasher, "size:%d", fileSize)

	buffer := make([]byte, sampleSize)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}
	hasher.Write(buffer[:n])

	// Read middle chunk if file is large enough
	if fileSize > sampleSize*3 {
		middleOffset := (fileSize / 2) - (sampleSize / 2)
		if _, err = file.Seek(middleOffset, 0); err != nil {
			return "", err
		}

		n, err = file.Read(buffer)
		if err != nil && err != io.EOF {
			return "", err
		}
		hasher.Write(buffer[:n])
	}

	// Read last chunk if file is large enough
	if fileSize > sampleSize*2 {
		lastOffset := fileSize - sampleSize
		if lastOffset < 0 {
			lastOffset = 0
		}

		if _, err = file.Seek(lastOffset, 0); err != nil {
			return "", err
		}

		n, err = file.Read(buffer)
		if err != nil && err != io.EOF {
			return "", err
		}
		hasher.Write(buffer[:n])
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// ValidateHash checks if a hash string is a valid SHA256 hex digest.
func ValidateHash(hash string) bool {
	if len(hash) != 64 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

// TruncateHash returns a truncated version of the hash for display purposes.
// This should NOT be used for storage or lookups, only for logging.
func TruncateHash(hash string, length int) string {
	if len(hash) <= length {
		return hash
	}
	return hash[:length] + "..."
}
