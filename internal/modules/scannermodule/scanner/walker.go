package scanner

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/shirou/gopsutil/v4/disk"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/errors"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/logger"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/metrics"
)

// ScanOptions controls a drive scan
type ScanOptions struct {
	// IncludeTypes keeps only the listed media types. When both include
	// and exclude are set, include wins.
	IncludeTypes []database.MediaType `json:"include_types,omitempty"`
	ExcludeTypes []database.MediaType `json:"exclude_types,omitempty"`

	GenerateThumbnails bool   `json:"generate_thumbnails"`
	ThumbnailsDir      string `json:"thumbnails_dir,omitempty"`

	// IgnorePatterns are doublestar globs matched against relative paths
	IgnorePatterns []string `json:"ignore_patterns,omitempty"`
}

// FileFailure records one file that failed extraction during a scan
type FileFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// DriveInfo is the space summary for a mounted drive
type DriveInfo struct {
	TotalBytes int64  `json:"total_bytes"`
	UsedBytes  int64  `json:"used_bytes"`
	FreeBytes  int64  `json:"free_bytes"`
	Filesystem string `json:"filesystem,omitempty"`
}

// ScanSummary aggregates counts by media type
type ScanSummary struct {
	TotalFiles int                        `json:"total_files"`
	ByType     map[database.MediaType]int `json:"by_type"`
}

// ScanResult is the full output of a filesystem walk. Pure read: nothing
// here has touched the database.
type ScanResult struct {
	Files     []*FileRecord `json:"-"`
	Failures  []FileFailure `json:"failures"`
	DriveInfo DriveInfo     `json:"drive_info"`
	Summary   ScanSummary   `json:"summary"`
}

// Walker performs the depth-first filesystem traversal
type Walker struct {
	extractor *Extractor
}

// NewWalker returns a walker using the given extractor
func NewWalker(extractor *Extractor) *Walker {
	return &Walker{extractor: extractor}
}

// Scan walks the tree rooted at root, extracting every regular file.
// Per-file failures are recorded and never abort the walk; only an
// unreadable root is fatal. Symlink cycles are guarded by a canonical-path
// visited set.
func (w *Walker) Scan(root string, opts ScanOptions) (*ScanResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.NewIOError("drive path not accessible", root, err)
	}
	if !info.IsDir() {
		return nil, errors.NewIOError("drive path is not a directory", root, nil)
	}

	result := &ScanResult{
		Summary: ScanSummary{ByType: make(map[database.MediaType]int)},
	}

	visited := make(map[string]bool)
	w.walkDir(root, root, opts, visited, result)

	w.applyFilters(result, opts)
	w.probeSpace(root, result)

	result.Summary.TotalFiles = len(result.Files)
	for _, rec := range result.Files {
		result.Summary.ByType[rec.MediaType]++
	}

	return result, nil
}

func (w *Walker) walkDir(root, dir string, opts ScanOptions, visited map[string]bool, result *ScanResult) {
	canonical, err := filepath.EvalSymlinks(dir)
	if err != nil {
		result.Failures = append(result.Failures, FileFailure{Path: dir, Error: err.Error()})
		return
	}
	if visited[canonical] {
		logger.Debug("Skipping already-visited directory: %s", dir)
		return
	}
	visited[canonical] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		result.Failures = append(result.Failures, FileFailure{Path: dir, Error: err.Error()})
		return
	}

	for _, entry := range entries {
		fullPath := filepath.Join(dir, entry.Name())

		relPath, relErr := filepath.Rel(root, fullPath)
		if relErr == nil && w.ignored(filepath.ToSlash(relPath), opts.IgnorePatterns) {
			continue
		}

		// Resolve symlinks so linked directories get the cycle guard
		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			target, statErr := os.Stat(fullPath)
			if statErr != nil {
				result.Failures = append(result.Failures, FileFailure{Path: fullPath, Error: statErr.Error()})
				continue
			}
			isDir = target.IsDir()
		}

		if isDir {
			w.walkDir(root, fullPath, opts, visited, result)
			continue
		}

		if !entry.Type().IsRegular() && entry.Type()&os.ModeSymlink == 0 {
			continue
		}

		metrics.FilesScanned.Inc()

		record, extractErr := w.extractor.Extract(root, fullPath)
		if extractErr != nil {
			metrics.ScanFailures.Inc()
			result.Failures = append(result.Failures, FileFailure{Path: fullPath, Error: extractErr.Error()})
			continue
		}
		result.Files = append(result.Files, record)
	}
}

// ignored reports whether a relative path matches any ignore pattern
func (w *Walker) ignored(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

// applyFilters enforces the include/exclude media-type policy. Include
// wins when both are specified.
func (w *Walker) applyFilters(result *ScanResult, opts ScanOptions) {
	if len(opts.IncludeTypes) == 0 && len(opts.ExcludeTypes) == 0 {
		return
	}

	keep := func(mt database.MediaType) bool {
		if len(opts.IncludeTypes) > 0 {
			for _, t := range opts.IncludeTypes {
				if t == mt {
					return true
				}
			}
			return false
		}
		for _, t := range opts.ExcludeTypes {
			if t == mt {
				return false
			}
		}
		return true
	}

	filtered := result.Files[:0]
	for _, rec := range result.Files {
		if keep(rec.MediaType) {
			filtered = append(filtered, rec)
		}
	}
	result.Files = filtered
}

// probeSpace fills in total/free space for the mount containing root.
// Probe failures are non-fatal; the result just carries zero totals.
func (w *Walker) probeSpace(root string, result *ScanResult) {
	usage, err := disk.Usage(root)
	if err != nil {
		logger.Warn("Failed to probe disk usage for %s: %v", root, err)
		return
	}
	result.DriveInfo = DriveInfo{
		TotalBytes: int64(usage.Total),
		UsedBytes:  int64(usage.Used),
		FreeBytes:  int64(usage.Free),
		Filesystem: usage.Fstype,
	}
}

// ProbeDrive returns the space summary for a mount without walking it.
// Used at drive registration time.
func ProbeDrive(root string) (*DriveInfo, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, errors.NewIOError("drive path not accessible", root, err)
	}
	usage, err := disk.Usage(root)
	if err != nil {
		return nil, errors.NewIOError("cannot read filesystem usage", root, err)
	}
	return &DriveInfo{
		TotalBytes: int64(usage.Total),
		UsedBytes:  int64(usage.Used),
		FreeBytes:  int64(usage.Free),
		Filesystem: usage.Fstype,
	}, nil
}
