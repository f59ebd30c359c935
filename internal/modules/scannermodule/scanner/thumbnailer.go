package scanner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/errors"
)

// Thumbnailer shells out to ffmpeg (general video/image) or REDline (RED
// camera raw) to extract a preview frame. Tool failures degrade gracefully:
// the asset is still cataloged, just without a thumbnail.
type Thumbnailer struct {
	OutputDir   string
	FFmpegPath  string
	RedlinePath string
	Width       int
	Height      int
	Timeout     time.Duration

	log hclog.Logger
}

// NewThumbnailer returns a thumbnailer writing into outputDir
func NewThumbnailer(outputDir, ffmpegPath, redlinePath string, width, height int) *Thumbnailer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if redlinePath == "" {
		redlinePath = "REDline"
	}
	if width <= 0 {
		width = 320
	}
	if height <= 0 {
		height = 240
	}
	return &Thumbnailer{
		OutputDir:   outputDir,
		FFmpegPath:  ffmpegPath,
		RedlinePath: redlinePath,
		Width:       width,
		Height:      height,
		Timeout:     2 * time.Minute,
		log: hclog.New(&hclog.LoggerOptions{
			Name:  "thumbnailer",
			Level: hclog.Info,
		}),
	}
}

// Generate extracts a thumbnail for the asset and returns the written
// path. The output filename is derived from the asset ID so repeated runs
// overwrite rather than accumulate.
func (t *Thumbnailer) Generate(ctx context.Context, assetID string, record *FileRecord) (string, error) {
	if err := os.MkdirAll(t.OutputDir, 0755); err != nil {
		return "", errors.NewIOError("cannot create thumbnail directory", t.OutputDir, err)
	}

	outPath := filepath.Join(t.OutputDir, assetID+".jpg")

	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	var err error
	if strings.EqualFold(record.Extension, "r3d") {
		err = t.runRedline(ctx, record.Path, outPath)
	} else {
		err = t.runFFmpeg(ctx, record, outPath)
	}
	if err != nil {
		return "", err
	}

	if _, statErr := os.Stat(outPath); statErr != nil {
		return "", errors.NewExternalToolError("thumbnail", manualFallback(record), fmt.Errorf("no output produced"))
	}

	return outPath, nil
}

func (t *Thumbnailer) runFFmpeg(ctx context.Context, record *FileRecord, outPath string) error {
	args := []string{"-y", "-i", record.Path}
	if record.MediaType == database.MediaTypeVideo {
		// Grab a frame a few seconds in to skip black leaders
		args = append(args, "-ss", "00:00:03", "-frames:v", "1")
	}
	args = append(args,
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", t.Width, t.Height),
		outPath,
	)

	cmd := exec.CommandContext(ctx, t.FFmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.log.Warn("ffmpeg failed", "file", record.Path, "error", err, "output", truncateOutput(output))
		return errors.NewExternalToolError("ffmpeg", manualFallback(record), err)
	}
	return nil
}

func (t *Thumbnailer) runRedline(ctx context.Context, srcPath, outPath string) error {
	// REDline writes <base>.0000001.jpg alongside the requested output;
	// --useMeta keeps clip color metadata
	args := []string{
		"--i", srcPath,
		"--format", "3", // JPEG
		"--res", "8", // 1/8 debayer, fastest preview
		"--o", strings.TrimSuffix(outPath, ".jpg"),
		"--useMeta",
	}

	cmd := exec.CommandContext(ctx, t.RedlinePath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.log.Warn("REDline failed", "file", srcPath, "error", err, "output", truncateOutput(output))
		return errors.NewExternalToolError("REDline", "extract a frame manually with REDCINE-X PRO", err)
	}

	// Normalize REDline's frame-numbered output to the expected path
	base := strings.TrimSuffix(outPath, ".jpg")
	matches, _ := filepath.Glob(base + ".*.jpg")
	if len(matches) > 0 && matches[0] != outPath {
		if renameErr := os.Rename(matches[0], outPath); renameErr != nil {
			return errors.NewIOError("cannot move REDline output", matches[0], renameErr)
		}
	}
	return nil
}

func manualFallback(record *FileRecord) string {
	if record.MediaType == database.MediaTypeVideo {
		return "open the file in a player and export a frame manually"
	}
	return "open the file and export a resized copy manually"
}

func truncateOutput(output []byte) string {
	s := string(output)
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
