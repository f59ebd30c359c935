package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/config"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	vkerrors "github.com/graetzmedia/vaultkeeper-sub001/internal/errors"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/modules/drivemodule"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/modules/scannermodule/scanner"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/utils"
)

// newInitCmd creates the database schema. With --force an existing sqlite
// database file is removed first.
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the catalog database",
		// Override the root pre-run: init must control when the
		// database is opened
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			path := cfgFile
			if path == "" {
				path = os.Getenv("VAULTKEEPER_CONFIG")
			}
			if path == "" {
				path = "vaultkeeper.yaml"
			}
			return config.Load(path)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if force && cfg.Database.Type == "sqlite" {
				if err := os.Remove(cfg.Database.DatabasePath); err != nil && !os.IsNotExist(err) {
					return vkerrors.NewIOError("cannot remove existing database", cfg.Database.DatabasePath, err)
				}
			}
			if err := database.Initialize(); err != nil {
				return err
			}
			fmt.Println("Catalog database initialized.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "recreate the database from scratch")
	return cmd
}

// newCatalogCmd registers (if needed) and scans a mounted drive
func newCatalogCmd() *cobra.Command {
	var label string
	var thumbnails bool

	cmd := &cobra.Command{
		Use:   "catalog <mount-path>",
		Short: "Register and scan a mounted drive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db := database.GetDB()
			mount := args[0]

			var drive database.StorageDrive
			err := db.Where("path = ?", mount).First(&drive).Error
			switch {
			case err == gorm.ErrRecordNotFound:
				created, regErr := drivemodule.RegisterDrive(db, mount, label, "")
				if regErr != nil {
					return regErr
				}
				drive = *created
				fmt.Printf("Registered drive %s (%s)\n", drive.Name, drive.ID)
			case err != nil:
				return vkerrors.NewDatabaseError("load drive", err)
			default:
				if label != "" && label != drive.Name {
					if err := db.Model(&database.StorageDrive{}).Where("id = ?", drive.ID).
						Update("name", label).Error; err != nil {
						return vkerrors.NewDatabaseError("rename drive", err)
					}
					drive.Name = label
				}
			}

			manager := scanner.NewManager(db)
			result, err := manager.ScanDrive(context.Background(), drive.ID, scanner.ScanOptions{
				GenerateThumbnails: thumbnails,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Scan complete: created=%d updated=%d skipped=%d failed=%d thumbnails=%d\n",
				result.Created, result.Updated, result.Skipped, result.Failed, result.ThumbnailsGenerated)
			return nil
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "display name for the drive")
	cmd.Flags().BoolVar(&thumbnails, "thumbnails", false, "generate thumbnails during the scan")
	return cmd
}

// newDrivesCmd lists registered drives
func newDrivesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drives",
		Short: "List registered drives",
		RunE: func(cmd *cobra.Command, args []string) error {
			var drives []database.StorageDrive
			if err := database.GetDB().Order("name").Find(&drives).Error; err != nil {
				return vkerrors.NewDatabaseError("list drives", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tID\tSTATUS\tLOCATION\tFILES\tFREE/TOTAL")
			for _, d := range drives {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s/%s\n",
					d.Name, d.ID, d.Status, d.Location, d.FileCount,
					humanBytes(d.FreeBytes), humanBytes(d.TotalBytes))
			}
			return w.Flush()
		},
	}
}

// newSearchCmd searches cataloged assets
func newSearchCmd() *cobra.Command {
	var mediaType string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search cataloged assets by filename or path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			like := "%" + args[0] + "%"
			query := database.GetDB().Model(&database.MediaAsset{}).
				Where("status <> ?", database.AssetStatusDeleted).
				Where("filename LIKE ? OR path LIKE ?", like, like)
			if mediaType != "" {
				query = query.Where("type = ?", mediaType)
			}

			var assets []database.MediaAsset
			if err := query.Order("filename").Limit(200).Find(&assets).Error; err != nil {
				return vkerrors.NewDatabaseError("search assets", err)
			}

			if len(assets) == 0 {
				fmt.Println("No matching assets.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FILENAME\tTYPE\tSIZE\tDRIVE\tPATH")
			for _, a := range assets {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					a.Filename, a.Type, humanBytes(a.SizeBytes), a.DriveName, a.Path)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&mediaType, "type", "t", "", "filter by media type (video, audio, image, document, project, other)")
	return cmd
}

// newProjectCmd creates a project
func newProjectCmd() *cobra.Command {
	var client, notes string

	cmd := &cobra.Command{
		Use:   "project <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project := &database.Project{
				ID:     utils.GenerateUUID(),
				Name:   args[0],
				Client: client,
				Notes:  notes,
			}
			if err := database.GetDB().Create(project).Error; err != nil {
				return vkerrors.NewDatabaseError("create project", err)
			}
			fmt.Printf("Created project %s (%s)\n", project.Name, project.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&client, "client", "c", "", "client name")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "project notes")
	return cmd
}

// newAddFilesCmd attaches cataloged assets to a project, by glob pattern
// or explicit paths.
func newAddFilesCmd() *cobra.Command {
	var pattern string
	var paths []string

	cmd := &cobra.Command{
		Use:   "add-files <project-id>",
		Short: "Attach cataloged assets to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db := database.GetDB()
			projectID := args[0]

			var project database.Project
			if err := db.Where("id = ?", projectID).First(&project).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return vkerrors.NewNotFoundError("project", projectID)
				}
				return vkerrors.NewDatabaseError("load project", err)
			}

			if pattern == "" && len(paths) == 0 {
				return vkerrors.NewValidationError("either --pattern or --files is required", "pattern/files")
			}

			var assets []database.MediaAsset
			if err := db.Where("status <> ?", database.AssetStatusDeleted).Find(&assets).Error; err != nil {
				return vkerrors.NewDatabaseError("load assets", err)
			}

			matched := make([]string, 0)
			for _, a := range assets {
				if pattern != "" {
					if ok, err := doublestar.Match(pattern, a.Path); err == nil && ok {
						matched = append(matched, a.ID)
						continue
					}
				}
				for _, p := range paths {
					if a.Path == p || strings.HasSuffix(a.Path, p) {
						matched = append(matched, a.ID)
						break
					}
				}
			}

			if len(matched) == 0 {
				fmt.Println("No assets matched.")
				return nil
			}

			for start := 0; start < len(matched); start += 100 {
				end := start + 100
				if end > len(matched) {
					end = len(matched)
				}
				if err := db.Model(&database.MediaAsset{}).
					Where("id IN ?", matched[start:end]).
					Update("project_id", projectID).Error; err != nil {
					return vkerrors.NewDatabaseError("assign assets", err)
				}
			}

			fmt.Printf("Attached %d assets to project %s\n", len(matched), project.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "doublestar glob matched against asset paths")
	cmd.Flags().StringSliceVarP(&paths, "files", "f", nil, "explicit asset paths")
	return cmd
}

// newQRCmd prints a drive's label payload JSON
func newQRCmd() *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "qr <drive-id>",
		Short: "Print the QR label payload for a drive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db := database.GetDB()

			var drive database.StorageDrive
			if err := db.Where("id = ?", args[0]).First(&drive).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					return vkerrors.NewNotFoundError("drive", args[0])
				}
				return vkerrors.NewDatabaseError("load drive", err)
			}

			if label != "" && label != drive.Name {
				if err := db.Model(&database.StorageDrive{}).Where("id = ?", drive.ID).
					Update("name", label).Error; err != nil {
					return vkerrors.NewDatabaseError("rename drive", err)
				}
				drive.Name = label
			}

			if err := drivemodule.RefreshQRPayload(db, &drive); err != nil {
				return vkerrors.NewDatabaseError("refresh qr payload", err)
			}

			fmt.Println(drive.QRPayload)
			return nil
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "update the drive label before printing")
	return cmd
}

// newCleanupCmd soft-deletes assets whose drive no longer exists
func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Soft-delete orphaned assets and vacate stale locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := database.GetDB()

			orphaned := db.Model(&database.MediaAsset{}).
				Where("status <> ?", database.AssetStatusDeleted).
				Where("drive_id NOT IN (?)", db.Model(&database.StorageDrive{}).Select("id")).
				Update("status", database.AssetStatusDeleted)
			if orphaned.Error != nil {
				return vkerrors.NewDatabaseError("cleanup assets", orphaned.Error)
			}

			stale := db.Model(&database.PhysicalLocation{}).
				Where("status = ?", database.LocationStatusOccupied).
				Where("occupied_by NOT IN (?)", db.Model(&database.StorageDrive{}).Select("id")).
				Updates(map[string]interface{}{
					"status":      database.LocationStatusEmpty,
					"occupied_by": "",
				})
			if stale.Error != nil {
				return vkerrors.NewDatabaseError("cleanup locations", stale.Error)
			}

			fmt.Printf("Cleanup complete: %d orphaned assets soft-deleted, %d stale locations vacated\n",
				orphaned.RowsAffected, stale.RowsAffected)
			return nil
		},
	}
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), "KMGTPE"[exp])
}
