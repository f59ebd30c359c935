// Command vaultkeeper-cli is the cataloging CLI: drive registration and
// scanning, asset search, project management, and maintenance tasks.
package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/graetzmedia/vaultkeeper-sub001/internal/config"
	"github.com/graetzmedia/vaultkeeper-sub001/internal/database"
	vkerrors "github.com/graetzmedia/vaultkeeper-sub001/internal/errors"
)

// Exit codes by failure class
const (
	exitOK           = 0
	exitGeneric      = 1
	exitValidation   = 2
	exitConflict     = 3
	exitNotFound     = 4
	exitIO           = 5
	exitExternalTool = 6
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "vaultkeeper-cli",
	Short:         "Catalog archived production drives",
	Long:          "VaultKeeper CLI catalogs mounted drives, tracks physical storage locations, and manages projects over the shared catalog database.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		path := cfgFile
		if path == "" {
			path = os.Getenv("VAULTKEEPER_CONFIG")
		}
		if path == "" {
			path = "vaultkeeper.yaml"
		}
		if err := config.Load(path); err != nil {
			return err
		}
		return database.Initialize()
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	rootCmd.AddCommand(
		newInitCmd(),
		newCatalogCmd(),
		newDrivesCmd(),
		newSearchCmd(),
		newProjectCmd(),
		newAddFilesCmd(),
		newQRCmd(),
		newCleanupCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps the error taxonomy onto distinct exit codes so shell
// wrappers can branch on failure class.
func exitCodeFor(err error) int {
	var ve *vkerrors.VaultError
	if stderrors.As(err, &ve) {
		switch ve.Code {
		case vkerrors.CodeValidation:
			return exitValidation
		case vkerrors.CodeConflict:
			return exitConflict
		case vkerrors.CodeNotFound:
			return exitNotFound
		case vkerrors.CodeIO:
			return exitIO
		case vkerrors.CodeExternalTool:
			return exitExternalTool
		}
	}
	return exitGeneric
}
