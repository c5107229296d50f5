package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/salazaj/provenance-recorder/pkg/core"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the prov directory",
	Long: `Initialize the prov directory: the runs directory, an empty run catalog,
a default configuration and a .gitignore entry. Everything already present
is left untouched, so init is safe to re-run.`,
	Run: func(cmd *cobra.Command, args []string) {
		stores := paramsToStores()
		result, err := core.InitProject(context.Background(), stores.fs, stores.archive,
			provFlags.root.workDir, provFlags.root.provDir)
		if err != nil {
			wrapFatalln("init failed", err)
			return
		}
		if result.CreatedIndex {
			infoLogger.Println("created empty run catalog")
		}
		if result.CreatedConfig {
			infoLogger.Println("wrote default config.yaml")
		}
		if result.GitignoreChanged {
			infoLogger.Println("added", provFlags.root.provDir, "to", result.GitignorePath)
		}
		infoLogger.Println("initialized", provFlags.root.provDir)
	},
}

func init() {
	addWorkDirFlag(initCmd)
	rootCmd.AddCommand(initCmd)
}
