package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/salazaj/provenance-recorder/pkg/core"
)

var repairCmd = &cobra.Command{
	Use:   "repair-index",
	Short: "Rebuild the run catalog from the run directories",
	Long: `Rebuild the run catalog by scanning the run directories on disk. Use this
when the index document was lost or corrupted.

Run records missing a timestamp get one inferred from their run id, written
back into the record. Tags whose run still exists are kept; the rest are
dropped with a warning. The previous index is backed up unless --no-backup.`,
	Run: func(cmd *cobra.Command, args []string) {
		stores := paramsToStores()
		result, err := core.RepairIndex(context.Background(), stores.archive,
			core.RepairBackup(!provFlags.repair.noBackup),
			core.RepairKeepTags(!provFlags.repair.dropTags),
			core.RepairDryRun(provFlags.repair.dryRun),
			core.RepairProvDir(provFlags.root.provDir),
			core.RepairLogger(stores.l),
		)
		if err != nil {
			wrapFatalln("repair failed", err)
			return
		}
		for _, msg := range result.Warnings {
			infoLogger.Println("warning:", msg)
		}
		if provFlags.repair.dryRun {
			infoLogger.Println("dry run, nothing written")
		}
		infoLogger.Printf("found %d run(s), kept %d of %d tag(s), backfilled %d timestamp(s)\n",
			result.RunsCount, result.TagsKept, result.TagsTotalBefore, result.TimestampsAdded)
		if result.BackupPath != "" {
			infoLogger.Println("previous index saved as", result.BackupPath)
		}
	},
}

func init() {
	addDryRunFlag(repairCmd)
	addNoBackupFlag(repairCmd)
	addDropTagsFlag(repairCmd)
	rootCmd.AddCommand(repairCmd)
}
