package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/salazaj/provenance-recorder/pkg/core"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a run",
	Long: `Record a run: fingerprint its inputs, outputs and params file, snapshot
git and environment state, and append the run to the catalog.

Inputs are taken as given and never recursed into; output directories are
walked recursively. A missing input or params file fails the recording and
leaves the catalog untouched.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		stores := paramsToStores()
		catalog, err := stores.catalog(ctx)
		if err != nil {
			wrapFatalln("could not load the run catalog", err)
			return
		}
		run, err := core.Record(ctx, stores.fs, stores.archive, catalog,
			core.RecordName(provFlags.record.name),
			core.RecordInputs(provFlags.record.inputs...),
			core.RecordOutputs(provFlags.record.outputs...),
			core.RecordParamsFile(provFlags.record.paramsFile),
			core.RecordWorkDir(provFlags.root.workDir),
			core.RecordProvDir(provFlags.root.provDir),
			core.RecordGitMode(effectiveGitMode()),
			core.RecordEnvMode(effectiveEnvMode()),
			core.RecordMaker(stores.maker()),
			core.RecordLogger(stores.l),
		)
		if err != nil {
			wrapFatalln("record failed", err)
			return
		}
		for _, msg := range run.Warnings.Messages() {
			infoLogger.Println("warning:", msg)
		}
		infoLogger.Println("recorded", run.RunID)
	},
}

func init() {
	requiredFlags := []string{addNameFlag(recordCmd)}

	addInputsFlag(recordCmd)
	addOutputsFlag(recordCmd)
	addParamsFlag(recordCmd)
	addWorkDirFlag(recordCmd)
	addGitModeFlag(recordCmd)
	addEnvModeFlag(recordCmd)

	for _, flag := range requiredFlags {
		if err := recordCmd.MarkFlagRequired(flag); err != nil {
			logFatalln(err)
		}
	}

	rootCmd.AddCommand(recordCmd)
}
