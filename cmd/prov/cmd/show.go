package cmd

import (
	"context"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salazaj/provenance-recorder/pkg/core"
	"github.com/salazaj/provenance-recorder/pkg/model"
)

var showCmd = &cobra.Command{
	Use:   "show <run>",
	Short: "Show one recorded run",
	Long: `Show one recorded run in full. The run is referenced by id, tag,
ordinal (#N) or a path inside its run directory.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		stores := paramsToStores()
		catalog, err := stores.catalog(ctx)
		if err != nil {
			wrapFatalln("could not load the run catalog", err)
			return
		}
		resolved, err := core.ResolveRef(stores.fs, catalog, args[0])
		if err != nil {
			wrapFatalln("could not resolve "+args[0], err)
			return
		}
		run, err := core.LoadRun(ctx, stores.fs, stores.archive, resolved)
		if err != nil {
			wrapFatalln("could not load run "+args[0], err)
			return
		}

		if provFlags.format == "json" {
			if err = printJSON(run); err != nil {
				wrapFatalln("could not render run", err)
			}
			return
		}
		renderRunText(run, catalog.TagsForRun(run.RunID))
	},
}

func renderRunText(run *model.RunDescriptor, tags []string) {
	infoLogger.Println("run:", run.RunID)
	infoLogger.Println("name:", run.Name)
	infoLogger.Println("timestamp:", run.Timestamp)
	if len(tags) > 0 {
		infoLogger.Println("tags:", strings.Join(tags, ", "))
	}
	if run.Params != nil {
		infoLogger.Println("params:", run.Params.Path, run.Params.Hash)
	}
	if run.Environment != (model.Environment{}) {
		infoLogger.Println("environment:", run.Environment.RuntimeVersion, run.Environment.Platform)
	}
	if run.Git != nil && run.Git.IsRepo {
		state := run.Git.Commit
		if run.Git.Branch != "" {
			state += " on " + run.Git.Branch
		}
		if run.Git.Dirty {
			state += " (dirty)"
		}
		infoLogger.Println("git:", state)
	}
	infoLogger.Println("inputs:")
	for _, pth := range sortedPaths(run.Inputs) {
		infoLogger.Printf("  %s  %s\n", run.Inputs[pth].Hash, pth)
	}
	infoLogger.Println("outputs:")
	for _, pth := range sortedPaths(run.Outputs) {
		infoLogger.Printf("  %s  %s\n", run.Outputs[pth].Hash, pth)
	}
	for _, msg := range run.Warnings.Messages() {
		infoLogger.Println("warning:", msg)
	}
}

func sortedPaths(m map[string]model.FileFingerprint) []string {
	paths := make([]string, 0, len(m))
	for pth := range m {
		paths = append(paths, pth)
	}
	sort.Strings(paths)
	return paths
}

func init() {
	addFormatFlag(showCmd)
	rootCmd.AddCommand(showCmd)
}
