package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/salazaj/provenance-recorder/pkg/core"
)

var tagCmd = &cobra.Command{
	Use:   "tag <run|tag> <tag|run>",
	Short: "Point a tag at a run",
	Long: `Point a tag at a run. The two arguments may come in either order: prov
works out which one is the run reference and which the tag name. When both
readings are plausible the command refuses and asks for an explicit form
(an ordinal, a full run id or a path pins the run side).

An existing tag is only reassigned with --force.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		stores := paramsToStores()
		catalog, err := stores.catalog(ctx)
		if err != nil {
			wrapFatalln("could not load the run catalog", err)
			return
		}

		decided, err := core.ResolveTagArgs(args[0], args[1], core.TagPredicates{
			ExistingTags: catalog.Tags,
			TagOK:        func(x string) bool { return core.ValidateTagName(x) == nil },
			RunOK: func(x string) bool {
				runID, ere := core.ResolveRefToRunID(stores.fs, catalog, stores.runsRoot(), x)
				if ere != nil {
					return false
				}
				_, ok := catalog.Entry(runID)
				return ok
			},
		})
		if err != nil {
			wrapFatalln("cannot tell the run from the tag", err)
			return
		}

		runID, err := core.ResolveRefToRunID(stores.fs, catalog, stores.runsRoot(), decided.RunRef)
		if err != nil {
			wrapFatalln("could not resolve "+decided.RunRef, err)
			return
		}
		if _, ok := catalog.Entry(runID); !ok {
			wrapFatalln("no recorded run matches "+decided.RunRef, nil)
			return
		}
		if err = catalog.SetTag(decided.TagName, runID, provFlags.tag.force); err != nil {
			wrapFatalln("could not set tag", err)
			return
		}
		if err = catalog.Write(ctx); err != nil {
			wrapFatalln("could not write the run catalog", err)
			return
		}
		infoLogger.Println("tagged", runID, "as", decided.TagName)
	},
}

func init() {
	addForceFlag(tagCmd)
	rootCmd.AddCommand(tagCmd)
}
