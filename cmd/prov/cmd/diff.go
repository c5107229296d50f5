package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salazaj/provenance-recorder/pkg/core"
)

// exitCodeChanged signals a crossed --fail-on threshold, distinct from
// plain errors so CI gates can tell "changed" from "broken".
const exitCodeChanged = 5

var diffCmd = &cobra.Command{
	Use:   "diff [<runA>] [<runB>]",
	Short: "Compare two recorded runs",
	Long: `Compare two recorded runs field by field.

With no arguments the two most recent runs are compared. With one argument
it is compared against the latest run; if the argument itself is the latest,
the previous run substitutes so a run is never compared against itself.
Each argument is a run id, tag, ordinal (#N) or path.

Inputs and params form the truth tier: a change there means re-running is
necessary. Outputs, environment, warnings and git are reported but only
count towards --fail-on any.`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		failOn := core.FailOn(provFlags.diff.failOn)
		if !failOn.Valid() {
			wrapFatalln("unknown --fail-on value '"+provFlags.diff.failOn+"' (none, truth, any)", nil)
			return
		}

		ctx := context.Background()
		stores := paramsToStores()
		catalog, err := stores.catalog(ctx)
		if err != nil {
			wrapFatalln("could not load the run catalog", err)
			return
		}

		var refA, refB string
		if len(args) > 0 {
			refA = args[0]
		}
		if len(args) > 1 {
			refB = args[1]
		}
		a, b, err := core.ResolveRunPair(stores.fs, catalog, stores.runsRoot(), refA, refB)
		if err != nil {
			wrapFatalln("could not resolve the run pair", err)
			return
		}
		d, err := core.DiffRuns(ctx, stores.fs, stores.archive, catalog, a, b)
		if err != nil {
			wrapFatalln("diff failed", err)
			return
		}

		if provFlags.format == "json" {
			if err = printJSON(d); err != nil {
				wrapFatalln("could not render diff", err)
				return
			}
		} else {
			renderDiffText(d)
		}

		if failOn.Triggered(d) {
			wrapFatalWithCodef(exitCodeChanged, "changes crossed the --fail-on %s threshold", failOn)
		}
	},
}

func renderDiffText(d core.RunDiff) {
	infoLogger.Printf("A: %s%s\n", d.A.RunID, tagSuffix(d.A.Tags))
	infoLogger.Printf("B: %s%s\n", d.B.RunID, tagSuffix(d.B.Tags))
	infoLogger.Println()

	renderPathDiff("inputs", d.Inputs)
	renderPathDiff("outputs", d.Outputs)

	switch {
	case d.Params.Changed:
		infoLogger.Println("params: changed", renderOptional(d.Params.A), "->", renderOptional(d.Params.B))
	case d.Params.A == nil:
		infoLogger.Println("params: (none)")
	default:
		infoLogger.Println("params: unchanged")
	}

	if d.Environment.Changed {
		infoLogger.Printf("environment: changed %s/%s -> %s/%s\n",
			d.Environment.A.RuntimeVersion, d.Environment.A.Platform,
			d.Environment.B.RuntimeVersion, d.Environment.B.Platform)
	} else {
		infoLogger.Println("environment: unchanged")
	}

	if d.Warnings.Changed {
		infoLogger.Printf("warnings: changed (%d -> %d)\n", len(d.Warnings.A), len(d.Warnings.B))
	} else {
		infoLogger.Println("warnings: unchanged")
	}

	if len(d.Git.Reasons) > 0 {
		state := "unchanged"
		if d.Git.Changed {
			state = "changed"
		}
		infoLogger.Printf("git: %s (%s)\n", state, strings.Join(d.Git.Reasons, ", "))
	} else {
		infoLogger.Println("git: unchanged")
	}

	infoLogger.Println()
	infoLogger.Println("truth changed:", d.TruthChanged)
	infoLogger.Println("any changed:  ", d.AnyChanged)
}

func renderPathDiff(section string, d core.PathDiff) {
	if !d.HasChanges() {
		infoLogger.Printf("%s: unchanged (%d file(s))\n", section, len(d.Unchanged))
		return
	}
	infoLogger.Printf("%s:\n", section)
	for _, pth := range d.Added {
		infoLogger.Println("  + " + pth)
	}
	for _, pth := range d.Removed {
		infoLogger.Println("  - " + pth)
	}
	for _, pth := range d.Changed {
		infoLogger.Println("  ~ " + pth)
	}
}

func tagSuffix(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " [" + strings.Join(tags, ", ") + "]"
}

func renderOptional(s *string) string {
	if s == nil {
		return "(none)"
	}
	return *s
}

func init() {
	addFailOnFlag(diffCmd)
	addFormatFlag(diffCmd)
	rootCmd.AddCommand(diffCmd)
}
