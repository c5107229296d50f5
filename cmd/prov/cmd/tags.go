package cmd

import (
	"context"
	"sort"

	"github.com/spf13/cobra"
)

type tagLine struct {
	Tag   string `json:"tag"`
	RunID string `json:"run_id"`
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags",
	Long:  "List all tag aliases and the runs they point at, sorted by tag name.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		stores := paramsToStores()
		catalog, err := stores.catalog(ctx)
		if err != nil {
			wrapFatalln("could not load the run catalog", err)
			return
		}

		lines := make([]tagLine, 0, len(catalog.Tags))
		for tag, runID := range catalog.Tags {
			lines = append(lines, tagLine{Tag: tag, RunID: runID})
		}
		sort.Slice(lines, func(i, j int) bool { return lines[i].Tag < lines[j].Tag })

		if provFlags.format == "json" {
			if err = printJSON(lines); err != nil {
				wrapFatalln("could not render listing", err)
			}
			return
		}
		for _, line := range lines {
			infoLogger.Println(line.Tag, "->", line.RunID)
		}
	},
}

func init() {
	addFormatFlag(tagsCmd)
	rootCmd.AddCommand(tagsCmd)
}
