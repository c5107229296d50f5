package cmd

import (
	"bytes"
	"context"
	"log"
	"text/template"

	"github.com/spf13/cobra"
)

// runLine is one row of the runs listing.
type runLine struct {
	Ordinal int      `json:"ordinal"`
	RunID   string   `json:"run_id"`
	Name    string   `json:"name"`
	Time    string   `json:"timestamp"`
	Tags    []string `json:"tags"`
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Long: `List the recorded runs in catalog order, oldest first. The printed
ordinal (#N) is accepted anywhere a run reference is, as is any tag shown
next to a run.`,
	Run: func(cmd *cobra.Command, args []string) {
		const listLineTemplateString = `#{{.Ordinal}} {{.RunID}} , {{.Time}} , {{.Name}}{{range .Tags}} [{{.}}]{{end}}`
		listLineTemplate := template.Must(template.New("list line").Parse(listLineTemplateString))

		ctx := context.Background()
		stores := paramsToStores()
		catalog, err := stores.catalog(ctx)
		if err != nil {
			wrapFatalln("could not load the run catalog", err)
			return
		}

		ordered := catalog.OrderedRunIDs()
		lines := make([]runLine, 0, len(ordered))
		for i, runID := range ordered {
			line := runLine{Ordinal: i + 1, RunID: runID, Tags: catalog.TagsForRun(runID)}
			if entry, ok := catalog.Entry(runID); ok {
				line.Name = entry.Name
				line.Time = entry.Timestamp
			}
			lines = append(lines, line)
		}
		if provFlags.runs.latest && len(lines) > 0 {
			lines = lines[len(lines)-1:]
		} else if provFlags.runs.limit > 0 && len(lines) > provFlags.runs.limit {
			lines = lines[len(lines)-provFlags.runs.limit:]
		}

		if provFlags.format == "json" {
			if err = printJSON(lines); err != nil {
				wrapFatalln("could not render listing", err)
			}
			return
		}
		for _, line := range lines {
			var buf bytes.Buffer
			if err := listLineTemplate.Execute(&buf, line); err != nil {
				log.Println("executing template:", err)
				continue
			}
			log.Println(buf.String())
		}
	},
}

func init() {
	addLimitFlag(runsCmd)
	addLatestFlag(runsCmd)
	addFormatFlag(runsCmd)
	rootCmd.AddCommand(runsCmd)
}
