package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var untagCmd = &cobra.Command{
	Use:   "untag <tag>",
	Short: "Remove a tag",
	Long:  "Remove a tag alias. The run it pointed at is untouched.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		stores := paramsToStores()
		catalog, err := stores.catalog(ctx)
		if err != nil {
			wrapFatalln("could not load the run catalog", err)
			return
		}
		if err = catalog.DelTag(args[0]); err != nil {
			wrapFatalln("could not remove tag", err)
			return
		}
		if err = catalog.Write(ctx); err != nil {
			wrapFatalln("could not write the run catalog", err)
			return
		}
		infoLogger.Println("removed tag", args[0])
	},
}

func init() {
	rootCmd.AddCommand(untagCmd)
}
