package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Stamped at build time via -ldflags -X.
var (
	Version   string
	BuildDate string
	GitCommit string
)

type VersionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"buildDate,omitempty"`
	GitCommit string `json:"gitCommit,omitempty"`
}

func NewVersionInfo() VersionInfo {
	ver := VersionInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
	}
	if ver.Version == "" {
		ver.Version = "dev"
	}
	return ver
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("Version: %s\nBuild date: %s\nCommit: %s\n",
		v.Version, v.BuildDate, v.GitCommit)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "prints the version of prov",
	Long: `Prints the version of prov. It includes the following components:
	* Semver (output of git describe --tags)
	* Build Date (date at which the binary was built)
	* Git Commit (the git commit hash this binary was built from)
`,
	Run: func(cmd *cobra.Command, args []string) {
		if provFlags.format == "json" {
			if err := printJSON(NewVersionInfo()); err != nil {
				wrapFatalln("marshal version info", err)
			}
			return
		}
		_, _ = logStdOut(NewVersionInfo().String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	addFormatFlag(versionCmd)
}
