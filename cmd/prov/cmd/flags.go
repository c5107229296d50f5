package cmd

import (
	"github.com/spf13/cobra"

	"github.com/salazaj/provenance-recorder/pkg/dlogger"
	"github.com/salazaj/provenance-recorder/pkg/model"
)

type flagsT struct {
	root struct {
		provDir  string
		workDir  string
		logLevel string
	}
	record struct {
		name       string
		inputs     []string
		outputs    []string
		paramsFile string
		gitMode    string
		envMode    string
	}
	runs struct {
		limit  int
		latest bool
	}
	diff struct {
		failOn string
	}
	tag struct {
		force bool
	}
	repair struct {
		dryRun   bool
		noBackup bool
		dropTags bool
	}
	format string
}

var provFlags = flagsT{}

func addProvDirFlag(cmd *cobra.Command) string {
	provDir := "prov-dir"
	cmd.PersistentFlags().StringVar(&provFlags.root.provDir, provDir, model.DefaultProvDir,
		"Directory holding the run catalog and run records")
	return provDir
}

func addLogLevelFlag(cmd *cobra.Command) string {
	loglevel := "loglevel"
	cmd.PersistentFlags().StringVar(&provFlags.root.logLevel, loglevel, dlogger.LogLevelInfo,
		"The logging level (info, debug, none)")
	return loglevel
}

func addWorkDirFlag(cmd *cobra.Command) string {
	workDir := "work-dir"
	cmd.Flags().StringVar(&provFlags.root.workDir, workDir, ".",
		"Directory paths are relativized against and git state is captured from")
	return workDir
}

func addNameFlag(cmd *cobra.Command) string {
	name := "name"
	cmd.Flags().StringVarP(&provFlags.record.name, name, "n", "",
		"A short free-text name for the run")
	return name
}

func addInputsFlag(cmd *cobra.Command) string {
	in := "in"
	cmd.Flags().StringArrayVar(&provFlags.record.inputs, in, nil,
		"An input file to fingerprint, repeatable. Directories are skipped")
	return in
}

func addOutputsFlag(cmd *cobra.Command) string {
	out := "out"
	cmd.Flags().StringArrayVar(&provFlags.record.outputs, out, nil,
		"An output file or directory to fingerprint, repeatable. Directories recurse")
	return out
}

func addParamsFlag(cmd *cobra.Command) string {
	params := "params"
	cmd.Flags().StringVar(&provFlags.record.paramsFile, params, "",
		"The parameters file identifying this run's configuration")
	return params
}

func addGitModeFlag(cmd *cobra.Command) string {
	git := "git"
	cmd.Flags().StringVar(&provFlags.record.gitMode, git, "",
		"Git capture mode: auto, require or off (defaults to the configured mode)")
	return git
}

func addEnvModeFlag(cmd *cobra.Command) string {
	env := "env"
	cmd.Flags().StringVar(&provFlags.record.envMode, env, "",
		"Environment capture mode: minimal or none (defaults to the configured mode)")
	return env
}

func addLimitFlag(cmd *cobra.Command) string {
	limit := "limit"
	cmd.Flags().IntVar(&provFlags.runs.limit, limit, 0,
		"Show at most this many runs, most recent last (0 means all)")
	return limit
}

func addLatestFlag(cmd *cobra.Command) string {
	latest := "latest"
	cmd.Flags().BoolVar(&provFlags.runs.latest, latest, false,
		"Show only the most recent run")
	return latest
}

func addFailOnFlag(cmd *cobra.Command) string {
	failOn := "fail-on"
	cmd.Flags().StringVar(&provFlags.diff.failOn, failOn, "none",
		"Exit non-zero when changes cross this threshold: none, truth or any")
	return failOn
}

func addForceFlag(cmd *cobra.Command) string {
	force := "force"
	cmd.Flags().BoolVar(&provFlags.tag.force, force, false,
		"Reassign the tag if it already exists")
	return force
}

func addDryRunFlag(cmd *cobra.Command) string {
	dryRun := "dry-run"
	cmd.Flags().BoolVar(&provFlags.repair.dryRun, dryRun, false,
		"Report what would be rebuilt without writing anything")
	return dryRun
}

func addNoBackupFlag(cmd *cobra.Command) string {
	noBackup := "no-backup"
	cmd.Flags().BoolVar(&provFlags.repair.noBackup, noBackup, false,
		"Do not keep a backup of the previous index document")
	return noBackup
}

func addDropTagsFlag(cmd *cobra.Command) string {
	dropTags := "drop-tags"
	cmd.Flags().BoolVar(&provFlags.repair.dropTags, dropTags, false,
		"Discard all tags instead of keeping those whose run still exists")
	return dropTags
}

func addFormatFlag(cmd *cobra.Command) string {
	format := "format"
	cmd.Flags().StringVar(&provFlags.format, format, "text",
		"Output format: text or json")
	return format
}
