package model

import (
	"fmt"
)

const (
	// DefaultProvDir is the directory holding all provenance artifacts.
	DefaultProvDir = ".prov"

	// GitignoreEntry is the ignore line added for the prov directory.
	GitignoreEntry = ".prov/"

	runsDirName       = "runs"
	indexFileName     = "index.json"
	configFileName    = "config.yaml"
	runDescriptorFile = "run.json"
	inputsIndexFile   = "inputs.json"
	outputsIndexFile  = "outputs.json"
	runSummaryFile    = "RUN.md"
)

// Archive paths are keys relative to the prov directory, resolved by the
// storage layer.

// GetArchivePathToIndex yields the path to the catalog document.
func GetArchivePathToIndex() string {
	return indexFileName
}

// GetArchivePathToConfig yields the path to the recorder configuration.
func GetArchivePathToConfig() string {
	return configFileName
}

// GetArchivePathToRuns yields the runs root directory.
func GetArchivePathToRuns() string {
	return runsDirName
}

// GetArchivePathToRun yields the directory holding one run's artifacts.
func GetArchivePathToRun(runID string) string {
	return fmt.Sprint(runsDirName, "/", runID)
}

// GetArchivePathToRunDescriptor yields the path to a run's record document.
func GetArchivePathToRunDescriptor(runID string) string {
	return fmt.Sprint(GetArchivePathToRun(runID), "/", runDescriptorFile)
}

// GetArchivePathToInputsIndex yields the path to a run's inputs manifest.
func GetArchivePathToInputsIndex(runID string) string {
	return fmt.Sprint(GetArchivePathToRun(runID), "/", inputsIndexFile)
}

// GetArchivePathToOutputsIndex yields the path to a run's outputs manifest.
func GetArchivePathToOutputsIndex(runID string) string {
	return fmt.Sprint(GetArchivePathToRun(runID), "/", outputsIndexFile)
}

// GetArchivePathToRunSummary yields the path to a run's human readable summary.
func GetArchivePathToRunSummary(runID string) string {
	return fmt.Sprint(GetArchivePathToRun(runID), "/", runSummaryFile)
}

// RunDescriptorFileName is the file name holding a run record inside its
// run directory, for callers addressing run records by filesystem path.
func RunDescriptorFileName() string {
	return runDescriptorFile
}
