package cmd

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salazaj/provenance-recorder/pkg/dlogger"
	"github.com/salazaj/provenance-recorder/pkg/model"
)

type exitMocks struct {
	fatalCalls int
	exitCodes  []int
}

func (m *exitMocks) fatalf(format string, v ...interface{}) {
	m.fatalCalls++
}

func (m *exitMocks) fatalln(v ...interface{}) {
	m.fatalCalls++
}

func (m *exitMocks) exit(code int) {
	m.exitCodes = append(m.exitCodes, code)
}

func resetFlags() {
	provFlags = flagsT{}
	provFlags.root.provDir = model.DefaultProvDir
	provFlags.root.workDir = "."
	provFlags.root.logLevel = dlogger.LogLevelNone
	provFlags.diff.failOn = "none"
	provFlags.format = "text"
}

// runCLI drives the root command like a shell invocation would, with the
// fatal seams patched so a failed command does not kill the test process.
func runCLI(t *testing.T, mocks *exitMocks, args ...string) string {
	t.Helper()
	var buf bytes.Buffer

	savedFatalf, savedFatalln, savedExit := logFatalf, logFatalln, osExit
	savedInfo, savedStdOut := infoLogger, logStdOut
	logFatalf = mocks.fatalf
	logFatalln = mocks.fatalln
	osExit = mocks.exit
	infoLogger = log.New(&buf, "", 0)
	logStdOut = func(format string, v ...interface{}) (int, error) {
		return fmt.Fprintf(&buf, format, v...)
	}
	log.SetOutput(&buf)
	defer func() {
		logFatalf, logFatalln, osExit = savedFatalf, savedFatalln, savedExit
		infoLogger, logStdOut = savedInfo, savedStdOut
		log.SetOutput(os.Stderr)
	}()

	resetFlags()
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return buf.String()
}

func setupWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "train.csv"), []byte("1,2,3\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "params.yaml"), []byte("lr: 0.1\n"), 0644))
	return dir
}

func TestCLIInitRecordListTagDiff(t *testing.T) {
	setupWorkspace(t)
	mocks := new(exitMocks)

	out := runCLI(t, mocks, "init", "--loglevel", "none")
	assert.Contains(t, out, "initialized")

	out = runCLI(t, mocks, "record",
		"--name", "first",
		"--in", "data/train.csv",
		"--params", "params.yaml",
		"--git", "off",
		"--loglevel", "none")
	assert.Contains(t, out, "recorded ")

	// run ids carry second precision, keep the catalog order deterministic
	time.Sleep(1100 * time.Millisecond)

	require.NoError(t, os.WriteFile("data/train.csv", []byte("4,5,6\n"), 0644))
	out = runCLI(t, mocks, "record",
		"--name", "second",
		"--in", "data/train.csv",
		"--params", "params.yaml",
		"--git", "off",
		"--loglevel", "none")
	assert.Contains(t, out, "recorded ")
	require.Zero(t, mocks.fatalCalls)

	out = runCLI(t, mocks, "runs", "--loglevel", "none")
	assert.Contains(t, out, "#1 ")
	assert.Contains(t, out, "#2 ")
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")

	out = runCLI(t, mocks, "tag", "baseline", "#1", "--loglevel", "none")
	assert.Contains(t, out, "tagged")
	require.Zero(t, mocks.fatalCalls)

	out = runCLI(t, mocks, "tags", "--loglevel", "none")
	assert.Contains(t, out, "baseline -> ")

	out = runCLI(t, mocks, "show", "baseline", "--loglevel", "none")
	assert.Contains(t, out, "name: first")
	assert.Contains(t, out, "data/train.csv")

	// the changed input crosses the truth threshold
	out = runCLI(t, mocks, "diff", "--fail-on", "truth", "--loglevel", "none")
	assert.Contains(t, out, "~ data/train.csv")
	assert.Contains(t, out, "truth changed: true")
	assert.Equal(t, []int{exitCodeChanged}, mocks.exitCodes)
}

func TestCLIDiffIdenticalRunsExitsZero(t *testing.T) {
	setupWorkspace(t)
	mocks := new(exitMocks)

	runCLI(t, mocks, "init", "--loglevel", "none")
	for _, name := range []string{"first", "second"} {
		runCLI(t, mocks, "record",
			"--name", name,
			"--in", "data/train.csv",
			"--git", "off",
			"--loglevel", "none")
	}

	out := runCLI(t, mocks, "diff", "--fail-on", "any", "--loglevel", "none")
	assert.Contains(t, out, "any changed:   false")
	assert.Empty(t, mocks.exitCodes)
	require.Zero(t, mocks.fatalCalls)
}

func TestCLITagAmbiguityIsFatal(t *testing.T) {
	setupWorkspace(t)
	mocks := new(exitMocks)

	runCLI(t, mocks, "init", "--loglevel", "none")
	runCLI(t, mocks, "record", "--name", "first", "--git", "off", "--loglevel", "none")
	runCLI(t, mocks, "tag", "baseline", "#1", "--loglevel", "none")
	require.Zero(t, mocks.fatalCalls)

	// "candidate" could be a new tag or a run reference
	runCLI(t, mocks, "tag", "baseline", "candidate", "--loglevel", "none")
	assert.Equal(t, 1, mocks.fatalCalls)
}

func TestCLIRepairRebuildsIndex(t *testing.T) {
	setupWorkspace(t)
	mocks := new(exitMocks)

	runCLI(t, mocks, "init", "--loglevel", "none")
	runCLI(t, mocks, "record", "--name", "first", "--in", "data/train.csv", "--git", "off", "--loglevel", "none")
	require.NoError(t, os.WriteFile(filepath.Join(".prov", "index.json"), []byte("{broken"), 0644))

	out := runCLI(t, mocks, "repair-index", "--no-backup", "--loglevel", "none")
	assert.Contains(t, out, "found 1 run(s)")
	require.Zero(t, mocks.fatalCalls)

	out = runCLI(t, mocks, "runs", "--loglevel", "none")
	assert.Contains(t, out, "first")
}

func TestCLIVersion(t *testing.T) {
	mocks := new(exitMocks)

	out := runCLI(t, mocks, "version")
	assert.Contains(t, out, "Version: dev")
	require.Zero(t, mocks.fatalCalls)

	out = runCLI(t, mocks, "version", "--format", "json")
	assert.Contains(t, out, `"version": "dev"`)
}
