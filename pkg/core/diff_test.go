package core

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salazaj/provenance-recorder/pkg/model"
)

func fingerprintOf(hash string) model.FileFingerprint {
	return model.FileFingerprint{Bytes: 1, Hash: hash}
}

func baseRun(runID string) *model.RunDescriptor {
	return &model.RunDescriptor{
		RunID:     runID,
		Name:      "train",
		Timestamp: "2026-01-01T00:00:00Z",
		Inputs: map[string]model.FileFingerprint{
			"data/train.csv": fingerprintOf("h1"),
			"data/dev.csv":   fingerprintOf("h2"),
		},
		Outputs: map[string]model.FileFingerprint{
			"model.bin": fingerprintOf("h3"),
		},
		Environment: model.Environment{RuntimeVersion: "go1.21", Platform: "linux/amd64"},
	}
}

func TestDiffIdenticalRuns(t *testing.T) {
	d := Diff(baseRun(runA), baseRun(runB))

	assert.False(t, d.TruthChanged)
	assert.False(t, d.AnyChanged)
	assert.Empty(t, d.Inputs.Added)
	assert.Empty(t, d.Inputs.Removed)
	assert.Empty(t, d.Inputs.Changed)
	assert.Equal(t, []string{"data/dev.csv", "data/train.csv"}, d.Inputs.Unchanged)
	assert.False(t, d.Params.Changed)
	assert.False(t, d.Git.Changed)
	assert.Equal(t, []string{"not recorded (A, B)"}, d.Git.Reasons)
}

func TestDiffInputChangesAreTruth(t *testing.T) {
	a := baseRun(runA)
	b := baseRun(runB)
	b.Inputs["data/new.txt"] = fingerprintOf("h9")
	delete(b.Inputs, "data/dev.csv")
	b.Inputs["data/train.csv"] = fingerprintOf("h1'")

	d := Diff(a, b)
	assert.Equal(t, []string{"data/new.txt"}, d.Inputs.Added)
	assert.Equal(t, []string{"data/dev.csv"}, d.Inputs.Removed)
	assert.Equal(t, []string{"data/train.csv"}, d.Inputs.Changed)
	assert.True(t, d.TruthChanged)
	assert.True(t, d.AnyChanged)

	// added/removed swap when the sides swap
	rd := Diff(b, a)
	assert.Equal(t, d.Inputs.Added, rd.Inputs.Removed)
	assert.Equal(t, d.Inputs.Removed, rd.Inputs.Added)
	assert.Equal(t, d.Inputs.Changed, rd.Inputs.Changed)
}

func TestDiffOutputChangesAreAnyOnly(t *testing.T) {
	a := baseRun(runA)
	b := baseRun(runB)
	b.Outputs["model.bin"] = fingerprintOf("h3'")

	d := Diff(a, b)
	assert.False(t, d.TruthChanged, "outputs do not make re-running necessary")
	assert.True(t, d.AnyChanged)
	assert.Equal(t, []string{"model.bin"}, d.Outputs.Changed)
}

func TestDiffParamsPresence(t *testing.T) {
	a := baseRun(runA)
	b := baseRun(runB)
	b.Params = &model.ParamsFingerprint{Path: "params.yaml", Bytes: 10, Hash: "p1"}

	d := Diff(a, b)
	assert.True(t, d.Params.Changed, "params on one side only is a change")
	assert.Nil(t, d.Params.A)
	require.NotNil(t, d.Params.B)
	assert.Equal(t, "p1", *d.Params.B)
	assert.True(t, d.TruthChanged)

	a.Params = &model.ParamsFingerprint{Path: "params.yaml", Bytes: 10, Hash: "p1"}
	d = Diff(a, b)
	assert.False(t, d.Params.Changed)
	assert.False(t, d.TruthChanged)
}

func TestDiffWarningsOrderSensitive(t *testing.T) {
	a := baseRun(runA)
	b := baseRun(runB)
	a.Warnings = model.Warnings{model.PlainWarning("w1"), model.PlainWarning("w2")}
	b.Warnings = model.Warnings{model.PlainWarning("w2"), model.PlainWarning("w1")}

	d := Diff(a, b)
	assert.True(t, d.Warnings.Changed, "same warnings in a different order still differ")
	assert.False(t, d.TruthChanged)
	assert.True(t, d.AnyChanged)
}

func TestDiffEnvironment(t *testing.T) {
	a := baseRun(runA)
	b := baseRun(runB)
	b.Environment.RuntimeVersion = "go1.22"

	d := Diff(a, b)
	assert.True(t, d.Environment.Changed)
	assert.False(t, d.TruthChanged)
	assert.True(t, d.AnyChanged)
}

func TestDiffGitOneSideMissing(t *testing.T) {
	a := baseRun(runA)
	b := baseRun(runB)
	b.Git = &model.GitState{IsRepo: true, Commit: "abc1234", Branch: "main"}

	d := Diff(a, b)
	assert.False(t, d.Git.Changed, "a missing snapshot must not manufacture a diff")
	assert.Equal(t, []string{"not recorded (A)"}, d.Git.Reasons)
	assert.False(t, d.AnyChanged)
}

func TestDiffGitFieldReasons(t *testing.T) {
	a := baseRun(runA)
	b := baseRun(runB)
	a.Git = &model.GitState{IsRepo: true, Commit: "abc1234", Branch: "main"}
	b.Git = &model.GitState{IsRepo: true, Commit: "def5678", Branch: "main", Dirty: true}

	d := Diff(a, b)
	assert.True(t, d.Git.Changed)
	assert.Equal(t, []string{"commit changed", "dirty changed"}, d.Git.Reasons)
	assert.False(t, d.TruthChanged)
	assert.True(t, d.AnyChanged)

	b.Git = &model.GitState{IsRepo: false}
	d = Diff(a, b)
	assert.True(t, d.Git.Changed)
	assert.Equal(t, []string{"repo status changed"}, d.Git.Reasons)
}

func TestDiffGitRepoStatusFlip(t *testing.T) {
	// a run recorded outside a repository still carries {"is_repo": false},
	// so moving the project into git later shows up as a change
	a := baseRun(runA)
	b := baseRun(runB)
	a.Git = &model.GitState{IsRepo: false}
	b.Git = &model.GitState{IsRepo: true, Commit: "abc1234", Branch: "main"}

	d := Diff(a, b)
	assert.True(t, d.Git.Changed)
	assert.Equal(t, []string{"repo status changed"}, d.Git.Reasons)
	assert.False(t, d.TruthChanged)
	assert.True(t, d.AnyChanged)
}

func TestDiffRunsEndToEnd(t *testing.T) {
	fs, store := testStore(t)
	ctx := context.Background()

	c, err := LoadCatalog(ctx, store)
	require.NoError(t, err)

	for i, runID := range []string{runA, runB} {
		run := baseRun(runID)
		if i == 1 {
			run.Inputs["new.txt"] = fingerprintOf("h9")
		}
		require.NoError(t, writeRunArchive(ctx, store, run))
		ts, _ := model.TimestampFromRunID(runID)
		c.AppendEntry(model.IndexEntry{RunID: runID, Name: run.Name, Timestamp: ts})
	}
	require.NoError(t, c.SetTag("baseline", runA, false))
	require.NoError(t, c.Write(ctx))

	d, err := DiffRuns(ctx, fs, store, c, runA, runB)
	require.NoError(t, err)
	assert.Equal(t, []string{"new.txt"}, d.Inputs.Added)
	assert.True(t, d.TruthChanged)
	assert.True(t, d.AnyChanged)
	assert.Equal(t, []string{"baseline"}, d.A.Tags)
	assert.Empty(t, d.B.Tags)
}

func TestDiffRunsMissingRun(t *testing.T) {
	fs, store := testStore(t)
	ctx := context.Background()
	c, err := LoadCatalog(ctx, store)
	require.NoError(t, err)

	_, err = DiffRuns(ctx, fs, store, c, "no-such-run", runB)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no-such-run"))
}

func TestFailOnPolicy(t *testing.T) {
	assert.True(t, FailOnTruth.Valid())
	assert.False(t, FailOn("sometimes").Valid())

	truthOnly := RunDiff{TruthChanged: true, AnyChanged: true}
	anyOnly := RunDiff{AnyChanged: true}

	assert.False(t, FailOnNone.Triggered(truthOnly))
	assert.True(t, FailOnTruth.Triggered(truthOnly))
	assert.False(t, FailOnTruth.Triggered(anyOnly))
	assert.True(t, FailOnAny.Triggered(anyOnly))
}

// DiffRuns accepts a filesystem path for a side, reading the run record
// straight from disk.
func TestDiffRunsFromPath(t *testing.T) {
	fs, store := testStore(t)
	ctx := context.Background()
	c, err := LoadCatalog(ctx, store)
	require.NoError(t, err)

	run := baseRun(runA)
	require.NoError(t, writeRunArchive(ctx, store, run))

	payload, err := catalogJSON.Marshal(baseRun("copied-run"))
	require.NoError(t, err)
	require.NoError(t, fs.MkdirAll("exported", 0755))
	require.NoError(t, afero.WriteFile(fs, "exported/run.json", payload, 0644))

	d, err := DiffRuns(ctx, fs, store, c, runA, "exported/run.json")
	require.NoError(t, err)
	assert.False(t, d.AnyChanged)
	assert.Equal(t, "copied-run", d.B.RunID)
}
