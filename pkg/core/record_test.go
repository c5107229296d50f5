package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salazaj/provenance-recorder/pkg/config"
	"github.com/salazaj/provenance-recorder/pkg/model"
	"github.com/salazaj/provenance-recorder/pkg/storage"
)

func seedWorkspace(t testing.TB, fs afero.Fs) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, "data/train.csv", []byte("1,2,3\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "data/dev.csv", []byte("4,5,6\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "out/model.bin", []byte("weights"), 0644))
	require.NoError(t, afero.WriteFile(fs, "out/metrics/scores.json", []byte("{}"), 0644))
	require.NoError(t, afero.WriteFile(fs, "params.yaml", []byte("lr: 0.1\n"), 0644))
}

func TestRecordWritesArchiveAndIndex(t *testing.T) {
	fs, store := testStore(t)
	seedWorkspace(t, fs)
	ctx := context.Background()
	c, err := LoadCatalog(ctx, store)
	require.NoError(t, err)
	at := mustTime(t, "2026-02-01T10:00:00Z")

	run, err := Record(ctx, fs, store, c,
		RecordName("train"),
		RecordInputs("data/train.csv", "data/dev.csv"),
		RecordOutputs("out"),
		RecordParamsFile("params.yaml"),
		RecordGitMode(config.GitOff),
		RecordClock(func() time.Time { return at }),
	)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(run.RunID, "2026-02-01T10-00-00Z_"))
	assert.True(t, model.IsRunID(run.RunID))
	assert.Equal(t, "train", run.Name)
	assert.Equal(t, "2026-02-01T10:00:00Z", run.Timestamp)
	assert.Equal(t, StatusRecordedOnly, run.Status)

	require.Len(t, run.Inputs, 2)
	assert.Contains(t, run.Inputs, "data/train.csv")
	assert.NotEmpty(t, run.Inputs["data/train.csv"].Hash)
	require.Len(t, run.Outputs, 2)
	assert.Contains(t, run.Outputs, "out/model.bin")
	assert.Contains(t, run.Outputs, "out/metrics/scores.json")

	require.NotNil(t, run.Params)
	assert.Equal(t, "params.yaml", run.Params.Path)
	assert.EqualValues(t, 8, run.Params.Bytes)
	assert.NotEmpty(t, run.Params.Hash)

	assert.NotEmpty(t, run.Environment.RuntimeVersion)
	assert.Nil(t, run.Git, "git off leaves no snapshot")
	assert.Empty(t, run.Warnings)

	for _, key := range []string{
		model.GetArchivePathToRunDescriptor(run.RunID),
		model.GetArchivePathToInputsIndex(run.RunID),
		model.GetArchivePathToOutputsIndex(run.RunID),
		model.GetArchivePathToRunSummary(run.RunID),
	} {
		has, ere := store.Has(ctx, key)
		require.NoError(t, ere)
		assert.True(t, has, "missing %s", key)
	}

	reloaded, err := LoadCatalog(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, []string{run.RunID}, reloaded.OrderedRunIDs())
	entry, ok := reloaded.Entry(run.RunID)
	require.True(t, ok)
	assert.Equal(t, ".prov/runs/"+run.RunID, entry.Path)

	loaded, err := LoadRun(ctx, fs, store, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.Inputs, loaded.Inputs)
}

func TestRecordRequiresName(t *testing.T) {
	fs, store := testStore(t)
	ctx := context.Background()
	c, err := LoadCatalog(ctx, store)
	require.NoError(t, err)

	_, err = Record(ctx, fs, store, c, RecordName("  "), RecordGitMode(config.GitOff))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestRecordMissingInputFails(t *testing.T) {
	fs, store := testStore(t)
	ctx := context.Background()
	c, err := LoadCatalog(ctx, store)
	require.NoError(t, err)

	_, err = Record(ctx, fs, store, c,
		RecordName("train"),
		RecordInputs("data/gone.csv"),
		RecordGitMode(config.GitOff),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data/gone.csv")

	reloaded, err := LoadCatalog(ctx, store)
	require.NoError(t, err)
	assert.Empty(t, reloaded.OrderedRunIDs(), "a failed recording leaves no index entry")
}

func TestRecordMissingParamsFails(t *testing.T) {
	fs, store := testStore(t)
	ctx := context.Background()
	c, err := LoadCatalog(ctx, store)
	require.NoError(t, err)

	_, err = Record(ctx, fs, store, c,
		RecordName("train"),
		RecordParamsFile("params.yaml"),
		RecordGitMode(config.GitOff),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "params.yaml")
}

func TestRecordOutsideGitRepoWarns(t *testing.T) {
	fs, store := testStore(t)
	ctx := context.Background()
	c, err := LoadCatalog(ctx, store)
	require.NoError(t, err)

	run, err := Record(ctx, fs, store, c,
		RecordName("train"),
		RecordWorkDir(t.TempDir()),
		RecordGitMode(config.GitAuto),
	)
	require.NoError(t, err)
	require.NotNil(t, run.Git)
	assert.False(t, run.Git.IsRepo)
	require.Len(t, run.Warnings, 1)
	assert.Equal(t, "GIT_NOT_A_REPO", run.Warnings[0].Code)

	loaded, err := LoadRun(ctx, fs, store, run.RunID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Git)
	assert.False(t, loaded.Git.IsRepo)
}

func TestRecordGitRequireFailsOutsideRepo(t *testing.T) {
	fs, store := testStore(t)
	ctx := context.Background()
	c, err := LoadCatalog(ctx, store)
	require.NoError(t, err)

	_, err = Record(ctx, fs, store, c,
		RecordName("train"),
		RecordWorkDir(t.TempDir()),
		RecordGitMode(config.GitRequire),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git")
}

func TestRecordEnvModeNone(t *testing.T) {
	fs, store := testStore(t)
	ctx := context.Background()
	c, err := LoadCatalog(ctx, store)
	require.NoError(t, err)

	run, err := Record(ctx, fs, store, c,
		RecordName("train"),
		RecordGitMode(config.GitOff),
		RecordEnvMode(config.EnvNone),
	)
	require.NoError(t, err)
	assert.Equal(t, model.Environment{}, run.Environment)
}

func TestRecordRunIDCollision(t *testing.T) {
	fs, store := testStore(t)
	ctx := context.Background()
	c, err := LoadCatalog(ctx, store)
	require.NoError(t, err)
	at := mustTime(t, "2026-02-01T10:00:00Z")

	run, err := Record(ctx, fs, store, c,
		RecordName("train"),
		RecordGitMode(config.GitOff),
		RecordClock(func() time.Time { return at }),
	)
	require.NoError(t, err)

	// colliding descriptor writes are refused by the store
	err = store.Put(ctx, model.GetArchivePathToRunDescriptor(run.RunID),
		strings.NewReader("{}"), storage.NoOverWrite)
	require.Error(t, err)
}
