package core

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salazaj/provenance-recorder/pkg/config"
	"github.com/salazaj/provenance-recorder/pkg/model"
	"github.com/salazaj/provenance-recorder/pkg/storage"
	"github.com/salazaj/provenance-recorder/pkg/storage/localfs"
)

func TestInitProjectScaffoldsEverything(t *testing.T) {
	fs, store := testStore(t)
	ctx := context.Background()

	result, err := InitProject(ctx, fs, store, ".", model.DefaultProvDir)
	require.NoError(t, err)
	assert.True(t, result.CreatedIndex)
	assert.True(t, result.CreatedConfig)
	assert.True(t, result.GitignoreChanged)

	exists, err := afero.DirExists(fs, ".prov/runs")
	require.NoError(t, err)
	assert.True(t, exists)

	c, err := LoadCatalog(ctx, store)
	require.NoError(t, err)
	assert.Empty(t, c.OrderedRunIDs())

	doc, err := storage.ReadDocument(ctx, store, model.GetArchivePathToConfig())
	require.NoError(t, err)
	cfg, err := config.Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	ignore, err := afero.ReadFile(fs, ".gitignore")
	require.NoError(t, err)
	assert.Contains(t, string(ignore), model.GitignoreEntry)
}

func TestInitProjectIsIdempotent(t *testing.T) {
	fs, store := testStore(t)
	ctx := context.Background()

	_, err := InitProject(ctx, fs, store, ".", model.DefaultProvDir)
	require.NoError(t, err)

	result, err := InitProject(ctx, fs, store, ".", model.DefaultProvDir)
	require.NoError(t, err)
	assert.False(t, result.CreatedIndex)
	assert.False(t, result.CreatedConfig)
	assert.False(t, result.GitignoreChanged)

	ignore, err := afero.ReadFile(fs, ".gitignore")
	require.NoError(t, err)
	assert.Equal(t, model.GitignoreEntry+"\n", string(ignore))
}

func TestInitProjectKeepsExistingState(t *testing.T) {
	fs, store := testStore(t)
	ctx := context.Background()

	putIndex(t, store, `{"version": 1, "runs": [{"run_id": "`+runA+`", "timestamp": "2026-01-01T00:00:00Z"}], "tags": {}}`)
	require.NoError(t, afero.WriteFile(fs, ".gitignore", []byte("*.log\n.prov/\n"), 0644))

	result, err := InitProject(ctx, fs, store, ".", model.DefaultProvDir)
	require.NoError(t, err)
	assert.False(t, result.CreatedIndex)
	assert.False(t, result.GitignoreChanged)

	c, err := LoadCatalog(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, []string{runA}, c.OrderedRunIDs(), "existing runs survive init")
}

func TestInitProjectRefusesFileInTheWay(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ".prov", []byte("not a directory"), 0644))
	store := localfs.New(fs, ".prov")

	_, err := InitProject(context.Background(), fs, store, ".", ".prov")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}
