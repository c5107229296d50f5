package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte("hash_method: sha256\ngit: \"off\"\n"))
	require.NoError(t, err)
	assert.Equal(t, HashSHA256, cfg.HashMethod)
	assert.Equal(t, GitOff, cfg.Git)
	assert.True(t, cfg.RedactPaths)
	assert.Equal(t, EnvMinimal, cfg.StoreEnv)
}

func TestSerializeRoundtrip(t *testing.T) {
	doc, err := Default().Serialize()
	require.NoError(t, err)
	cfg, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("{:::"))
	assert.Error(t, err)
}
