package cmd

import (
	"context"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/salazaj/provenance-recorder/pkg/core"
	"github.com/salazaj/provenance-recorder/pkg/dlogger"
	"github.com/salazaj/provenance-recorder/pkg/fingerprint"
	"github.com/salazaj/provenance-recorder/pkg/model"
	"github.com/salazaj/provenance-recorder/pkg/storage"
	"github.com/salazaj/provenance-recorder/pkg/storage/localfs"
)

var outputJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// cmdStores bundles everything a subcommand needs to operate on the local
// prov directory.
type cmdStores struct {
	fs      afero.Fs
	archive storage.Store
	l       *zap.Logger
}

func paramsToStores() cmdStores {
	return cmdStores{
		fs:      afero.NewOsFs(),
		archive: localfs.New(afero.NewOsFs(), provFlags.root.provDir),
		l:       dlogger.MustGetLogger(provFlags.root.logLevel),
	}
}

func (s cmdStores) catalog(ctx context.Context) (*core.Catalog, error) {
	return core.LoadCatalog(ctx, s.archive, core.CatalogLogger(s.l))
}

func (s cmdStores) runsRoot() string {
	return filepath.Join(provFlags.root.provDir, model.GetArchivePathToRuns())
}

func (s cmdStores) maker() *fingerprint.Maker {
	return fingerprint.New(
		fingerprint.FS(s.fs),
		fingerprint.Method(cliConfig.HashMethod),
		fingerprint.RedactPaths(cliConfig.RedactPaths),
	)
}

// effective modes: the flag wins over the configured value
func effectiveGitMode() string {
	if provFlags.record.gitMode != "" {
		return provFlags.record.gitMode
	}
	return cliConfig.Git
}

func effectiveEnvMode() string {
	if provFlags.record.envMode != "" {
		return provFlags.record.envMode
	}
	return cliConfig.StoreEnv
}

func printJSON(v interface{}) error {
	doc, err := outputJSON.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = logStdOut("%s\n", string(doc))
	return err
}
