package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/salazaj/provenance-recorder/pkg/config"
	"github.com/salazaj/provenance-recorder/pkg/errors"
	"github.com/salazaj/provenance-recorder/pkg/model"
	"github.com/salazaj/provenance-recorder/pkg/storage"
)

// InitResult reports which pieces of scaffolding an init pass created.
type InitResult struct {
	CreatedIndex     bool   `json:"createdIndex" yaml:"createdIndex"`
	CreatedConfig    bool   `json:"createdConfig" yaml:"createdConfig"`
	GitignoreChanged bool   `json:"gitignoreChanged" yaml:"gitignoreChanged"`
	GitignorePath    string `json:"gitignorePath,omitempty" yaml:"gitignorePath,omitempty"`
}

// InitProject scaffolds the prov directory rooted at provDir: the runs
// directory, an empty index document, a default configuration and a
// .gitignore entry in workDir. Everything already present is left alone.
func InitProject(ctx context.Context, fs afero.Fs, store storage.Store, workDir, provDir string) (InitResult, error) {
	var result InitResult
	if provDir == "" {
		provDir = filepath.Join(workDir, model.DefaultProvDir)
	}
	if info, err := fs.Stat(provDir); err == nil && !info.IsDir() {
		return result, errors.New(fmt.Sprintf("%q exists and is not a directory", provDir))
	}
	if err := fs.MkdirAll(filepath.Join(provDir, model.GetArchivePathToRuns()), 0755); err != nil {
		return result, err
	}

	hasIndex, err := store.Has(ctx, model.GetArchivePathToIndex())
	if err != nil {
		return result, err
	}
	if !hasIndex {
		if err = newCatalog(store).Write(ctx); err != nil {
			return result, err
		}
		result.CreatedIndex = true
	}

	hasConfig, err := store.Has(ctx, model.GetArchivePathToConfig())
	if err != nil {
		return result, err
	}
	if !hasConfig {
		payload, erc := config.Default().Serialize()
		if erc != nil {
			return result, erc
		}
		err = store.Put(ctx, model.GetArchivePathToConfig(), strings.NewReader(string(payload)), storage.NoOverWrite)
		if err != nil {
			return result, err
		}
		result.CreatedConfig = true
	}

	result.GitignorePath = filepath.Join(workDir, ".gitignore")
	result.GitignoreChanged, err = ensureGitignoreEntry(fs, result.GitignorePath, model.GitignoreEntry)
	if err != nil {
		return result, err
	}
	return result, nil
}

// ensureGitignoreEntry appends entry to the ignore file at pth unless an
// equivalent line is already present. Reports whether the file changed.
func ensureGitignoreEntry(fs afero.Fs, pth, entry string) (bool, error) {
	existing, err := afero.ReadFile(fs, pth)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}
	trimmed := strings.TrimSuffix(entry, "/")
	for _, line := range strings.Split(string(existing), "\n") {
		line = strings.TrimSpace(line)
		if line == entry || line == trimmed {
			return false, nil
		}
	}
	var b strings.Builder
	b.Write(existing)
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		b.WriteString("\n")
	}
	b.WriteString(entry)
	b.WriteString("\n")
	return true, afero.WriteFile(fs, pth, []byte(b.String()), 0644)
}
