package core

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/salazaj/provenance-recorder/pkg/core/status"
	"github.com/salazaj/provenance-recorder/pkg/errors"
	"github.com/salazaj/provenance-recorder/pkg/model"
	"github.com/salazaj/provenance-recorder/pkg/storage"
)

// LoadRun materializes a run record. The reference is either a run id,
// looked up in the store, or a filesystem path to a run directory (or to a
// file inside one), read directly.
//
// A run that does not exist is always a hard error, never silently
// skipped.
func LoadRun(ctx context.Context, fs afero.Fs, store storage.Store, ref string) (*model.RunDescriptor, error) {
	if exists, _ := afero.Exists(fs, ref); exists {
		return loadRunFromPath(fs, ref)
	}

	doc, err := storage.ReadDocument(ctx, store, model.GetArchivePathToRunDescriptor(ref))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, status.ErrNotFound.WrapMessage("could not find %s for run '%s'", model.RunDescriptorFileName(), ref)
		}
		return nil, err
	}
	return decodeRun(doc, ref)
}

func loadRunFromPath(fs afero.Fs, pth string) (*model.RunDescriptor, error) {
	dir := pth
	if fi, err := fs.Stat(pth); err == nil && !fi.IsDir() {
		dir = filepath.Dir(pth)
	}
	runJSON := filepath.Join(dir, model.RunDescriptorFileName())
	if exists, _ := afero.Exists(fs, runJSON); !exists {
		return nil, status.ErrNotFound.WrapMessage("could not find %s at %s", model.RunDescriptorFileName(), runJSON)
	}
	doc, err := afero.ReadFile(fs, runJSON)
	if err != nil {
		return nil, err
	}
	return decodeRun(doc, filepath.Base(dir))
}

func decodeRun(doc []byte, fallbackID string) (*model.RunDescriptor, error) {
	var run model.RunDescriptor
	if err := catalogJSON.Unmarshal(doc, &run); err != nil {
		return nil, status.ErrCorruptRun.WrapMessage("%v", err)
	}
	if run.RunID == "" {
		run.RunID = fallbackID
	}
	return &run, nil
}
