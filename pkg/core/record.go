package core

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/salazaj/provenance-recorder/pkg/config"
	"github.com/salazaj/provenance-recorder/pkg/errors"
	"github.com/salazaj/provenance-recorder/pkg/fingerprint"
	"github.com/salazaj/provenance-recorder/pkg/gitinfo"
	"github.com/salazaj/provenance-recorder/pkg/model"
	"github.com/salazaj/provenance-recorder/pkg/storage"
)

// StatusRecordedOnly marks a run that was fingerprinted after the fact,
// without command execution being observed.
const StatusRecordedOnly = "recorded_only"

// Record fingerprints the given inputs, outputs and params, captures git and
// environment state, writes the run archive under the store and appends the
// run to the catalog. It returns the written descriptor.
func Record(ctx context.Context, fs afero.Fs, store storage.Store, catalog *Catalog, opts ...RecordOption) (*model.RunDescriptor, error) {
	s := defaultRecordSettings()
	for _, apply := range opts {
		apply(&s)
	}
	if strings.TrimSpace(s.name) == "" {
		return nil, errors.New("a run name is required")
	}
	if s.maker == nil {
		s.maker = fingerprint.New(fingerprint.FS(fs))
	}

	now := s.clock()
	runID := model.NewRunIDAt(now)
	run := model.RunDescriptor{
		RunID:     runID,
		Name:      s.name,
		Timestamp: model.UTCTimestamp(now),
		Status:    StatusRecordedOnly,
	}

	inputs, err := s.maker.Manifest(s.workDir, s.inputs, false)
	if err != nil {
		return nil, err
	}
	run.Inputs = inputs
	outputs, err := s.maker.Manifest(s.workDir, s.outputs, true)
	if err != nil {
		return nil, err
	}
	run.Outputs = outputs

	if s.paramsFile != "" {
		params, erp := fingerprintParams(fs, s.maker, s.paramsFile)
		if erp != nil {
			return nil, erp
		}
		run.Params = params
	}

	if s.envMode != config.EnvNone {
		run.Environment = model.CaptureEnvironment()
	}

	if s.gitMode != config.GitOff {
		g := gitinfo.Capture(ctx, s.workDir)
		if !g.IsRepo {
			if s.gitMode == config.GitRequire {
				return nil, errors.New("not inside a git repository (git mode is 'require')")
			}
			run.Warnings = append(run.Warnings,
				model.CodedWarning("GIT_NOT_A_REPO", "not inside a git repository"))
		} else {
			if g.Detached {
				run.Warnings = append(run.Warnings,
					model.CodedWarning("GIT_DETACHED_HEAD", "HEAD is detached, branch not recorded"))
			}
			if g.Dirty {
				run.Warnings = append(run.Warnings,
					model.CodedWarning("GIT_DIRTY", "working tree has uncommitted changes"))
			}
			if g.Untracked > 0 {
				run.Warnings = append(run.Warnings,
					model.CodedWarning("GIT_UNTRACKED", fmt.Sprintf("%d untracked file(s) present", g.Untracked)))
			}
		}
		// written even outside a repository, as {"is_repo": false}
		run.Git = &g
	}

	if err = writeRunArchive(ctx, store, &run); err != nil {
		return nil, err
	}

	catalog.AppendEntry(model.IndexEntry{
		RunID:     runID,
		Name:      run.Name,
		Timestamp: run.Timestamp,
		Path:      filepath.ToSlash(filepath.Join(s.provDir, runsDirectory, runID)),
	})
	if err = catalog.Write(ctx); err != nil {
		return nil, err
	}
	s.l.Info("recorded run",
		zap.String("run_id", runID),
		zap.String("name", run.Name),
		zap.Int("inputs", len(run.Inputs)),
		zap.Int("outputs", len(run.Outputs)),
	)
	return &run, nil
}

const runsDirectory = "runs"

func fingerprintParams(fs afero.Fs, maker *fingerprint.Maker, pth string) (*model.ParamsFingerprint, error) {
	info, err := fs.Stat(pth)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("params file %q does not exist", pth)).Wrap(err)
	}
	if info.IsDir() {
		return nil, errors.New(fmt.Sprintf("params file %q is a directory", pth))
	}
	hash, err := maker.ProcessFile(pth)
	if err != nil {
		return nil, err
	}
	return &model.ParamsFingerprint{
		Path:  filepath.ToSlash(pth),
		Bytes: info.Size(),
		Hash:  hash,
	}, nil
}

func writeRunArchive(ctx context.Context, store storage.Store, run *model.RunDescriptor) error {
	payload, err := catalogJSON.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	payload = append(payload, '\n')
	err = store.Put(ctx, model.GetArchivePathToRunDescriptor(run.RunID), bytes.NewReader(payload), storage.NoOverWrite)
	if err != nil {
		return err
	}
	if err = putManifest(ctx, store, model.GetArchivePathToInputsIndex(run.RunID), run.Inputs); err != nil {
		return err
	}
	if err = putManifest(ctx, store, model.GetArchivePathToOutputsIndex(run.RunID), run.Outputs); err != nil {
		return err
	}
	summary := runSummary(run)
	return store.Put(ctx, model.GetArchivePathToRunSummary(run.RunID), strings.NewReader(summary), storage.OverWrite)
}

func putManifest(ctx context.Context, store storage.Store, key string, manifest map[string]model.FileFingerprint) error {
	if manifest == nil {
		manifest = map[string]model.FileFingerprint{}
	}
	payload, err := catalogJSON.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	payload = append(payload, '\n')
	return store.Put(ctx, key, bytes.NewReader(payload), storage.OverWrite)
}

func runSummary(run *model.RunDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Run %s\n\n", run.RunID)
	fmt.Fprintf(&b, "- name: %s\n", run.Name)
	fmt.Fprintf(&b, "- timestamp: %s\n", run.Timestamp)
	fmt.Fprintf(&b, "- status: %s\n", run.Status)
	fmt.Fprintf(&b, "- inputs: %d file(s)\n", len(run.Inputs))
	fmt.Fprintf(&b, "- outputs: %d file(s)\n", len(run.Outputs))
	if run.Params != nil {
		fmt.Fprintf(&b, "- params: %s\n", run.Params.Path)
	} else {
		b.WriteString("- params: (none)\n")
	}
	if run.Git != nil && run.Git.IsRepo {
		fmt.Fprintf(&b, "- git: %s on %s\n", run.Git.Commit, run.Git.Branch)
	} else {
		b.WriteString("- git: not recorded\n")
	}
	if len(run.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, msg := range run.Warnings.Messages() {
			fmt.Fprintf(&b, "- %s\n", msg)
		}
	}
	return b.String()
}
