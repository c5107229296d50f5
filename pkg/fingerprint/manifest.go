package fingerprint

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/salazaj/provenance-recorder/pkg/model"
	"github.com/spf13/afero"
)

// Manifest fingerprints the given paths into a map keyed by repo-relative
// path. Keys are relative to workDir, never absolute.
//
// Directories are walked when recursive is set, and skipped otherwise.
// A missing path is a hard error: recording over stale arguments must not
// silently produce a partial record.
func (m *Maker) Manifest(workDir string, paths []string, recursive bool) (map[string]model.FileFingerprint, error) {
	manifest := make(map[string]model.FileFingerprint)
	for _, pth := range paths {
		fi, err := m.fs.Stat(pth)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("path %q does not exist", pth)
			}
			return nil, err
		}
		if fi.IsDir() {
			if !recursive {
				continue
			}
			err = afero.Walk(m.fs, pth, func(sub string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() {
					return nil
				}
				return m.addToManifest(manifest, workDir, sub, info)
			})
			if err != nil {
				return nil, err
			}
			continue
		}
		if err := m.addToManifest(manifest, workDir, pth, fi); err != nil {
			return nil, err
		}
	}
	return manifest, nil
}

func (m *Maker) addToManifest(manifest map[string]model.FileFingerprint, workDir, pth string, fi os.FileInfo) error {
	digest, err := m.ProcessFile(pth)
	if err != nil {
		return fmt.Errorf("fingerprinting %q: %w", pth, err)
	}
	epoch := fi.ModTime().Unix()
	manifest[m.manifestKey(workDir, pth)] = model.FileFingerprint{
		Bytes:      fi.Size(),
		MtimeEpoch: epoch,
		MtimeUTC:   model.UTCTimestamp(fi.ModTime()),
		Hash:       digest,
	}
	return nil
}

// manifestKey relativizes absolute paths against workDir, unless path
// redaction is disabled. Relative inputs are kept as given.
func (m *Maker) manifestKey(workDir, pth string) string {
	if !filepath.IsAbs(pth) || !m.redactPaths {
		return filepath.ToSlash(pth)
	}
	if rel, err := filepath.Rel(workDir, pth); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(pth)
}
