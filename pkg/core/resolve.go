package core

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/salazaj/provenance-recorder/pkg/core/status"
)

// isOrdinalRef reports whether x is an ordinal reference: bare digits, or
// # followed by digits.
func isOrdinalRef(x string) bool {
	_, ok := parseOrdinalRef(x)
	return ok
}

func parseOrdinalRef(x string) (int, bool) {
	x = strings.TrimSpace(x)
	x = strings.TrimPrefix(x, "#")
	if x == "" {
		return 0, false
	}
	for _, r := range x {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(x)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ResolveRef turns one user token into a run identity or an existing path.
//
// Grammars are tried in strict precedence: an existing filesystem path wins
// over everything and is returned verbatim; then an exact tag match; then an
// ordinal (#N or bare N, 1-based, oldest=1); anything else is assumed to be
// a raw run id, validated only when the record is actually loaded.
func ResolveRef(fs afero.Fs, catalog *Catalog, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref != "" {
		if exists, _ := afero.Exists(fs, ref); exists {
			return ref, nil
		}
	}
	if runID, ok := catalog.RunIDForTag(ref); ok {
		return runID, nil
	}
	if n, ok := parseOrdinalRef(ref); ok {
		return catalog.ResolveOrdinal(n)
	}
	return ref, nil
}

// RunIDFromPath recovers a run identity from a path that may point several
// levels inside a run's storage tree. Parents are walked upward until the
// immediate parent is the runs root, in which case that ancestor's name is
// the run id. A path never under the runs root falls back to the nearest
// existing ancestor directory (or the path's own parent if it is a file):
// unusual paths resolve permissively here and fail later, at load time.
func RunIDFromPath(fs afero.Fs, runsRoot, pth string) string {
	pth = filepath.Clean(pth)
	runsRoot = filepath.Clean(runsRoot)

	for cur := pth; ; {
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		if parent == runsRoot {
			return filepath.Base(cur)
		}
		cur = parent
	}

	if fi, err := fs.Stat(pth); err == nil && !fi.IsDir() {
		return filepath.Base(filepath.Dir(pth))
	}
	for cur := pth; ; {
		if fi, err := fs.Stat(cur); err == nil && fi.IsDir() {
			return filepath.Base(cur)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return filepath.Base(pth)
}

// ResolveRefToRunID resolves a token all the way down to a run id, mapping
// path-shaped resolutions through RunIDFromPath.
func ResolveRefToRunID(fs afero.Fs, catalog *Catalog, runsRoot, ref string) (string, error) {
	resolved, err := ResolveRef(fs, catalog, ref)
	if err != nil {
		return "", err
	}
	if exists, _ := afero.Exists(fs, resolved); exists {
		return RunIDFromPath(fs, runsRoot, resolved), nil
	}
	return resolved, nil
}

// ResolveRunPair resolves the intended (A, B) run references for a
// two-sided comparison, given zero, one or two user tokens (empty string
// meaning absent).
//
// With no tokens the two most recent runs are compared. With one token X,
// X is compared against the latest run - unless X itself resolves to the
// latest, in which case the second most recent substitutes for the left
// side so a self-diff never silently occurs. With two tokens each side is
// resolved independently and order is preserved.
func ResolveRunPair(fs afero.Fs, catalog *Catalog, runsRoot, refA, refB string) (string, string, error) {
	refA = strings.TrimSpace(refA)
	refB = strings.TrimSpace(refB)
	if refA == "" && refB != "" {
		refA, refB = refB, ""
	}

	ordered := catalog.OrderedRunIDs()

	switch {
	case refA == "" && refB == "":
		if len(ordered) < 2 {
			return "", "", status.ErrNotEnoughRuns.WrapMessage("run `prov record` first")
		}
		return ordered[len(ordered)-2], ordered[len(ordered)-1], nil

	case refB == "":
		if len(ordered) < 2 {
			return "", "", status.ErrNotEnoughRuns.WrapMessage("run `prov record` first")
		}
		latest := ordered[len(ordered)-1]
		prev := ordered[len(ordered)-2]
		resolved, err := ResolveRef(fs, catalog, refA)
		if err != nil {
			return "", "", err
		}
		runID := resolved
		if exists, _ := afero.Exists(fs, resolved); exists {
			runID = RunIDFromPath(fs, runsRoot, resolved)
		}
		if runID == latest {
			return prev, latest, nil
		}
		return resolved, latest, nil

	default:
		a, err := ResolveRef(fs, catalog, refA)
		if err != nil {
			return "", "", err
		}
		b, err := ResolveRef(fs, catalog, refB)
		if err != nil {
			return "", "", err
		}
		return a, b, nil
	}
}
