package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/afero"

	"github.com/salazaj/provenance-recorder/pkg/model"
	"github.com/salazaj/provenance-recorder/pkg/storage"
)

// PathDiff is the comparison of two path->hash mappings: four sorted,
// disjoint path lists.
type PathDiff struct {
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Changed   []string `json:"changed"`
	Unchanged []string `json:"unchanged"`
}

// HasChanges reports whether any path was added, removed or changed.
func (d PathDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Changed) > 0
}

// ParamsDiff compares the optional params fingerprints of two runs.
// Presence on one side only counts as a change.
type ParamsDiff struct {
	A       *string `json:"a"`
	B       *string `json:"b"`
	Changed bool    `json:"changed"`
}

// EnvDiff compares the environment snapshots of two runs.
type EnvDiff struct {
	A       model.Environment `json:"a"`
	B       model.Environment `json:"b"`
	Changed bool              `json:"changed"`
}

// WarningsDiff compares the normalized, ordered warning messages of two
// runs. The comparison is order-sensitive.
type WarningsDiff struct {
	A       []string `json:"a"`
	B       []string `json:"b"`
	Changed bool     `json:"changed"`
}

// GitFingerprint is one side's version-control state reduced to the fields
// the diff engine compares. Recorded distinguishes "no git snapshot taken"
// from "snapshot taken, not a repo".
type GitFingerprint struct {
	Recorded  bool   `json:"recorded"`
	IsRepo    bool   `json:"is_repo"`
	Commit    string `json:"commit,omitempty"`
	Branch    string `json:"branch,omitempty"`
	Detached  bool   `json:"detached,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
	Untracked int    `json:"untracked,omitempty"`
}

// GitDiff compares the version-control snapshots of two runs, with
// human-readable reasons for whatever differs.
type GitDiff struct {
	A       GitFingerprint `json:"a"`
	B       GitFingerprint `json:"b"`
	Changed bool           `json:"changed"`
	Reasons []string       `json:"reasons"`
}

// RunRef identifies one side of a comparison for presentation.
type RunRef struct {
	RunID string   `json:"run_id"`
	Name  string   `json:"name"`
	Tags  []string `json:"tags"`
}

// RunDiff is the full structured comparison of two run records.
//
// TruthChanged covers the facts that determine whether re-running is
// necessary: inputs and params. AnyChanged additionally covers outputs,
// environment, warnings and git state. The two tiers let a caller gate
// strictly on truth while still reporting the rest.
type RunDiff struct {
	A RunRef `json:"a"`
	B RunRef `json:"b"`

	Inputs      PathDiff     `json:"inputs"`
	Outputs     PathDiff     `json:"outputs"`
	Params      ParamsDiff   `json:"params"`
	Environment EnvDiff      `json:"environment"`
	Warnings    WarningsDiff `json:"warnings"`
	Git         GitDiff      `json:"git"`

	TruthChanged bool `json:"truth_changed"`
	AnyChanged   bool `json:"any_changed"`
}

// Diff compares two loaded run records.
func Diff(a, b *model.RunDescriptor) RunDiff {
	d := RunDiff{
		A:       RunRef{RunID: a.RunID, Name: a.Name, Tags: []string{}},
		B:       RunRef{RunID: b.RunID, Name: b.Name, Tags: []string{}},
		Inputs:  diffHashMaps(hashMap(a.Inputs), hashMap(b.Inputs)),
		Outputs: diffHashMaps(hashMap(a.Outputs), hashMap(b.Outputs)),
	}

	d.Params = ParamsDiff{A: paramsHash(a), B: paramsHash(b)}
	d.Params.Changed = !optionalEqual(d.Params.A, d.Params.B)

	d.Environment = EnvDiff{A: a.Environment, B: b.Environment}
	d.Environment.Changed = a.Environment != b.Environment

	d.Warnings = WarningsDiff{A: a.Warnings.Messages(), B: b.Warnings.Messages()}
	d.Warnings.Changed = !stringsEqual(d.Warnings.A, d.Warnings.B)

	d.Git = diffGit(gitFingerprint(a), gitFingerprint(b))

	d.TruthChanged = d.Inputs.HasChanges() || d.Params.Changed
	d.AnyChanged = d.TruthChanged ||
		d.Outputs.HasChanges() ||
		d.Environment.Changed ||
		d.Warnings.Changed ||
		d.Git.Changed

	return d
}

// DiffRuns loads both run records and compares them, attaching the tags
// currently aliasing each side.
func DiffRuns(ctx context.Context, fs afero.Fs, store storage.Store, catalog *Catalog, refA, refB string) (RunDiff, error) {
	a, err := LoadRun(ctx, fs, store, refA)
	if err != nil {
		return RunDiff{}, err
	}
	b, err := LoadRun(ctx, fs, store, refB)
	if err != nil {
		return RunDiff{}, err
	}
	d := Diff(a, b)
	d.A.Tags = catalog.TagsForRun(a.RunID)
	d.B.Tags = catalog.TagsForRun(b.RunID)
	return d, nil
}

func hashMap(m map[string]model.FileFingerprint) map[string]string {
	out := make(map[string]string, len(m))
	for pth, fp := range m {
		if fp.Hash != "" {
			out[pth] = fp.Hash
		}
	}
	return out
}

func diffHashMaps(a, b map[string]string) PathDiff {
	d := PathDiff{
		Added:     []string{},
		Removed:   []string{},
		Changed:   []string{},
		Unchanged: []string{},
	}
	for pth := range b {
		if _, ok := a[pth]; !ok {
			d.Added = append(d.Added, pth)
		}
	}
	for pth, hashA := range a {
		hashB, ok := b[pth]
		switch {
		case !ok:
			d.Removed = append(d.Removed, pth)
		case hashA != hashB:
			d.Changed = append(d.Changed, pth)
		default:
			d.Unchanged = append(d.Unchanged, pth)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Strings(d.Changed)
	sort.Strings(d.Unchanged)
	return d
}

func paramsHash(r *model.RunDescriptor) *string {
	if r.Params == nil || r.Params.Hash == "" {
		return nil
	}
	h := r.Params.Hash
	return &h
}

func optionalEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func gitFingerprint(r *model.RunDescriptor) GitFingerprint {
	if r.Git == nil {
		return GitFingerprint{Recorded: false}
	}
	return GitFingerprint{
		Recorded:  true,
		IsRepo:    r.Git.IsRepo,
		Commit:    r.Git.Commit,
		Branch:    r.Git.Branch,
		Detached:  r.Git.Detached,
		Dirty:     r.Git.Dirty,
		Untracked: r.Git.Untracked,
	}
}

// diffGit compares two git fingerprints. A side without a git snapshot is
// never reported as changed: absence must not manufacture a spurious diff.
func diffGit(a, b GitFingerprint) GitDiff {
	d := GitDiff{A: a, B: b, Reasons: []string{}}

	if !a.Recorded || !b.Recorded {
		switch {
		case !a.Recorded && !b.Recorded:
			d.Reasons = append(d.Reasons, "not recorded (A, B)")
		case !a.Recorded:
			d.Reasons = append(d.Reasons, "not recorded (A)")
		default:
			d.Reasons = append(d.Reasons, "not recorded (B)")
		}
		return d
	}

	if a.IsRepo != b.IsRepo {
		d.Changed = true
		d.Reasons = append(d.Reasons, "repo status changed")
		return d
	}
	if !a.IsRepo {
		return d
	}

	if a.Commit != b.Commit {
		d.Reasons = append(d.Reasons, "commit changed")
	}
	if a.Branch != b.Branch {
		d.Reasons = append(d.Reasons, "branch changed")
	}
	if a.Detached != b.Detached {
		d.Reasons = append(d.Reasons, "detached changed")
	}
	if a.Dirty != b.Dirty {
		d.Reasons = append(d.Reasons, "dirty changed")
	}
	if a.Untracked != b.Untracked {
		d.Reasons = append(d.Reasons, "untracked changed")
	}
	d.Changed = len(d.Reasons) > 0
	return d
}

// FailOn selects which severity of change signals failure to the caller.
type FailOn string

// Fail-on policies
const (
	FailOnNone  FailOn = "none"
	FailOnTruth FailOn = "truth"
	FailOnAny   FailOn = "any"
)

// Valid reports whether f is a known policy.
func (f FailOn) Valid() bool {
	switch f {
	case FailOnNone, FailOnTruth, FailOnAny:
		return true
	}
	return false
}

// Triggered reports whether the diff crosses the failure threshold.
func (f FailOn) Triggered(d RunDiff) bool {
	switch f {
	case FailOnTruth:
		return d.TruthChanged
	case FailOnAny:
		return d.AnyChanged
	}
	return false
}

// String implements fmt.Stringer for flag plumbing.
func (f FailOn) String() string {
	return string(f)
}

var _ fmt.Stringer = FailOnNone
