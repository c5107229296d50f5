package model

import (
	"runtime"
	"strings"
	"time"
)

// CurrentIndexVersion indicates the version of the index document model.
const CurrentIndexVersion = 1

// RunDescriptor represents one recorded run: what went in, what came out,
// and the environment that produced it. Once written it is never mutated,
// with the sole exception of the repair step backfilling a missing timestamp.
type RunDescriptor struct {
	RunID       string                     `json:"run_id" yaml:"run_id"`
	Name        string                     `json:"name" yaml:"name"`
	Timestamp   string                     `json:"timestamp" yaml:"timestamp"`
	Status      string                     `json:"status,omitempty" yaml:"status,omitempty"`
	Inputs      map[string]FileFingerprint `json:"inputs" yaml:"inputs"`
	Outputs     map[string]FileFingerprint `json:"outputs" yaml:"outputs"`
	Params      *ParamsFingerprint         `json:"params" yaml:"params"`
	Environment Environment                `json:"environment" yaml:"environment"`
	Warnings    Warnings                   `json:"warnings" yaml:"warnings"`
	Git         *GitState                  `json:"git,omitempty" yaml:"git,omitempty"`
	_           struct{}
}

// FileFingerprint captures the identity of one file at recording time.
// Map keys pointing at a FileFingerprint are repo-relative, never absolute.
type FileFingerprint struct {
	Bytes      int64  `json:"bytes" yaml:"bytes"`
	MtimeEpoch int64  `json:"mtime_epoch" yaml:"mtime_epoch"`
	MtimeUTC   string `json:"mtime_utc" yaml:"mtime_utc"`
	Hash       string `json:"hash" yaml:"hash"`
	_          struct{}
}

// ParamsFingerprint captures the identity of the single optional params file.
type ParamsFingerprint struct {
	Path  string `json:"path" yaml:"path"`
	Bytes int64  `json:"bytes" yaml:"bytes"`
	Hash  string `json:"hash" yaml:"hash"`
	_     struct{}
}

// Environment is the minimal runtime environment snapshot stored with a run.
type Environment struct {
	RuntimeVersion string `json:"runtime_version" yaml:"runtime_version"`
	Platform       string `json:"platform" yaml:"platform"`
	_              struct{}
}

// CaptureEnvironment snapshots the current process environment.
func CaptureEnvironment() Environment {
	return Environment{
		RuntimeVersion: runtime.Version(),
		Platform:       runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// GitState is the version-control snapshot taken at recording time.
// A nil *GitState on a RunDescriptor means the recording step never
// captured git at all, which is distinct from "captured, not a repo".
type GitState struct {
	IsRepo    bool   `json:"is_repo" yaml:"is_repo"`
	Root      string `json:"root,omitempty" yaml:"root,omitempty"`
	Commit    string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Branch    string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Detached  bool   `json:"detached,omitempty" yaml:"detached,omitempty"`
	Dirty     bool   `json:"dirty,omitempty" yaml:"dirty,omitempty"`
	Untracked int    `json:"untracked,omitempty" yaml:"untracked,omitempty"`
	Describe  string `json:"describe,omitempty" yaml:"describe,omitempty"`
	_         struct{}
}

// IndexEntry summarizes a run in the catalog, stored separately from the
// full run record.
type IndexEntry struct {
	RunID     string `json:"run_id" yaml:"run_id"`
	Name      string `json:"name" yaml:"name"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	_         struct{}
}

// TimestampFormat is the fixed textual form of run timestamps:
// ISO-8601 UTC with a Z suffix, second precision.
const TimestampFormat = "2006-01-02T15:04:05Z"

// UTCTimestamp renders t in the fixed run timestamp form.
func UTCTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimestampFormat)
}

// ParseTimestamp parses a recorded timestamp. The canonical Z-suffixed form
// is tried first, then a plain RFC3339 instant with an explicit offset, then
// a zoneless instant interpreted as UTC.
func ParseTimestamp(ts string) (time.Time, error) {
	ts = strings.TrimSpace(ts)
	if t, err := time.Parse(TimestampFormat, ts); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", ts, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
