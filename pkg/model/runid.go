package model

import (
	"regexp"
	"time"

	"github.com/salazaj/provenance-recorder/internal/rand"
)

const (
	// RunIDTimestampFormat is the timestamp prefix embedded in run ids.
	// Colons are replaced by dashes to keep ids filesystem-safe.
	RunIDTimestampFormat = "2006-01-02T15-04-05Z"

	runIDSuffixLength = 6
)

var runIDRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2}Z_[A-Za-z0-9]+$`)

// NewRunID builds a globally unique run identifier: a UTC timestamp prefix
// for rough ordering plus a random suffix for uniqueness.
func NewRunID() string {
	return NewRunIDAt(time.Now())
}

// NewRunIDAt builds a run identifier with an explicit instant, for
// deterministic construction in tests.
func NewRunIDAt(t time.Time) string {
	return t.UTC().Format(RunIDTimestampFormat) + "_" + rand.LetterString(runIDSuffixLength)
}

// IsRunID reports whether s has the shape of a full run identifier.
func IsRunID(s string) bool {
	return runIDRe.MatchString(s)
}

// TimestampFromRunID recovers the recorded timestamp embedded in a run id,
// rendered in the canonical TimestampFormat. The second return is false when
// the id carries no parsable timestamp prefix.
func TimestampFromRunID(runID string) (string, bool) {
	if !IsRunID(runID) {
		return "", false
	}
	prefix := runID[:len(RunIDTimestampFormat)]
	t, err := time.Parse(RunIDTimestampFormat, prefix)
	if err != nil {
		return "", false
	}
	return UTCTimestamp(t), true
}
