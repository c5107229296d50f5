// Package status exports errors produced by the core package.
package status

import (
	"github.com/salazaj/provenance-recorder/pkg/errors"
)

var (
	// ErrCorruptIndex indicates the catalog document is structurally invalid
	ErrCorruptIndex = errors.New("invalid index document")

	// ErrCorruptRun indicates a run record is structurally invalid
	ErrCorruptRun = errors.New("invalid run record")

	// ErrNotFound indicates a run record does not exist
	ErrNotFound = errors.New("run not found")

	// ErrInvalidTag indicates a tag name violates the tag grammar
	ErrInvalidTag = errors.New("invalid tag name")

	// ErrOrdinalOutOfRange indicates a run ordinal outside 1..count
	ErrOrdinalOutOfRange = errors.New("run index out of range")

	// ErrTagExists indicates an attempt to reassign a tag without force
	ErrTagExists = errors.New("tag already exists")

	// ErrTagNotFound indicates an operation on a tag that does not exist
	ErrTagNotFound = errors.New("tag does not exist")

	// ErrAmbiguousTag indicates tag arguments that could silently do the wrong thing
	ErrAmbiguousTag = errors.New("ambiguous tag arguments")

	// ErrTwoRuns indicates both tag arguments resolve to runs
	ErrTwoRuns = errors.New("both arguments resolve to runs")

	// ErrNoRun indicates neither tag argument resolves to a run
	ErrNoRun = errors.New("could not resolve a run from either argument")

	// ErrNotEnoughRuns indicates a comparison needs more recorded runs than exist
	ErrNotEnoughRuns = errors.New("need at least two recorded runs to diff")
)
