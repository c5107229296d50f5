package core

import (
	"strings"

	"github.com/salazaj/provenance-recorder/pkg/core/status"
	"github.com/salazaj/provenance-recorder/pkg/model"
)

// TagArgs is the decided meaning of the two positional arguments to the
// tagging operation.
type TagArgs struct {
	RunRef  string
	TagName string
}

// TagPredicates supplies the externally decided facts the disambiguator
// needs about a token. Keeping them as predicates keeps the decision logic
// pure and testable.
type TagPredicates struct {
	// ExistingTags is the catalog's current tag set
	ExistingTags map[string]string

	// TagOK reports whether a token is valid under the tag grammar
	TagOK func(string) bool

	// RunOK reports whether a token independently resolves to an existing run
	RunOK func(string) bool
}

// refTraits carries everything rule evaluation needs to know about a token.
type refTraits struct {
	raw         string
	isOrdinal   bool
	runIDShaped bool
	hasPathSep  bool
	tagOK       bool
	runOK       bool
	existingTag bool
}

// explicitRunish means the user clearly intended the run side: an ordinal,
// a full run-id-shaped string, or a path.
func (t refTraits) explicitRunish() bool {
	return t.isOrdinal || t.runIDShaped || t.hasPathSep
}

func describeRef(x string, pred TagPredicates) refTraits {
	x = strings.TrimSpace(x)
	_, existing := pred.ExistingTags[x]
	return refTraits{
		raw:         x,
		isOrdinal:   isOrdinalRef(x),
		runIDShaped: model.IsRunID(x),
		hasPathSep:  strings.ContainsAny(x, `/\`),
		tagOK:       pred.TagOK(x),
		runOK:       pred.RunOK(x),
		existingTag: existing,
	}
}

// ResolveTagArgs decides (run reference, tag name) from two positional
// arguments, in either order.
//
// The rules form an ordered truth table; the first matching rule wins:
//
//  1. ordinals win (#N / N), to avoid surprises;
//  2. existing tag + run-resolvable other: accepted only when the run side
//     is explicit-run-ish, otherwise ambiguous - this blocks silently
//     reassigning an existing tag when the other token could itself be a
//     new tag name;
//  3. existing tag + tag-like other that is neither run-resolvable nor
//     explicit-run-ish: ambiguous (the symmetric footgun);
//  4. exactly one side resolves to a run: that side is the run;
//  5. both resolve to runs: error;
//  6. neither resolves to a run: error;
//  7. fallback (should be unreachable): first is the run, second the tag.
func ResolveTagArgs(a, b string, pred TagPredicates) (TagArgs, error) {
	ta := describeRef(a, pred)
	tb := describeRef(b, pred)

	// 1. ordinals win
	if ta.isOrdinal && !tb.isOrdinal {
		return TagArgs{RunRef: ta.raw, TagName: tb.raw}, nil
	}
	if tb.isOrdinal && !ta.isOrdinal {
		return TagArgs{RunRef: tb.raw, TagName: ta.raw}, nil
	}

	// 2. existing tag + run-resolvable other
	if ta.existingTag && tb.runOK {
		if tb.explicitRunish() {
			return TagArgs{RunRef: tb.raw, TagName: ta.raw}, nil
		}
		return TagArgs{}, ambiguousTagErr(ta.raw, tb.raw)
	}
	if tb.existingTag && ta.runOK {
		if ta.explicitRunish() {
			return TagArgs{RunRef: ta.raw, TagName: tb.raw}, nil
		}
		return TagArgs{}, ambiguousTagErr(tb.raw, ta.raw)
	}

	// 3. existing tag + plausible new tag name
	if ta.existingTag && tb.tagOK && !tb.runOK && !tb.explicitRunish() {
		return TagArgs{}, ambiguousTagErr(ta.raw, tb.raw)
	}
	if tb.existingTag && ta.tagOK && !ta.runOK && !ta.explicitRunish() {
		return TagArgs{}, ambiguousTagErr(tb.raw, ta.raw)
	}

	// 4. exactly one side resolves to a run
	if ta.runOK && tb.tagOK && !tb.runOK {
		return TagArgs{RunRef: ta.raw, TagName: tb.raw}, nil
	}
	if tb.runOK && ta.tagOK && !ta.runOK {
		return TagArgs{RunRef: tb.raw, TagName: ta.raw}, nil
	}

	// 5. both resolve to runs
	if ta.runOK && tb.runOK {
		return TagArgs{}, status.ErrTwoRuns.WrapMessage(
			"need a tag name and a run reference, e.g. `prov tag baseline #2`")
	}

	// 6. neither resolves to a run
	if !ta.runOK && !tb.runOK {
		return TagArgs{}, status.ErrNoRun.WrapMessage(
			"provide a run ref (id/tag/ordinal/path) and a tag name, e.g. `prov tag baseline #2`")
	}

	// 7. unreachable fallback
	return TagArgs{RunRef: ta.raw, TagName: tb.raw}, nil
}

func ambiguousTagErr(existing, other string) error {
	return status.ErrAmbiguousTag.WrapMessage(
		"'%s' is an existing tag, and '%s' could be a tag name or a run reference; "+
			"be explicit: `prov tag %s #<N>`, `prov tag %s <run_id>`, "+
			"or `prov tag %s %s` if you meant to create tag '%s'",
		existing, other, existing, existing, other, existing, other)
}
