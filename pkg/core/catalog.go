package core

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/salazaj/provenance-recorder/pkg/core/status"
	"github.com/salazaj/provenance-recorder/pkg/errors"
	"github.com/salazaj/provenance-recorder/pkg/model"
	"github.com/salazaj/provenance-recorder/pkg/storage"
)

// catalogJSON sorts map keys, so tags serialize in a stable, diff-friendly order.
var catalogJSON = jsoniter.ConfigCompatibleWithStandardLibrary

var tagRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateTagName rejects ambiguous or footgun tag names: digits-only and
// #N collide with ordinals, whitespace and exotic characters collide with
// shell usage.
func ValidateTagName(tag string) error {
	if strings.TrimSpace(tag) != tag {
		return status.ErrInvalidTag.WrapMessage("must not have leading or trailing whitespace")
	}
	for _, r := range tag {
		if unicode.IsSpace(r) {
			return status.ErrInvalidTag.WrapMessage("must not contain whitespace")
		}
	}
	if tag != "" && strings.IndexFunc(tag, func(r rune) bool { return r < '0' || r > '9' }) == -1 {
		return status.ErrInvalidTag.WrapMessage("must not be all digits (would collide with ordinals)")
	}
	if isOrdinalRef(tag) {
		return status.ErrInvalidTag.WrapMessage("must not look like an ordinal (e.g. '#3')")
	}
	if !tagRe.MatchString(tag) {
		return status.ErrInvalidTag.WrapMessage("must match [A-Za-z0-9][A-Za-z0-9._-]*")
	}
	return nil
}

// Catalog is the durable, ordered registry of recorded runs and the
// tag aliases pointing at them.
//
// The whole document is read at load time, mutated in memory, and written
// back as a whole. There is no partial update path and no locking: the
// recorder targets single-user, single-process invocation, and concurrent
// writers lose updates (last writer wins).
type Catalog struct {
	Version int
	Tags    map[string]string

	store       storage.Store
	l           *zap.Logger
	entries     []catalogEntry
	rawRuns     []jsoniter.RawMessage
	recoverable []error
}

type catalogEntry struct {
	model.IndexEntry
	at       time.Time
	sortable bool
}

// CatalogOption configures catalog loading
type CatalogOption func(*Catalog)

// CatalogLogger sets a logger on the catalog
func CatalogLogger(l *zap.Logger) CatalogOption {
	return func(c *Catalog) {
		if l != nil {
			c.l = l
		}
	}
}

func newCatalog(store storage.Store, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		Version: model.CurrentIndexVersion,
		Tags:    make(map[string]string),
		store:   store,
		l:       zap.NewNop(),
	}
	for _, apply := range opts {
		apply(c)
	}
	return c
}

// indexDocument is the raw shape of the persisted catalog. Runs and tags
// are decoded in a second pass so that their types can be checked
// explicitly and malformed entries recovered individually.
type indexDocument struct {
	Version int                 `json:"version"`
	Runs    jsoniter.RawMessage `json:"runs"`
	Tags    jsoniter.RawMessage `json:"tags"`
}

// LoadCatalog reads the catalog from the store. A missing document is not
// an error: an empty catalog is initialized and persisted, so first use
// needs no explicit setup. A document that is not an object, or whose runs
// or tags have the wrong type, fails with ErrCorruptIndex.
func LoadCatalog(ctx context.Context, store storage.Store, opts ...CatalogOption) (*Catalog, error) {
	c := newCatalog(store, opts...)

	doc, err := storage.ReadDocument(ctx, store, model.GetArchivePathToIndex())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			if err = c.Write(ctx); err != nil {
				return nil, err
			}
			return c, nil
		}
		return nil, err
	}

	var raw indexDocument
	if err = catalogJSON.Unmarshal(doc, &raw); err != nil {
		return nil, status.ErrCorruptIndex.WrapMessage("%v", err)
	}
	if raw.Version != 0 {
		c.Version = raw.Version
	}

	if err = c.decodeRuns(raw.Runs); err != nil {
		return nil, err
	}
	if err = c.decodeTags(raw.Tags); err != nil {
		return nil, err
	}

	if len(c.recoverable) > 0 {
		c.l.Warn("ignoring malformed index entries",
			zap.Int("count", len(c.recoverable)),
			zap.Errors("entries", c.recoverable),
		)
	}
	return c, nil
}

func (c *Catalog) decodeRuns(raw jsoniter.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var rawRuns []jsoniter.RawMessage
	if err := catalogJSON.Unmarshal(trimmed, &rawRuns); err != nil {
		return status.ErrCorruptIndex.WrapMessage("'runs' must be a list")
	}
	c.rawRuns = rawRuns
	for i, rawEntry := range rawRuns {
		var entry model.IndexEntry
		if err := catalogJSON.Unmarshal(rawEntry, &entry); err != nil {
			c.recoverable = append(c.recoverable, fmt.Errorf("entry %d: not an object", i))
			continue
		}
		c.addEntry(entry, i)
	}
	return nil
}

func (c *Catalog) decodeTags(raw jsoniter.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := catalogJSON.Unmarshal(trimmed, &c.Tags); err != nil {
		return status.ErrCorruptIndex.WrapMessage("'tags' must be an object")
	}
	return nil
}

// addEntry parses the entry timestamp and keeps track of entries excluded
// from ordering. Exclusion is a deliberate leniency trade-off: one
// malformed summary must not take the whole catalog down.
func (c *Catalog) addEntry(entry model.IndexEntry, pos int) {
	parsed := catalogEntry{IndexEntry: entry}
	switch {
	case entry.RunID == "":
		c.recoverable = append(c.recoverable, fmt.Errorf("entry %d: missing run_id", pos))
	case entry.Timestamp == "":
		c.recoverable = append(c.recoverable, fmt.Errorf("entry %d (%s): missing timestamp", pos, entry.RunID))
	default:
		at, err := model.ParseTimestamp(entry.Timestamp)
		if err != nil {
			c.recoverable = append(c.recoverable,
				fmt.Errorf("entry %d (%s): unparsable timestamp %q", pos, entry.RunID, entry.Timestamp))
			break
		}
		parsed.at = at
		parsed.sortable = true
	}
	c.entries = append(c.entries, parsed)
}

// Recoverable reports the index entries that were dropped from ordering at
// load time, so callers may surface them without changing resolution.
func (c *Catalog) Recoverable() []error {
	return c.recoverable
}

// OrderedRunIDs returns run ids sorted ascending by parsed timestamp
// (oldest first), ties broken by lexical run id ordering for determinism.
// Entries excluded at load time do not appear.
func (c *Catalog) OrderedRunIDs() []string {
	sortable := make([]catalogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		if e.sortable {
			sortable = append(sortable, e)
		}
	}
	sort.Slice(sortable, func(i, j int) bool {
		if !sortable[i].at.Equal(sortable[j].at) {
			return sortable[i].at.Before(sortable[j].at)
		}
		return sortable[i].RunID < sortable[j].RunID
	})
	ids := make([]string, 0, len(sortable))
	for _, e := range sortable {
		ids = append(ids, e.RunID)
	}
	return ids
}

// ResolveOrdinal maps a 1-based ordinal (oldest=1) to a run id.
func (c *Catalog) ResolveOrdinal(n int) (string, error) {
	ordered := c.OrderedRunIDs()
	if n < 1 || n > len(ordered) {
		return "", status.ErrOrdinalOutOfRange.WrapMessage("%d (1..%d)", n, len(ordered))
	}
	return ordered[n-1], nil
}

// TagsForRun returns all tag names currently aliasing runID, sorted.
func (c *Catalog) TagsForRun(runID string) []string {
	out := make([]string, 0)
	for tag, rid := range c.Tags {
		if rid == runID {
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}

// RunIDForTag resolves a tag alias, if it exists.
func (c *Catalog) RunIDForTag(tag string) (string, bool) {
	rid, ok := c.Tags[tag]
	return rid, ok
}

// Entry returns the catalog summary for runID, if present.
func (c *Catalog) Entry(runID string) (model.IndexEntry, bool) {
	for _, e := range c.entries {
		if e.RunID == runID {
			return e.IndexEntry, true
		}
	}
	return model.IndexEntry{}, false
}

// SetTag points tag at runID. An existing tag is only reassigned with
// force.
func (c *Catalog) SetTag(tag, runID string, force bool) error {
	if err := ValidateTagName(tag); err != nil {
		return err
	}
	if _, exists := c.Tags[tag]; exists && !force {
		return status.ErrTagExists.WrapMessage("'%s' (use --force to overwrite)", tag)
	}
	c.Tags[tag] = runID
	return nil
}

// DelTag removes a tag alias.
func (c *Catalog) DelTag(tag string) error {
	if _, exists := c.Tags[tag]; !exists {
		return status.ErrTagNotFound.WrapMessage("'%s'", tag)
	}
	delete(c.Tags, tag)
	return nil
}

// AppendEntry registers a freshly recorded run in the catalog. The change
// is in-memory until Write is called.
func (c *Catalog) AppendEntry(entry model.IndexEntry) {
	raw, err := catalogJSON.Marshal(entry)
	if err != nil {
		// an IndexEntry of plain strings cannot fail to marshal
		panic(err)
	}
	c.rawRuns = append(c.rawRuns, raw)
	c.addEntry(entry, len(c.rawRuns)-1)
}

// Write serializes the whole catalog document back to the store. This is
// the only mutation path.
func (c *Catalog) Write(ctx context.Context) error {
	runs := c.rawRuns
	if runs == nil {
		runs = []jsoniter.RawMessage{}
	}
	doc, err := catalogJSON.MarshalIndent(struct {
		Version int                   `json:"version"`
		Runs    []jsoniter.RawMessage `json:"runs"`
		Tags    map[string]string     `json:"tags"`
	}{
		Version: c.Version,
		Runs:    runs,
		Tags:    c.Tags,
	}, "", "  ")
	if err != nil {
		return err
	}
	doc = append(doc, '\n')
	return c.store.Put(ctx, model.GetArchivePathToIndex(), bytes.NewReader(doc), storage.OverWrite)
}
