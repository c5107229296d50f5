package core

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/salazaj/provenance-recorder/pkg/model"
	"github.com/salazaj/provenance-recorder/pkg/storage"
)

// RepairResult reports what a repair pass found and rewrote.
type RepairResult struct {
	RunsCount       int      `json:"runsCount" yaml:"runsCount"`
	TagsTotalBefore int      `json:"tagsTotalBefore" yaml:"tagsTotalBefore"`
	TagsKept        int      `json:"tagsKept" yaml:"tagsKept"`
	TimestampsAdded int      `json:"timestampsAdded" yaml:"timestampsAdded"`
	BackupPath      string   `json:"backupPath,omitempty" yaml:"backupPath,omitempty"`
	Warnings        []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

type repairSettings struct {
	backup   bool
	keepTags bool
	dryRun   bool
	provDir  string
	l        *zap.Logger
	clock    func() time.Time
}

// RepairOption configures an index repair
type RepairOption func(*repairSettings)

// RepairBackup saves the previous index document next to the rebuilt one
func RepairBackup(enable bool) RepairOption {
	return func(s *repairSettings) {
		s.backup = enable
	}
}

// RepairKeepTags retains tags whose target run still exists
func RepairKeepTags(enable bool) RepairOption {
	return func(s *repairSettings) {
		s.keepTags = enable
	}
}

// RepairDryRun computes the rebuilt index without writing anything
func RepairDryRun(enable bool) RepairOption {
	return func(s *repairSettings) {
		s.dryRun = enable
	}
}

// RepairProvDir sets the prov directory recorded in rebuilt entry paths
func RepairProvDir(dir string) RepairOption {
	return func(s *repairSettings) {
		if dir != "" {
			s.provDir = dir
		}
	}
}

// RepairLogger sets a logger on the repair pass
func RepairLogger(l *zap.Logger) RepairOption {
	return func(s *repairSettings) {
		if l != nil {
			s.l = l
		}
	}
}

// RepairClock overrides the time source used for backup file names
func RepairClock(clock func() time.Time) RepairOption {
	return func(s *repairSettings) {
		if clock != nil {
			s.clock = clock
		}
	}
}

const backupStampFormat = "20060102T150405Z"

// RepairIndex rebuilds the index document from the run directories found in
// the store. Runs are re-discovered from their descriptors, entries are
// ordered by timestamp, and tags pointing at vanished runs are dropped.
// Descriptors missing a timestamp get one inferred from the run id and are
// written back in place.
func RepairIndex(ctx context.Context, store storage.Store, opts ...RepairOption) (RepairResult, error) {
	s := repairSettings{
		backup:   true,
		keepTags: true,
		provDir:  model.DefaultProvDir,
		l:        zap.NewNop(),
		clock:    time.Now,
	}
	for _, apply := range opts {
		apply(&s)
	}

	var result RepairResult

	previousTags := map[string]string{}
	if prior, err := LoadCatalog(ctx, store); err == nil {
		previousTags = prior.Tags
	} else {
		result.Warnings = append(result.Warnings, fmt.Sprintf("previous index is unreadable, tags discarded: %v", err))
	}
	result.TagsTotalBefore = len(previousTags)

	keys, err := store.Keys(ctx)
	if err != nil {
		return result, err
	}
	descriptorKeys, bareDirs := runDescriptorKeys(keys)
	for _, dir := range bareDirs {
		result.Warnings = append(result.Warnings, fmt.Sprintf("run directory %q has no %s, skipped", dir, model.RunDescriptorFileName()))
	}

	entries := make([]model.IndexEntry, 0, len(descriptorKeys))
	for _, key := range descriptorKeys {
		entry, fixed, ere := repairDescriptor(ctx, store, key, s.dryRun)
		if ere != nil {
			result.Warnings = append(result.Warnings, ere.Error())
			continue
		}
		if fixed {
			result.TimestampsAdded++
		}
		entry.Path = s.provDir + "/" + runsDirectory + "/" + entry.RunID
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Timestamp != entries[j].Timestamp {
			return entries[i].Timestamp < entries[j].Timestamp
		}
		return entries[i].RunID < entries[j].RunID
	})
	result.RunsCount = len(entries)

	known := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		known[entry.RunID] = struct{}{}
	}
	keptTags := map[string]string{}
	if s.keepTags {
		for tag, runID := range previousTags {
			if _, ok := known[runID]; ok {
				keptTags[tag] = runID
				continue
			}
			result.Warnings = append(result.Warnings, fmt.Sprintf("tag %q pointed at missing run %s, dropped", tag, runID))
		}
	}
	result.TagsKept = len(keptTags)

	if s.dryRun {
		return result, nil
	}

	if s.backup {
		backupPath, erb := backupIndex(ctx, store, s.clock())
		if erb != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("could not back up previous index: %v", erb))
		} else {
			result.BackupPath = backupPath
		}
	}

	rebuilt := newCatalog(store, CatalogLogger(s.l))
	rebuilt.Tags = keptTags
	for _, entry := range entries {
		rebuilt.AppendEntry(entry)
	}
	if err = rebuilt.Write(ctx); err != nil {
		return result, err
	}
	s.l.Info("rebuilt index",
		zap.Int("runs", result.RunsCount),
		zap.Int("tags_kept", result.TagsKept),
		zap.Int("timestamps_added", result.TimestampsAdded),
	)
	return result, nil
}

// runDescriptorKeys splits the store listing into run descriptor keys and run
// directories that carry files but no descriptor.
func runDescriptorKeys(keys []string) (descriptors []string, bareDirs []string) {
	withDescriptor := map[string]bool{}
	for _, key := range keys {
		parts := strings.Split(key, "/")
		if len(parts) < 3 || parts[0] != runsDirectory {
			continue
		}
		dir := parts[1]
		if len(parts) == 3 && parts[2] == model.RunDescriptorFileName() {
			withDescriptor[dir] = true
			continue
		}
		if _, seen := withDescriptor[dir]; !seen {
			withDescriptor[dir] = false
		}
	}
	for dir, ok := range withDescriptor {
		if ok {
			descriptors = append(descriptors, runsDirectory+"/"+dir+"/"+model.RunDescriptorFileName())
		} else {
			bareDirs = append(bareDirs, dir)
		}
	}
	sort.Strings(descriptors)
	sort.Strings(bareDirs)
	return descriptors, bareDirs
}

// repairDescriptor reads one run descriptor, backfilling a missing timestamp
// from the run id when possible. The rewritten descriptor is put back in
// place unless dryRun is set.
func repairDescriptor(ctx context.Context, store storage.Store, key string, dryRun bool) (model.IndexEntry, bool, error) {
	dir := strings.Split(key, "/")[1]
	payload, err := storage.ReadDocument(ctx, store, key)
	if err != nil {
		return model.IndexEntry{}, false, fmt.Errorf("run %s: unreadable descriptor: %v", dir, err)
	}
	doc := map[string]interface{}{}
	if err = catalogJSON.Unmarshal(payload, &doc); err != nil {
		return model.IndexEntry{}, false, fmt.Errorf("run %s: invalid descriptor: %v", dir, err)
	}
	entry := model.IndexEntry{RunID: dir}
	if runID, ok := doc["run_id"].(string); ok && runID != "" {
		entry.RunID = runID
	}
	if name, ok := doc["name"].(string); ok {
		entry.Name = name
	}
	if ts, ok := doc["timestamp"].(string); ok && ts != "" {
		entry.Timestamp = ts
		return entry, false, nil
	}

	inferred, ok := model.TimestampFromRunID(entry.RunID)
	if !ok {
		return model.IndexEntry{}, false, fmt.Errorf("run %s: missing timestamp and the run id does not carry one", dir)
	}
	entry.Timestamp = inferred
	if dryRun {
		return entry, true, nil
	}
	doc["timestamp"] = entry.Timestamp
	rewritten, err := catalogJSON.MarshalIndent(doc, "", "  ")
	if err != nil {
		return model.IndexEntry{}, false, err
	}
	rewritten = append(rewritten, '\n')
	if err = store.Put(ctx, key, bytes.NewReader(rewritten), storage.OverWrite); err != nil {
		return model.IndexEntry{}, false, fmt.Errorf("run %s: could not write repaired descriptor: %v", dir, err)
	}
	return entry, true, nil
}

func backupIndex(ctx context.Context, store storage.Store, at time.Time) (string, error) {
	indexKey := model.GetArchivePathToIndex()
	has, err := store.Has(ctx, indexKey)
	if err != nil || !has {
		return "", err
	}
	payload, err := storage.ReadDocument(ctx, store, indexKey)
	if err != nil {
		return "", err
	}
	backupKey := fmt.Sprintf("%s.bak-%s", indexKey, at.UTC().Format(backupStampFormat))
	if err = store.Put(ctx, backupKey, bytes.NewReader(payload), storage.OverWrite); err != nil {
		return "", err
	}
	return backupKey, nil
}
