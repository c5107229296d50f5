// Package gitinfo snapshots the state of the enclosing git repository at
// recording time, by shelling out to the git binary.
package gitinfo

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/salazaj/provenance-recorder/pkg/model"
)

// Runner executes a git subcommand in dir and returns its trimmed stdout.
type Runner func(ctx context.Context, dir string, args ...string) (string, error)

func execGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "git command failed"
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}
	return strings.TrimSpace(string(out)), nil
}

// Capture snapshots the repository enclosing dir. Outside a repository, or
// with no usable git binary, it degrades to GitState{IsRepo: false} rather
// than failing the recording.
func Capture(ctx context.Context, dir string) model.GitState {
	return capture(ctx, dir, execGit)
}

func capture(ctx context.Context, dir string, run Runner) model.GitState {
	root, err := run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return model.GitState{IsRepo: false}
	}

	state := model.GitState{IsRepo: true, Root: root}
	state.Commit, _ = run(ctx, dir, "rev-parse", "HEAD")

	branch, _ := run(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	state.Detached = branch == "HEAD"
	if !state.Detached {
		state.Branch = branch
	}

	status, _ := run(ctx, dir, "status", "--porcelain")
	state.Dirty, state.Untracked = parseStatus(status)

	// best effort only
	state.Describe, _ = run(ctx, dir, "describe", "--tags", "--always", "--dirty")

	return state
}

// parseStatus reduces porcelain status output to the dirty flag and the
// untracked file count.
func parseStatus(porcelain string) (dirty bool, untracked int) {
	for _, line := range strings.Split(porcelain, "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "??") {
			untracked++
			continue
		}
		dirty = true
	}
	return dirty, untracked
}
