// Package gitinfo derives per-file last-modified timestamps from git history.
// The sitemap and feed use these instead of filesystem mtimes so deploys from
// a fresh checkout keep stable dates.
package gitinfo

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Info exposes last-commit times for files under a repository.
type Info struct {
	times map[string]time.Time
}

// Open walks the history of the repository containing dir and records the
// newest commit time for every path touched. Outside a git repository it
// returns (nil, nil); callers fall back to file mtimes.
func Open(dir string) (*Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err == git.ErrRepositoryNotExists {
		slog.Debug("No git repository found, using file mtimes", "dir", dir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open git repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		// Empty repository (no commits yet) behaves like no repository.
		slog.Debug("Git repository has no HEAD, using file mtimes", "dir", dir, "error", err)
		return nil, nil
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read git log: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	root := wt.Filesystem.Root()

	info := &Info{times: map[string]time.Time{}}
	err = iter.ForEach(func(c *object.Commit) error {
		stats, err := c.Stats()
		if err != nil {
			// Merge commits and root commits can fail stat generation;
			// skip rather than abort the build.
			return nil
		}
		when := c.Committer.When.UTC()
		for _, st := range stats {
			abs := filepath.Join(root, filepath.FromSlash(st.Name))
			if existing, ok := info.times[abs]; !ok || when.After(existing) {
				info.times[abs] = when
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk git history: %w", err)
	}
	return info, nil
}

// Lastmod returns the newest commit time for path and whether history
// recorded it. A nil Info never reports a hit.
func (i *Info) Lastmod(path string) (time.Time, bool) {
	if i == nil {
		return time.Time{}, false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return time.Time{}, false
	}
	t, ok := i.times[abs]
	return t, ok
}
