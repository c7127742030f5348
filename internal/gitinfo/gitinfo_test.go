package gitinfo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func commitFile(t *testing.T, wt *git.Worktree, dir, rel, data string, when time.Time) {
	t.Helper()
	p := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
	_, err := wt.Add(rel)
	require.NoError(t, err)
	_, err = wt.Commit("update "+rel, &git.CommitOptions{
		Author:    &object.Signature{Name: "tester", Email: "t@example.com", When: when},
		Committer: &object.Signature{Name: "tester", Email: "t@example.com", When: when},
	})
	require.NoError(t, err)
}

func TestOpen_NoRepository_ReturnsNilInfo(t *testing.T) {
	dir := t.TempDir()

	info, err := Open(dir)
	require.NoError(t, err)
	require.Nil(t, info)

	_, ok := info.Lastmod(filepath.Join(dir, "whatever.md"))
	require.False(t, ok)
}

func TestOpen_CommittedFile_ReportsNewestCommitTime(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	first := time.Date(2023, 1, 10, 12, 0, 0, 0, time.UTC)
	second := time.Date(2023, 5, 2, 9, 30, 0, 0, time.UTC)
	commitFile(t, wt, dir, "content/blog/cats.md", "v1", first)
	commitFile(t, wt, dir, "content/blog/cats.md", "v2", second)
	commitFile(t, wt, dir, "content/about.md", "about", first)

	info, err := Open(dir)
	require.NoError(t, err)
	require.NotNil(t, info)

	got, ok := info.Lastmod(filepath.Join(dir, "content/blog/cats.md"))
	require.True(t, ok)
	require.Equal(t, second, got)

	got, ok = info.Lastmod(filepath.Join(dir, "content/about.md"))
	require.True(t, ok)
	require.Equal(t, first, got)
}

func TestLastmod_UntrackedFile_NotFound(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	commitFile(t, wt, dir, "tracked.md", "x", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))

	info, err := Open(dir)
	require.NoError(t, err)

	_, ok := info.Lastmod(filepath.Join(dir, "untracked.md"))
	require.False(t, ok)
}
