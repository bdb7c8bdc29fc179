package install

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/deskmate/internal/logger"
)

func TestInstallClonesRepository(t *testing.T) {
	t.Parallel()

	src, head := initPluginRepo(t)
	root := t.TempDir()

	res, err := New(root, WithLogger(logger.Discard())).Install(context.Background(), Request{URL: src, Name: "Weather Widget"})
	require.NoError(t, err)

	assert.Equal(t, "Weather-Widget", res.ID)
	assert.Equal(t, filepath.Join(root, "Weather-Widget"), res.Dir)
	assert.Equal(t, head.String(), res.Commit)
	assert.FileExists(t, filepath.Join(res.Dir, "plugin.yaml"))
	assert.FileExists(t, filepath.Join(res.Dir, "main.lua"))
}

func TestInstallTagRef(t *testing.T) {
	t.Parallel()

	src, head := initPluginRepo(t)
	repo, err := git.PlainOpen(src)
	require.NoError(t, err)
	_, err = repo.CreateTag("v1.0.0", head, nil)
	require.NoError(t, err)

	res, err := New(t.TempDir()).Install(context.Background(), Request{URL: src, Name: "weather", Ref: "v1.0.0"})
	require.NoError(t, err)
	assert.Equal(t, head.String(), res.Commit)
}

func TestInstallRejects(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "taken"), 0o755))
	inst := New(root)

	_, err := inst.Install(context.Background(), Request{URL: "ftp://example.com/x.git"})
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, err = inst.Install(context.Background(), Request{URL: "https://example.com/acme/taken.git"})
	assert.ErrorIs(t, err, ErrAlreadyInstalled)

	_, err = inst.Install(context.Background(), Request{URL: "https://example.com/acme/x.git", Name: "..."})
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestInstallRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	attempts := 0
	inst := New(root, WithRetry(3, time.Millisecond))
	inst.clone = func(_ context.Context, dir string, _ *git.CloneOptions) (*git.Repository, error) {
		attempts++
		require.NoError(t, os.MkdirAll(dir, 0o755))
		if attempts < 3 {
			return nil, errors.New("connection reset by peer")
		}
		return git.PlainInit(dir, false)
	}

	res, err := inst.Install(context.Background(), Request{URL: "https://example.com/acme/clock.git"})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "clock", res.ID)
	assert.Empty(t, res.Commit)
}

func TestInstallDoesNotRetryPermanentFailures(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	attempts := 0
	inst := New(root, WithRetry(5, time.Millisecond))
	inst.clone = func(_ context.Context, dir string, _ *git.CloneOptions) (*git.Repository, error) {
		attempts++
		require.NoError(t, os.MkdirAll(dir, 0o755))
		return nil, transport.ErrAuthenticationRequired
	}

	_, err := inst.Install(context.Background(), Request{URL: "https://example.com/acme/clock.git"})
	require.ErrorIs(t, err, transport.ErrAuthenticationRequired)
	assert.Equal(t, 1, attempts)
	assert.NoDirExists(t, filepath.Join(root, "clock"))
}

func TestNameFromURL(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://github.com/acme/weather.git": "weather",
		"git@github.com:acme/notes.git":       "notes",
		"file:///srv/git/clock/":              "clock",
		"/srv/git/todo":                       "todo",
	}
	for url, want := range cases {
		assert.Equal(t, want, nameFromURL(url), url)
	}
}

func initPluginRepo(t *testing.T) (string, plumbing.Hash) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	files := map[string]string{
		"plugin.yaml": "id: weather\nname: Weather\nversion: 1.0.0\nmain: main.lua\n",
		"main.lua":    "return {}\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
		_, err = wt.Add(name)
		require.NoError(t, err)
	}

	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Deskmate",
			Email: "deskmate@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return dir, hash
}
