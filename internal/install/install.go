// Package install fetches plugin directories from git repositories into the
// plugins root.
package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/alexisbeaulieu97/deskmate/internal/logger"
	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
	"github.com/alexisbeaulieu97/deskmate/internal/validation"
)

var (
	// ErrInvalidURL is returned for sources that are not git URLs.
	ErrInvalidURL = errors.New("invalid git URL")
	// ErrInvalidName is returned when no plugin directory name can be derived.
	ErrInvalidName = errors.New("invalid plugin name")
	// ErrAlreadyInstalled is returned when the target directory exists.
	ErrAlreadyInstalled = errors.New("plugin directory already exists")
)

// DefaultAttempts bounds how often a transient clone failure is retried.
const DefaultAttempts = 3

// Request describes a plugin to fetch.
type Request struct {
	URL string
	// Name overrides the directory name derived from the URL.
	Name string
	// Ref is a branch or tag. Empty clones the remote HEAD.
	Ref string
}

// Result describes an installed plugin directory.
type Result struct {
	ID     string
	Dir    string
	Commit string
}

type cloneFunc func(ctx context.Context, dir string, opts *git.CloneOptions) (*git.Repository, error)

// Installer clones repositories below a plugins root.
type Installer struct {
	root     string
	log      *logger.Logger
	attempts uint64
	interval time.Duration
	clone    cloneFunc
}

// Option configures an Installer.
type Option func(*Installer)

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(i *Installer) { i.log = log }
}

// WithRetry sets the number of attempts and the initial backoff interval.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(i *Installer) {
		if attempts > 0 {
			i.attempts = uint64(attempts)
		}
		if interval > 0 {
			i.interval = interval
		}
	}
}

// New returns an Installer writing into root.
func New(root string, opts ...Option) *Installer {
	i := &Installer{
		root:     root,
		attempts: DefaultAttempts,
		interval: 500 * time.Millisecond,
		clone: func(ctx context.Context, dir string, opts *git.CloneOptions) (*git.Repository, error) {
			return git.PlainCloneContext(ctx, dir, false, opts)
		},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install clones req.URL into <root>/<name>. An existing directory is never
// overwritten.
func (i *Installer) Install(ctx context.Context, req Request) (Result, error) {
	if !validation.IsGitURL(req.URL) {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidURL, req.URL)
	}

	name := req.Name
	if name == "" {
		name = nameFromURL(req.URL)
	}
	id := plugin.SanitizeID(name)
	if id == "" {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	dir := filepath.Join(i.root, id)
	if _, err := os.Stat(dir); err == nil {
		return Result{}, fmt.Errorf("%w: %s", ErrAlreadyInstalled, dir)
	} else if !errors.Is(err, os.ErrNotExist) {
		return Result{}, fmt.Errorf("inspect %s: %w", dir, err)
	}
	if err := os.MkdirAll(i.root, 0o755); err != nil {
		return Result{}, fmt.Errorf("create plugins directory: %w", err)
	}

	log := i.log.WithFields(map[string]any{"plugin_id": id, "url": req.URL})
	log.Info("installing plugin")

	repo, err := i.cloneRef(ctx, dir, req)
	if err != nil {
		return Result{}, fmt.Errorf("clone %s: %w", req.URL, err)
	}

	res := Result{ID: id, Dir: dir}
	if head, err := repo.Head(); err == nil {
		res.Commit = head.Hash().String()
	}
	log.With("commit", res.Commit).Info("plugin installed")
	return res, nil
}

func (i *Installer) cloneRef(ctx context.Context, dir string, req Request) (*git.Repository, error) {
	if req.Ref == "" {
		return i.cloneWithRetry(ctx, dir, &git.CloneOptions{URL: req.URL})
	}

	repo, err := i.cloneWithRetry(ctx, dir, &git.CloneOptions{
		URL:           req.URL,
		ReferenceName: plumbing.NewBranchReferenceName(req.Ref),
		SingleBranch:  true,
	})
	if err == nil || !isMissingRef(err) {
		return repo, err
	}
	return i.cloneWithRetry(ctx, dir, &git.CloneOptions{
		URL:           req.URL,
		ReferenceName: plumbing.NewTagReferenceName(req.Ref),
		SingleBranch:  true,
	})
}

func (i *Installer) cloneWithRetry(ctx context.Context, dir string, opts *git.CloneOptions) (*git.Repository, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = i.interval
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, i.attempts-1), ctx)

	var repo *git.Repository
	attempt := 0
	op := func() error {
		attempt++
		r, err := i.clone(ctx, dir, opts)
		if err == nil {
			repo = r
			return nil
		}
		_ = os.RemoveAll(dir)
		if !isTransient(ctx, err) {
			return backoff.Permanent(err)
		}
		i.log.WithFields(map[string]any{"attempt": attempt, "error": err.Error()}).Warn("clone failed, retrying")
		return err
	}

	if err := backoff.Retry(op, retry); err != nil {
		return nil, err
	}
	return repo, nil
}

func isMissingRef(err error) bool {
	return errors.Is(err, plumbing.ErrReferenceNotFound) || strings.Contains(err.Error(), "couldn't find remote ref")
}

func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, transport.ErrEmptyRemoteRepository),
		errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrInvalidAuthMethod),
		errors.Is(err, git.ErrRepositoryAlreadyExists),
		isMissingRef(err):
		return false
	}
	return true
}

func nameFromURL(raw string) string {
	raw = strings.TrimRight(raw, "/")
	if idx := strings.LastIndex(raw, ":"); idx >= 0 && !strings.Contains(raw, "://") {
		raw = raw[idx+1:]
	}
	return strings.TrimSuffix(path.Base(raw), ".git")
}
