// Package git resolves and checks out the revision a dispatch run builds.
package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/melih/imagedispatch/internal/core/domain"
)

// Options configures where sources come from.
type Options struct {
	// URL of the remote repository. When empty, Path is used in place.
	URL string
	// Path of an existing working tree, used when URL is empty.
	Path string
	// WorkDir is the parent directory of temporary clones.
	WorkDir string
	// Token authenticates HTTP clones. May be empty for public repositories.
	Token string
	// Progress receives clone progress output.
	Progress io.Writer
}

// Adapter implements ports.SourceService using go-git.
//
// In local mode every run shares one working tree, so a checkout holds the tree until it is
// released and the next run waits for it.
type Adapter struct {
	opts   Options
	logger *slog.Logger

	local chan struct{}

	mu     sync.Mutex
	holder *domain.Checkout
	head   *plumbing.Reference
}

// NewAdapter creates a new source adapter.
func NewAdapter(opts Options, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Path == "" {
		opts.Path = "."
	}
	return &Adapter{
		opts:   opts,
		logger: logger.With("component", "git"),
		local:  make(chan struct{}, 1),
	}
}

// Checkout clones the remote (or opens the local tree) and positions it at ref.
func (a *Adapter) Checkout(ctx context.Context, ref domain.Ref) (*domain.Checkout, error) {
	if ref.Empty() {
		return nil, fmt.Errorf("%w: empty ref", domain.ErrRefNotFound)
	}
	if a.opts.URL == "" {
		return a.checkoutLocal(ctx, ref)
	}
	return a.checkoutRemote(ctx, ref)
}

// Release removes temporary clones. A local working tree is moved back to the HEAD it had
// before Checkout and handed to the next waiting run.
func (a *Adapter) Release(co *domain.Checkout) error {
	if co == nil {
		return nil
	}
	if co.Temporary {
		return os.RemoveAll(co.Dir)
	}

	a.mu.Lock()
	if a.holder != co {
		a.mu.Unlock()
		return nil
	}
	head := a.head
	a.holder, a.head = nil, nil
	a.mu.Unlock()
	defer func() { <-a.local }()

	return a.restoreHead(head)
}

// cloneOptions clones branch tips shallowly; a pinned commit may be anywhere in history.
func (a *Adapter) cloneOptions(ref domain.Ref) *git.CloneOptions {
	opts := &git.CloneOptions{
		URL:      a.opts.URL,
		Auth:     a.auth(),
		Progress: a.opts.Progress,
	}
	if !ref.Pinned() {
		opts.ReferenceName = plumbing.NewBranchReferenceName(ref.Branch)
		opts.SingleBranch = true
		opts.Depth = 1
	}
	return opts
}

func (a *Adapter) checkoutRemote(ctx context.Context, ref domain.Ref) (*domain.Checkout, error) {
	if ref.Pinned() && !looksLikeHash(ref.Commit) {
		return nil, fmt.Errorf("%w: %q is not a commit hash", domain.ErrRefNotFound, ref.Commit)
	}

	tmpDir, err := os.MkdirTemp(a.opts.WorkDir, "imagedispatch-src-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	co := &domain.Checkout{Dir: tmpDir, Ref: ref, Temporary: true}

	a.logger.Info("cloning repository", "url", a.opts.URL, "ref", ref.String(), "pinned", ref.Pinned(), "dir", tmpDir)
	repo, err := git.PlainCloneContext(ctx, tmpDir, false, a.cloneOptions(ref))
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		var noMatch git.NoMatchingRefSpecError
		if errors.Is(err, plumbing.ErrReferenceNotFound) || errors.As(err, &noMatch) {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrRefNotFound, ref, err)
		}
		return nil, fmt.Errorf("failed to clone repo: %w", err)
	}

	if err := checkout(repo, co, true); err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, err
	}
	return co, nil
}

func (a *Adapter) checkoutLocal(ctx context.Context, ref domain.Ref) (*domain.Checkout, error) {
	select {
	case a.local <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for working tree %s: %w", a.opts.Path, ctx.Err())
	}

	co, head, err := a.openLocal(ref)
	if err != nil {
		<-a.local
		return nil, err
	}

	a.mu.Lock()
	a.holder, a.head = co, head
	a.mu.Unlock()
	return co, nil
}

func (a *Adapter) openLocal(ref domain.Ref) (*domain.Checkout, *plumbing.Reference, error) {
	repo, err := git.PlainOpen(a.opts.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open repo %s: %w", a.opts.Path, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	// Unresolved, so a HEAD on a branch stays on that branch after restore.
	head, err := repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read HEAD: %w", err)
	}
	co := &domain.Checkout{Dir: wt.Filesystem.Root(), Ref: ref}

	a.logger.Info("checking out local repository", "path", co.Dir, "ref", ref.String(), "pinned", ref.Pinned())
	if err := checkout(repo, co, false); err != nil {
		return nil, nil, err
	}
	return co, head, nil
}

func (a *Adapter) restoreHead(head *plumbing.Reference) error {
	repo, err := git.PlainOpen(a.opts.Path)
	if err != nil {
		return fmt.Errorf("failed to open repo %s: %w", a.opts.Path, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}

	opts := &git.CheckoutOptions{Hash: head.Hash()}
	if head.Type() == plumbing.SymbolicReference {
		opts = &git.CheckoutOptions{Branch: head.Target()}
	}
	if err := wt.Checkout(opts); err != nil {
		return fmt.Errorf("failed to restore HEAD to %s: %w", head, err)
	}
	a.logger.Info("restored local repository", "path", a.opts.Path, "head", head.String())
	return nil
}

// checkout resolves co.Ref in repo, moves the worktree there and records the commit.
// Without force a dirty worktree is an error rather than being overwritten.
func checkout(repo *git.Repository, co *domain.Checkout, force bool) error {
	hash, err := resolve(repo, co.Ref)
	if err != nil {
		return err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: hash, Force: force}); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", hash, err)
	}

	co.Commit = domain.NewCommit(hash.String())
	return nil
}

// resolve maps ref to a commit hash. A pinned ref is only ever a full or abbreviated hash;
// a branch is only ever looked up among branches, even when its name is valid hex.
func resolve(repo *git.Repository, ref domain.Ref) (plumbing.Hash, error) {
	if ref.Pinned() {
		return resolveCommit(repo, ref.Commit)
	}

	for _, name := range []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(ref.Branch),
		plumbing.NewRemoteReferenceName("origin", ref.Branch),
	} {
		r, err := repo.Reference(name, true)
		if err == nil {
			return r.Hash(), nil
		}
	}
	return plumbing.ZeroHash, fmt.Errorf("%w: branch %s", domain.ErrRefNotFound, ref.Branch)
}

func resolveCommit(repo *git.Repository, sha string) (plumbing.Hash, error) {
	if !looksLikeHash(sha) {
		return plumbing.ZeroHash, fmt.Errorf("%w: %q is not a commit hash", domain.ErrRefNotFound, sha)
	}
	if len(sha) < 40 {
		return resolvePrefix(repo, sha)
	}
	hash := plumbing.NewHash(strings.ToLower(sha))
	if _, err := repo.CommitObject(hash); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%w: commit %s: %v", domain.ErrRefNotFound, sha, err)
	}
	return hash, nil
}

func resolvePrefix(repo *git.Repository, prefix string) (plumbing.Hash, error) {
	iter, err := repo.CommitObjects()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	defer iter.Close()

	prefix = strings.ToLower(prefix)
	var found []plumbing.Hash
	err = iter.ForEach(func(c *object.Commit) error {
		if strings.HasPrefix(c.Hash.String(), prefix) {
			found = append(found, c.Hash)
		}
		return nil
	})
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if len(found) != 1 {
		return plumbing.ZeroHash, fmt.Errorf("%w: %s matches %d commits", domain.ErrRefNotFound, prefix, len(found))
	}
	return found[0], nil
}

func (a *Adapter) auth() transport.AuthMethod {
	if a.opts.Token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: "x-access-token", Password: a.opts.Token}
}

// looksLikeHash reports whether ref could be an abbreviated or full commit hash.
func looksLikeHash(ref string) bool {
	if len(ref) < 4 || len(ref) > 40 {
		return false
	}
	for _, c := range ref {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
