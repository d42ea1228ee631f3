package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crmarques/autosync/faults"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Files autosync itself leaves inside managed repositories. They never count
// as local changes and are never staged.
var internalFiles = map[string]struct{}{
	".autosync-last-pull":  {},
	".last_pull_timestamp": {},
}

// GitRepository implements Repository on top of go-git.
type GitRepository struct {
	root string
	repo *gogit.Repository
	auth transport.AuthMethod
}

// Open attaches to an existing repository root. It fails with a
// RepositoryError when dir is not an initialized working tree; discovery and
// initialization are out of scope.
func Open(dir string, auth TransportAuth) (*GitRepository, error) {
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, faults.New(faults.RepositoryError, fmt.Sprintf("%s is not a git repository root", dir), err)
		}
		return nil, faults.New(faults.RepositoryError, fmt.Sprintf("failed to open repository at %s", dir), err)
	}

	return &GitRepository{
		root: dir,
		repo: repo,
		auth: auth,
	}, nil
}

func (r *GitRepository) Root() string {
	return r.root
}

func (r *GitRepository) IsDirty() (bool, error) {
	status, err := r.worktreeStatus()
	if err != nil {
		return false, err
	}

	for path, entry := range status {
		if isInternalPath(path) {
			continue
		}
		if entry.Worktree != gogit.Unmodified || entry.Staging != gogit.Unmodified {
			return true, nil
		}
	}
	return false, nil
}

func (r *GitRepository) CommitAll(message string) (bool, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return false, faults.New(faults.CommitError, "failed to open git worktree", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return false, faults.New(faults.CommitError, "failed to inspect git worktree status", err)
	}

	staged := false
	for path, entry := range status {
		if isInternalPath(path) {
			continue
		}
		if entry.Worktree == gogit.Unmodified && entry.Staging == gogit.Unmodified {
			continue
		}
		if _, err := worktree.Add(path); err != nil {
			return false, faults.New(faults.CommitError, fmt.Sprintf("failed to stage %s", path), err)
		}
		staged = true
	}
	if !staged {
		return false, nil
	}

	signature := r.commitSignature()
	if _, err := worktree.Commit(message, &gogit.CommitOptions{
		Author:    &signature,
		Committer: &signature,
	}); err != nil {
		return false, faults.New(faults.CommitError, "failed to commit local changes", err)
	}
	return true, nil
}

func (r *GitRepository) Pull(ctx context.Context) error {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return faults.New(faults.PullError, "failed to open git worktree", err)
	}

	err = worktree.PullContext(ctx, &gogit.PullOptions{
		RemoteName: gogit.DefaultRemoteName,
		Auth:       r.auth,
	})
	if err == nil || errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil
	}
	return classifyPullError(err)
}

func (r *GitRepository) Push(ctx context.Context) error {
	err := r.repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: gogit.DefaultRemoteName,
		Auth:       r.auth,
	})
	if err == nil || errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil
	}
	return classifyPushError(err)
}

// Remotes lists the configured remote names. Sync itself always targets the
// default remote; this exists for diagnostics.
func (r *GitRepository) Remotes() ([]string, error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return nil, faults.New(faults.RepositoryError, "failed to list git remotes", err)
	}

	names := make([]string, 0, len(remotes))
	for _, remote := range remotes {
		names = append(names, remote.Config().Name)
	}
	return names, nil
}

func (r *GitRepository) Ahead() (int, error) {
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return 0, nil
		}
		return 0, faults.New(faults.PushError, "failed to resolve local head", err)
	}
	if !head.Name().IsBranch() {
		return 0, nil
	}

	remoteHash := plumbing.ZeroHash
	remoteRefName := plumbing.NewRemoteReferenceName(gogit.DefaultRemoteName, head.Name().Short())
	remoteRef, err := r.repo.Reference(remoteRefName, true)
	if err == nil {
		remoteHash = remoteRef.Hash()
	} else if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return 0, faults.New(faults.PushError, "failed to resolve remote tracking branch", err)
	}

	return r.countAhead(head.Hash(), remoteHash)
}

const (
	markLocal  = 1 << 0
	markRemote = 1 << 1
)

// countAhead marks the commit graphs below both heads and counts the hashes
// reachable only from the local one.
func (r *GitRepository) countAhead(localHash, remoteHash plumbing.Hash) (int, error) {
	marks := make(map[plumbing.Hash]uint8)
	if err := r.markGraph(localHash, markLocal, marks); err != nil {
		return 0, err
	}
	if err := r.markGraph(remoteHash, markRemote, marks); err != nil {
		return 0, err
	}

	ahead := 0
	for _, mark := range marks {
		if mark == markLocal {
			ahead++
		}
	}
	return ahead, nil
}

func (r *GitRepository) markGraph(start plumbing.Hash, mark uint8, marks map[plumbing.Hash]uint8) error {
	if start == plumbing.ZeroHash {
		return nil
	}

	stack := []plumbing.Hash{start}
	for len(stack) > 0 {
		last := len(stack) - 1
		hash := stack[last]
		stack = stack[:last]

		current := marks[hash]
		if current&mark != 0 {
			continue
		}

		commit, err := r.repo.CommitObject(hash)
		if err != nil {
			return faults.New(faults.PushError, "failed to load commit while counting unpushed changes", err)
		}
		marks[hash] = current | mark
		stack = append(stack, commit.ParentHashes...)
	}
	return nil
}

func (r *GitRepository) worktreeStatus() (gogit.Status, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, faults.New(faults.RepositoryError, "failed to open git worktree", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, faults.New(faults.RepositoryError, "failed to inspect git worktree status", err)
	}
	return status, nil
}

func (r *GitRepository) commitSignature() object.Signature {
	name := "autosync"
	email := "autosync@localhost"
	if cfg, err := r.repo.Config(); err == nil {
		if strings.TrimSpace(cfg.User.Name) != "" {
			name = cfg.User.Name
		}
		if strings.TrimSpace(cfg.User.Email) != "" {
			email = cfg.User.Email
		}
	}
	return object.Signature{
		Name:  name,
		Email: email,
		When:  time.Now(),
	}
}

func isInternalPath(path string) bool {
	_, ok := internalFiles[path]
	return ok
}

func classifyPullError(err error) error {
	switch {
	case errors.Is(err, gogit.ErrNonFastForwardUpdate),
		errors.Is(err, gogit.ErrUnstagedChanges),
		containsAny(err, "conflict"):
		return faults.New(faults.MergeConflictError, "automatic merge cannot complete", err)
	case errors.Is(err, gogit.ErrRemoteNotFound),
		errors.Is(err, transport.ErrRepositoryNotFound):
		return faults.New(faults.PullError, "repository has no usable remote", err)
	case errors.Is(err, transport.ErrAuthenticationRequired),
		containsAny(err, "authentication", "permission denied", "authorization"):
		return faults.New(faults.PullError, "remote rejected credentials", err)
	default:
		return faults.New(faults.PullError, "failed to pull from remote", err)
	}
}

func classifyPushError(err error) error {
	switch {
	case errors.Is(err, gogit.ErrNonFastForwardUpdate),
		containsAny(err, "non-fast-forward", "fetch first", "rejected"):
		return faults.New(faults.PushRejectedError, "remote rejected push as non-fast-forward", err)
	case errors.Is(err, transport.ErrAuthenticationRequired),
		containsAny(err, "authentication", "permission denied", "authorization"):
		return faults.New(faults.PushError, "remote rejected credentials", err)
	default:
		return faults.New(faults.PushError, "failed to push to remote", err)
	}
}

func containsAny(err error, needles ...string) bool {
	lower := strings.ToLower(err.Error())
	for _, needle := range needles {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}
