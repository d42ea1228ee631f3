// Package gitrepo wraps one repository working directory behind a small
// capability interface so the sync engine can be exercised against fakes.
package gitrepo

import "context"

// Repository is the capability surface the sync engine needs from a version
// control backend. Methods touch the filesystem and possibly the network;
// the engine's operation registry guarantees no two background tasks call
// into the same handle concurrently.
type Repository interface {
	// Root returns the working tree root the handle was opened for.
	Root() string

	// IsDirty reports whether the working tree has uncommitted changes.
	IsDirty() (bool, error)

	// CommitAll stages all changes and commits them with message. It returns
	// false with a nil error when there was nothing to commit.
	CommitAll(message string) (bool, error)

	// Pull fetches and integrates changes from the tracked remote.
	Pull(ctx context.Context) error

	// Push sends local commits to the tracked remote.
	Push(ctx context.Context) error

	// Ahead returns how many local commits the current branch carries that
	// its remote tracking branch does not. It never talks to the network.
	Ahead() (int, error)
}
