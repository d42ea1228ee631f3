package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/crmarques/autosync/config"
	"github.com/crmarques/autosync/engine"
	"github.com/crmarques/autosync/gitrepo"
	"github.com/go-logr/logr"
)

func TestIgnorePath(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path   string
		ignore bool
	}{
		{"/home/user/wiki/notes.md", false},
		{"/home/user/wiki/sub/notes.md", false},
		{"/home/user/wiki/.git/index", true},
		{"/home/user/wiki/.git/refs/heads/main", true},
		{"/home/user/wiki/.autosync-last-pull", true},
		{"/home/user/wiki/.last_pull_timestamp", true},
		{"/home/user/wiki/.autosync-tmp-123456", true},
		{"/home/user/wiki/.gitignore", false},
	}
	for _, tc := range cases {
		if got := ignorePath(tc.path); got != tc.ignore {
			t.Errorf("ignorePath(%q) = %v, want %v", tc.path, got, tc.ignore)
		}
	}
}

type pushCountingRepo struct {
	root string

	mu     sync.Mutex
	pushes int
}

func (r *pushCountingRepo) Root() string { return r.root }

func (r *pushCountingRepo) IsDirty() (bool, error) { return true, nil }

func (r *pushCountingRepo) CommitAll(string) (bool, error) { return true, nil }

func (r *pushCountingRepo) Pull(context.Context) error { return nil }

func (r *pushCountingRepo) Push(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes++
	return nil
}

func (r *pushCountingRepo) Ahead() (int, error) { return 0, nil }

func (r *pushCountingRepo) pushCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pushes
}

func TestWriteEventTriggersPush(t *testing.T) {
	dir := t.TempDir()
	repo := &pushCountingRepo{root: dir}
	cache := gitrepo.NewCache(func(string) (gitrepo.Repository, error) {
		return repo, nil
	})

	cfg := &config.Config{
		Directories:          []string{dir},
		PullIntervalSeconds:  3600,
		AutoCommitBeforePull: true,
	}
	eng := engine.New(cfg, cache, engine.Options{})

	watcher := New(eng, cfg.Directories, time.Hour, logr.Logger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = watcher.Run(ctx)
	}()

	// Give the watcher a moment to register the directory before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for repo.pushCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected a push after a write event")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	<-done
	eng.Wait()
}
