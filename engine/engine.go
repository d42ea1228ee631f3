// Package engine runs repository synchronization off the interactive thread:
// pull before a file is opened, commit+push after a file is saved. Workers
// report back exclusively through the MessageChannel; the registry and the
// timing store decide whether a worker runs at all.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crmarques/autosync/config"
	"github.com/crmarques/autosync/faults"
	"github.com/crmarques/autosync/gitrepo"
	"github.com/go-logr/logr"
)

// prePullCommitMessage labels the auto-commit that clears a dirty tree
// before pulling, when that policy is enabled.
const prePullCommitMessage = "Auto-sync: Local changes before pull"

type Options struct {
	// Now overrides the clock, for tests.
	Now func() time.Time
	// Logger receives verbose internal logging (debug mode).
	Logger logr.Logger
	// Metrics defaults to unregistered counters when nil.
	Metrics *Metrics
}

// Engine owns the per-repository sync state and launches one short-lived
// background task per triggered pull or push.
type Engine struct {
	cfg      *config.Config
	repos    *gitrepo.Cache
	timing   *PullTimingStore
	registry *OperationRegistry
	channel  *MessageChannel
	metrics  *Metrics
	log      logr.Logger
	now      func() time.Time

	enabled atomic.Bool
	wg      sync.WaitGroup
}

func New(cfg *config.Config, repos *gitrepo.Cache, opts Options) *Engine {
	engine := &Engine{
		cfg:      cfg,
		repos:    repos,
		timing:   NewPullTimingStore(),
		registry: NewOperationRegistry(),
		channel:  NewMessageChannel(),
		metrics:  opts.Metrics,
		log:      opts.Logger,
		now:      opts.Now,
	}
	if engine.metrics == nil {
		engine.metrics = NewMetrics(nil)
	}
	if engine.log.GetSink() == nil {
		engine.log = logr.Discard()
	}
	if engine.now == nil {
		engine.now = time.Now
	}
	engine.enabled.Store(cfg.IsEnabled())
	return engine
}

// Messages exposes the channel the foreground dispatcher drains.
func (e *Engine) Messages() *MessageChannel {
	return e.channel
}

func (e *Engine) Enabled() bool { return e.enabled.Load() }
func (e *Engine) Enable()       { e.enabled.Store(true) }
func (e *Engine) Disable()      { e.enabled.Store(false) }

func (e *Engine) Toggle() bool {
	for {
		current := e.enabled.Load()
		if e.enabled.CompareAndSwap(current, !current) {
			return !current
		}
	}
}

type Status struct {
	Enabled      bool
	Directories  []string
	PullInterval time.Duration
	InFlight     []OperationKey
}

func (e *Engine) Status() Status {
	return Status{
		Enabled:      e.Enabled(),
		Directories:  e.cfg.Directories,
		PullInterval: e.pullInterval(),
		InFlight:     e.registry.InFlight(),
	}
}

// Wait blocks until every launched background task has run to completion.
// There is no cancellation; started operations always finish or fail.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// RepositoryFor maps a file path onto its managed repository root. Files
// outside every configured directory return ok=false.
func (e *Engine) RepositoryFor(path string) (string, bool) {
	abs, err := config.ExpandPath(path)
	if err != nil || abs == "" {
		return "", false
	}

	best := ""
	for _, dir := range e.cfg.Directories {
		if abs != dir && !strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			continue
		}
		if len(dir) > len(best) {
			best = dir
		}
	}
	return best, best != ""
}

// OnFileOpen is the "file about to be opened" hook: it may start a pull for
// the file's repository, gated by the interval and the dirty-tree policy.
func (e *Engine) OnFileOpen(path string) {
	if !e.Enabled() {
		return
	}
	dir, ok := e.RepositoryFor(path)
	if !ok {
		return
	}
	e.startPull(dir, false)
}

// OnFileSave is the "file just saved" hook: it starts a commit+push for the
// saved file, independent of the pull interval.
func (e *Engine) OnFileSave(path string) {
	if !e.Enabled() {
		return
	}
	dir, ok := e.RepositoryFor(path)
	if !ok {
		return
	}
	e.startPush(dir, path)
}

// PullNow forces a pull for path's repository, bypassing the interval check
// but not the dirty-tree policy. It works even while the hooks are disabled.
func (e *Engine) PullNow(path string) bool {
	dir, ok := e.RepositoryFor(path)
	if !ok {
		e.channel.Publish(ErrorMessage(fmt.Sprintf("%s is not in a managed directory", path)))
		return false
	}
	e.startPull(dir, true)
	return true
}

// PushNow forces a commit+push for path.
func (e *Engine) PushNow(path string) bool {
	dir, ok := e.RepositoryFor(path)
	if !ok {
		e.channel.Publish(ErrorMessage(fmt.Sprintf("%s is not in a managed directory", path)))
		return false
	}
	e.startPush(dir, path)
	return true
}

// PullAllDue triggers the pull flow for every managed directory. Headless
// mode calls this periodically; the timing store keeps it cheap.
func (e *Engine) PullAllDue() {
	if !e.Enabled() {
		return
	}
	for _, dir := range e.cfg.Directories {
		e.startPull(dir, false)
	}
}

func (e *Engine) startPull(dir string, force bool) {
	e.wg.Add(1)
	go e.runPull(dir, force)
}

func (e *Engine) startPush(dir, path string) {
	e.wg.Add(1)
	go e.runPush(dir, path)
}

// runPull: CheckDue -> (Skip | AutoCommitIfDirty -> Pulling -> {Success,
// Conflict, Error}). Runs on a background goroutine; may block on disk and
// network for arbitrary duration.
func (e *Engine) runPull(dir string, force bool) {
	defer e.wg.Done()

	key := OperationKey{Kind: OpPull, Root: dir}
	if !e.registry.TryBegin(key) {
		e.log.V(1).Info("pull already in flight", "dir", dir)
		return
	}
	defer e.registry.End(key)

	if !force && !e.timing.ShouldPull(dir, e.pullInterval(), e.now()) {
		e.metrics.Skips.Inc()
		return
	}

	repo, err := e.repos.Open(dir)
	if err != nil {
		e.reportPullFailure(dir, err)
		return
	}

	dirty, err := repo.IsDirty()
	if err != nil {
		e.reportPullFailure(dir, err)
		return
	}
	if dirty {
		if !e.cfg.AutoCommitBeforePull {
			// Never pull into a dirty tree without permission.
			e.metrics.Skips.Inc()
			e.log.V(1).Info("skipping pull into dirty tree", "dir", dir)
			return
		}
		if _, err := repo.CommitAll(prePullCommitMessage); err != nil {
			e.reportPullFailure(dir, err)
			return
		}
	}

	if err := repo.Pull(context.Background()); err != nil {
		if faults.IsCategory(err, faults.MergeConflictError) {
			e.metrics.Conflicts.Inc()
		}
		// The timestamp stays unrecorded so the next trigger retries.
		e.reportPullFailure(dir, err)
		return
	}

	if err := e.timing.RecordPull(dir, e.now()); err != nil {
		e.log.Error(err, "failed to persist pull timestamp", "dir", dir)
	}
	e.metrics.Pulls.Inc()
	e.channel.Publish(InfoMessage(fmt.Sprintf("Pulled updates for %s", filepath.Base(dir))))
	e.channel.Publish(ReloadMessage())
}

// runPush: CheckScope -> Committing -> Pushing -> {Success, Error}. A clean
// tree still pushes when the branch is ahead of its remote tracking branch.
func (e *Engine) runPush(dir, path string) {
	defer e.wg.Done()

	key := OperationKey{Kind: OpPush, Root: dir}
	if !e.registry.TryBegin(key) {
		e.log.V(1).Info("push already in flight", "dir", dir)
		return
	}
	defer e.registry.End(key)

	rel, err := filepath.Rel(dir, path)
	if err != nil {
		e.reportPushFailure(dir, err)
		return
	}
	rel = filepath.ToSlash(rel)

	repo, err := e.repos.Open(dir)
	if err != nil {
		e.reportPushFailure(dir, err)
		return
	}

	committed, err := repo.CommitAll(fmt.Sprintf(e.cfg.Template(), rel))
	if err != nil {
		e.reportPushFailure(rel, err)
		return
	}
	if !committed {
		ahead, err := repo.Ahead()
		if err != nil {
			e.reportPushFailure(rel, err)
			return
		}
		if ahead == 0 {
			e.metrics.Skips.Inc()
			e.log.V(1).Info("nothing to push", "dir", dir)
			return
		}
	}

	if err := repo.Push(context.Background()); err != nil {
		e.reportPushFailure(rel, err)
		return
	}

	e.metrics.Pushes.Inc()
	e.channel.Publish(InfoMessage(fmt.Sprintf("Auto-synced: %s", rel)))
}

func (e *Engine) pullInterval() time.Duration {
	return time.Duration(e.cfg.PullIntervalSeconds) * time.Second
}

func (e *Engine) reportPullFailure(dir string, err error) {
	e.log.V(1).Info("pull failed", "dir", dir, "error", err.Error())
	e.channel.Publish(ErrorMessage(fmt.Sprintf("Git pull failed for %s: %v", dir, err)))
}

// Push failures are always surfaced: unnoticed, they risk silent data loss.
func (e *Engine) reportPushFailure(target string, err error) {
	e.log.V(1).Info("push failed", "target", target, "error", err.Error())
	if faults.IsCategory(err, faults.PushRejectedError) {
		e.channel.Publish(ErrorMessage(fmt.Sprintf("Git push rejected for %s: %v", target, err)))
		return
	}
	e.channel.Publish(ErrorMessage(fmt.Sprintf("Git commit/push failed for %s: %v", target, err)))
}
