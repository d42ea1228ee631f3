package engine

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultTickInterval = 500 * time.Millisecond
	DefaultReloadDelay  = 100 * time.Millisecond
)

// Notifier renders one short status line. Implementations run on the
// interactive side only.
type Notifier interface {
	Notify(text string, severity Severity)
}

// Reloader asks the interactive side to check whether the currently open
// file changed on disk and reload it if unmodified locally.
type Reloader interface {
	RequestReload()
}

// Dispatcher drains the message channel on a fixed tick. It is the only path
// by which background results reach the user; background code never touches
// foreground state directly.
type Dispatcher struct {
	channel     *MessageChannel
	notifier    Notifier
	reloader    Reloader
	silent      bool
	tick        time.Duration
	reloadDelay time.Duration
	schedule    func(time.Duration, func())

	mu    sync.Mutex
	armed bool
}

type DispatcherOptions struct {
	// Silent suppresses info messages. Errors are always rendered.
	Silent       bool
	TickInterval time.Duration
	ReloadDelay  time.Duration
	// Schedule overrides the one-shot timer, for tests.
	Schedule func(time.Duration, func())
}

func NewDispatcher(channel *MessageChannel, notifier Notifier, reloader Reloader, opts DispatcherOptions) *Dispatcher {
	dispatcher := &Dispatcher{
		channel:     channel,
		notifier:    notifier,
		reloader:    reloader,
		silent:      opts.Silent,
		tick:        opts.TickInterval,
		reloadDelay: opts.ReloadDelay,
		schedule:    opts.Schedule,
	}
	if dispatcher.tick <= 0 {
		dispatcher.tick = DefaultTickInterval
	}
	if dispatcher.reloadDelay <= 0 {
		dispatcher.reloadDelay = DefaultReloadDelay
	}
	if dispatcher.schedule == nil {
		dispatcher.schedule = func(delay time.Duration, callback func()) {
			time.AfterFunc(delay, callback)
		}
	}
	return dispatcher
}

// Run ticks until ctx is cancelled, then drains one final time so nothing
// queued at shutdown is lost.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.Tick()
			return ctx.Err()
		case <-ticker.C:
			d.Tick()
		}
	}
}

// Tick drains all currently queued messages without blocking.
func (d *Dispatcher) Tick() {
	for _, message := range d.channel.Drain() {
		if message.Reload {
			d.armReload()
			continue
		}
		if d.silent && message.Severity != SeverityError {
			continue
		}
		if d.notifier != nil {
			d.notifier.Notify(message.Text, message.Severity)
		}
	}
}

// armReload arms a one-shot follow-up. A reload already pending absorbs
// further reload messages until it fires.
func (d *Dispatcher) armReload() {
	d.mu.Lock()
	if d.armed {
		d.mu.Unlock()
		return
	}
	d.armed = true
	d.mu.Unlock()

	d.schedule(d.reloadDelay, func() {
		d.mu.Lock()
		d.armed = false
		d.mu.Unlock()

		if d.reloader != nil {
			d.reloader.RequestReload()
		}
	})
}
