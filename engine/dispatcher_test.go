package engine

import (
	"sync"
	"testing"
	"time"
)

type recordingNotifier struct {
	mu    sync.Mutex
	lines []string
}

func (n *recordingNotifier) Notify(text string, severity Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lines = append(n.lines, string(severity)+": "+text)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.lines...)
}

type recordingReloader struct {
	mu    sync.Mutex
	calls int
}

func (r *recordingReloader) RequestReload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
}

func (r *recordingReloader) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// manualTimer captures one-shot callbacks so tests fire them by hand.
type manualTimer struct {
	mu      sync.Mutex
	pending []func()
}

func (m *manualTimer) schedule(_ time.Duration, callback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, callback)
}

func (m *manualTimer) fire() int {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, callback := range pending {
		callback()
	}
	return len(pending)
}

func TestTickRendersMessagesInOrder(t *testing.T) {
	t.Parallel()

	channel := NewMessageChannel()
	notifier := &recordingNotifier{}
	dispatcher := NewDispatcher(channel, notifier, nil, DispatcherOptions{})

	channel.Publish(InfoMessage("pulled"))
	channel.Publish(ErrorMessage("push failed"))
	dispatcher.Tick()

	lines := notifier.all()
	if len(lines) != 2 || lines[0] != "info: pulled" || lines[1] != "error: push failed" {
		t.Fatalf("unexpected rendering %v", lines)
	}
}

func TestSilentSuppressesInfoButNeverErrors(t *testing.T) {
	t.Parallel()

	channel := NewMessageChannel()
	notifier := &recordingNotifier{}
	dispatcher := NewDispatcher(channel, notifier, nil, DispatcherOptions{Silent: true})

	channel.Publish(InfoMessage("pulled"))
	channel.Publish(ErrorMessage("pull failed"))
	dispatcher.Tick()

	lines := notifier.all()
	if len(lines) != 1 || lines[0] != "error: pull failed" {
		t.Fatalf("silent mode must keep errors only, got %v", lines)
	}
}

func TestReloadControlArmsOneShot(t *testing.T) {
	t.Parallel()

	channel := NewMessageChannel()
	reloader := &recordingReloader{}
	timer := &manualTimer{}
	dispatcher := NewDispatcher(channel, &recordingNotifier{}, reloader, DispatcherOptions{
		Schedule: timer.schedule,
	})

	// Several reload messages in one drain arm a single follow-up.
	channel.Publish(ReloadMessage())
	channel.Publish(ReloadMessage())
	dispatcher.Tick()

	if fired := timer.fire(); fired != 1 {
		t.Fatalf("expected a single armed follow-up, got %d", fired)
	}
	if reloader.count() != 1 {
		t.Fatalf("expected one reload request, got %d", reloader.count())
	}

	// After firing, a new reload message arms again.
	channel.Publish(ReloadMessage())
	dispatcher.Tick()
	if fired := timer.fire(); fired != 1 {
		t.Fatalf("expected re-arming after the one-shot fired, got %d", fired)
	}
	if reloader.count() != 2 {
		t.Fatalf("expected two reload requests, got %d", reloader.count())
	}
}
