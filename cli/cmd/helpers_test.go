package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/crmarques/autosync/engine"
	"github.com/spf13/cobra"
)

func TestConsoleNotifierRoutesBySeverity(t *testing.T) {
	var out, errOut bytes.Buffer
	command := &cobra.Command{}
	command.SetOut(&out)
	command.SetErr(&errOut)

	notifier := newConsoleNotifier(command)
	notifier.Notify("Pulled updates for wiki", engine.SeverityInfo)
	notifier.Notify("Git push rejected for notes.md", engine.SeverityError)

	if got := out.String(); got != "Pulled updates for wiki\n" {
		t.Fatalf("unexpected stdout %q", got)
	}
	if got := errOut.String(); got != "Git push rejected for notes.md\n" {
		t.Fatalf("unexpected stderr %q", got)
	}
	if !notifier.sawFailure() {
		t.Fatal("an error message must count as a failure")
	}
}

func TestConsoleNotifierWithoutErrors(t *testing.T) {
	command := &cobra.Command{}
	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})

	notifier := newConsoleNotifier(command)
	notifier.Notify("Auto-synced: notes.md", engine.SeverityInfo)

	if notifier.sawFailure() {
		t.Fatal("info messages must not count as failures")
	}
}

func TestFormatVersionDefaults(t *testing.T) {
	got := formatVersion()
	if !strings.HasPrefix(got, "autosync dev (none, unknown)") {
		t.Fatalf("unexpected version string %q", got)
	}
}

func TestSplitDirectories(t *testing.T) {
	got := splitDirectories(" ~/wiki , , /srv/notes ")
	if len(got) != 2 || got[0] != "~/wiki" || got[1] != "/srv/notes" {
		t.Fatalf("unexpected split %v", got)
	}
}

func TestTargetFromArgs(t *testing.T) {
	if got := targetFromArgs(nil); got != "." {
		t.Fatalf("expected current directory default, got %q", got)
	}
	if got := targetFromArgs([]string{"~/wiki/todo.md"}); got != "~/wiki/todo.md" {
		t.Fatalf("unexpected target %q", got)
	}
}
