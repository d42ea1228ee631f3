package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crmarques/autosync/config"
	"github.com/spf13/cobra"
)

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestRootRegistersAllCommands(t *testing.T) {
	root := newRootCommand()

	expected := []string{
		"pull", "push", "run", "status",
		"enable", "disable", "toggle",
		"setup", "diagnose", "version",
	}
	for _, name := range expected {
		if findSubcommand(root, name) == nil {
			t.Errorf("command %q is not registered", name)
		}
	}
}

func findSubcommand(root *cobra.Command, name string) *cobra.Command {
	for _, sub := range root.Commands() {
		if sub.Name() == name {
			return sub
		}
	}
	return nil
}

func TestEnablePersistsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	seed := &config.Config{PullIntervalSeconds: 60}
	seed.SetEnabled(false)
	if err := config.Save(path, seed); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	if _, _, err := runCommand(t, "--config", path, "enable"); err != nil {
		t.Fatalf("enable: %v", err)
	}

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if !loaded.IsEnabled() {
		t.Fatal("enable must persist enabled=true")
	}
}

func TestTogglePersistsFlippedState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	// An absent config means enabled, so the first toggle lands on disabled.
	if _, _, err := runCommand(t, "--config", path, "toggle"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if loaded.IsEnabled() {
		t.Fatal("first toggle must persist enabled=false")
	}

	if _, _, err := runCommand(t, "--config", path, "toggle"); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	loaded, err = config.Load(path)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if !loaded.IsEnabled() {
		t.Fatal("second toggle must persist enabled=true")
	}
}

func TestStatusReportsUnavailableRepository(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := config.Save(path, &config.Config{
		Directories:         []string{dir},
		PullIntervalSeconds: 60,
	}); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	out, _, err := runCommand(t, "--config", path, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Enabled:       yes") {
		t.Fatalf("expected enabled line, got %q", out)
	}
	if !strings.Contains(out, dir) || !strings.Contains(out, "unavailable") {
		t.Fatalf("expected %s marked unavailable, got %q", dir, out)
	}
}

func TestDiagnoseFailsForMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := config.Save(path, &config.Config{
		Directories:         []string{filepath.Join(t.TempDir(), "gone")},
		PullIntervalSeconds: 60,
	}); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	out, _, err := runCommand(t, "--config", path, "diagnose")
	if err == nil || !IsHandledError(err) {
		t.Fatalf("expected handled error, got %v", err)
	}
	if !strings.Contains(out, "[FAILED]") {
		t.Fatalf("expected a failed check, got %q", out)
	}
}

func TestDiagnosePassesWithoutDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, _, err := runCommand(t, "--config", path, "diagnose")
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	if !strings.Contains(out, "[SKIPPED]") {
		t.Fatalf("expected the directory check to be skipped, got %q", out)
	}
}

func TestPullReportsUnmanagedPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	_, errOut, err := runCommand(t, "--config", path, "pull", t.TempDir())
	if err == nil || !IsHandledError(err) {
		t.Fatalf("expected handled error, got %v", err)
	}
	if !strings.Contains(errOut, "not in a managed directory") {
		t.Fatalf("expected unmanaged path message, got %q", errOut)
	}
}
