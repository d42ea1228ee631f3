package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/crmarques/autosync/config"
	"github.com/crmarques/autosync/debugctx"
	"github.com/crmarques/autosync/engine"
	"github.com/crmarques/autosync/gitrepo"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"
)

type handledError struct {
	msg string
}

func (handledError) handledMarker() {}

func (e handledError) Error() string {
	return e.msg
}

type handled interface {
	handledMarker()
}

func IsHandledError(err error) bool {
	if err == nil {
		return false
	}
	var h handled
	return errors.As(err, &h)
}

func usageError(cmd *cobra.Command, message string) error {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = "invalid command usage"
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())

	return handledError{msg: msg}
}

func successf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "[OK] "+format+"\n", args...)
}

func infof(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

// loadConfig resolves the configuration path (flag, env, default) and loads
// it. A missing file is not an error; defaults apply.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path := strings.TrimSpace(configPathFlag)
	if path == "" {
		resolved, err := config.Path()
		if err != nil {
			return nil, "", err
		}
		path = resolved
	} else {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return nil, "", err
		}
		path = expanded
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}

	debugctx.Printf(cmd.Context(), cmd.ErrOrStderr(), "loaded configuration from %s (%d directories)", path, len(cfg.Directories))
	return cfg, path, nil
}

// buildEngine assembles the sync engine from the loaded configuration:
// transport auth, the per-root repository cache, and debug logging.
func buildEngine(cmd *cobra.Command, cfg *config.Config, opts engine.Options) (*engine.Engine, error) {
	auth, err := gitrepo.AuthMethod(cfg.Auth)
	if err != nil {
		return nil, err
	}

	cache := gitrepo.NewCache(func(dir string) (gitrepo.Repository, error) {
		return gitrepo.Open(dir, auth)
	})

	if opts.Logger.GetSink() == nil {
		opts.Logger = newLogger(cmd.ErrOrStderr(), debugFlag || cfg.Debug)
	}

	return engine.New(cfg, cache, opts), nil
}

func newLogger(out io.Writer, debug bool) logr.Logger {
	if !debug {
		return logr.Discard()
	}
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(out, "debug: %s: %s\n", prefix, args)
			return
		}
		fmt.Fprintf(out, "debug: %s\n", args)
	}, funcr.Options{Verbosity: 1})
}

// consoleNotifier renders engine messages for terminal use: info lines on
// stdout, error lines on stderr. It remembers whether any error was seen so
// commands can set the exit status.
type consoleNotifier struct {
	out io.Writer
	err io.Writer

	mu       sync.Mutex
	failures int
}

func newConsoleNotifier(cmd *cobra.Command) *consoleNotifier {
	return &consoleNotifier{
		out: cmd.OutOrStdout(),
		err: cmd.ErrOrStderr(),
	}
}

func (n *consoleNotifier) Notify(text string, severity engine.Severity) {
	if severity == engine.SeverityError {
		n.mu.Lock()
		n.failures++
		n.mu.Unlock()
		fmt.Fprintln(n.err, text)
		return
	}
	fmt.Fprintln(n.out, text)
}

func (n *consoleNotifier) sawFailure() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.failures > 0
}

// renderOutcome waits for the engine's background work, prints every queued
// message, and turns error messages into a non-zero exit.
func renderOutcome(cmd *cobra.Command, eng *engine.Engine, silent bool) error {
	eng.Wait()

	notifier := newConsoleNotifier(cmd)
	dispatcher := engine.NewDispatcher(eng.Messages(), notifier, nil, engine.DispatcherOptions{Silent: silent})
	dispatcher.Tick()

	if notifier.sawFailure() {
		return handledError{msg: "synchronization reported errors"}
	}
	return nil
}

func targetFromArgs(args []string) string {
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return args[0]
	}
	return "."
}
