package cmd

import (
	"os"

	"github.com/crmarques/autosync/debugctx"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	configPathFlag string
	debugFlag      bool
)

var rootCmd = newRootCommand()

const (
	groupUtility    = "utility"
	groupUserFacing = "user"
)

func Execute() error {
	return rootCmd.Execute()
}

func NewRootCommand() *cobra.Command {
	return newRootCommand()
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autosync",
		Short: "Keep git repositories of plain-text notes continuously synchronized",
		Long: `Autosync pulls and pushes a set of git repositories in the background so
files edited on several machines converge without manual git ceremony.

Editors call "pull" before opening a file and "push" after saving one; the
"run" command does the same standalone by watching the managed directories.`,
		Example: `  # Describe which directories to keep in sync
  autosync setup

  # Pull remote updates for the repository containing the current directory
  autosync pull

  # Commit and push a file that was just edited
  autosync push ~/wiki/notes/todo.md

  # Watch every managed directory and sync continuously
  autosync run`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetHelpCommandGroupID(groupUtility)
	cmd.SetCompletionCommandGroupID(groupUtility)

	bindRootFlags(cmd.PersistentFlags())

	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		if err == nil {
			return nil
		}
		return usageError(cmd, err.Error())
	})

	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cmd.SetContext(debugctx.WithEnabled(cmd.Context(), debugFlag))
	}

	cmd.AddGroup(&cobra.Group{ID: groupUserFacing, Title: "Commands:"})
	cmd.AddGroup(&cobra.Group{ID: groupUtility, Title: "Utility Commands:"})

	cmd.AddCommand(newPullCommand())
	cmd.AddCommand(newPushCommand())
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(newEnableCommand())
	cmd.AddCommand(newDisableCommand())
	cmd.AddCommand(newToggleCommand())
	cmd.AddCommand(newSetupCommand())
	cmd.AddCommand(newDiagnoseCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func bindRootFlags(flags *pflag.FlagSet) {
	flags.StringVar(&configPathFlag, "config", "", "Configuration file (default $AUTOSYNC_CONFIG or ~/.autosync/config.yaml)")
	flags.BoolVar(&debugFlag, "debug", false, "Print internal debug information")
}
