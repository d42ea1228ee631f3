package cmd

import (
	"github.com/crmarques/autosync/config"
	"github.com/spf13/cobra"
)

func newEnableCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "enable",
		GroupID: groupUserFacing,
		Short:   "Turn automatic synchronization on",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return persistEnabled(cmd, func(bool) bool { return true })
		},
	}
}

func newDisableCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "disable",
		GroupID: groupUserFacing,
		Short:   "Turn automatic synchronization off",
		Long: `Disable stops the open and save hooks from triggering any git activity.
Explicit "pull" and "push" invocations keep working.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return persistEnabled(cmd, func(bool) bool { return false })
		},
	}
}

func newToggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "toggle",
		GroupID: groupUserFacing,
		Short:   "Flip automatic synchronization on or off",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return persistEnabled(cmd, func(current bool) bool { return !current })
		},
	}
}

// persistEnabled applies the transition to the stored configuration so the
// state survives across editor sessions and daemon restarts.
func persistEnabled(cmd *cobra.Command, transition func(bool) bool) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	next := transition(cfg.IsEnabled())
	cfg.SetEnabled(next)
	if err := config.Save(path, cfg); err != nil {
		return err
	}

	if next {
		successf(cmd, "autosync enabled")
	} else {
		successf(cmd, "autosync disabled")
	}
	return nil
}
