package cmd

import (
	"github.com/crmarques/autosync/engine"
	"github.com/spf13/cobra"
)

func newPullCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pull [path]",
		GroupID: groupUserFacing,
		Short:   "Pull remote updates for the repository containing a path",
		Long: `Pull fetches and merges remote changes for the managed repository that
contains the given path (the current directory when omitted). The pull
interval is bypassed; the dirty-tree policy is not: local changes either get
auto-committed first or, when auto-commit is off, block the pull.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			eng, err := buildEngine(cmd, cfg, engine.Options{})
			if err != nil {
				return err
			}

			eng.PullNow(targetFromArgs(args))
			return renderOutcome(cmd, eng, cfg.Silent)
		},
	}
	return cmd
}
