package cmd

import (
	"github.com/crmarques/autosync/engine"
	"github.com/spf13/cobra"
)

func newPushCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "push [path]",
		GroupID: groupUserFacing,
		Short:   "Commit local changes and push the repository containing a path",
		Long: `Push stages and commits every local change in the managed repository that
contains the given path (the current directory when omitted), then pushes.
A clean tree still pushes when earlier commits were never delivered.`,
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

			eng.PushNow(targetFromArgs(args))
			return renderOutcome(cmd, eng, cfg.Silent)
		},
	}
	return cmd
}
