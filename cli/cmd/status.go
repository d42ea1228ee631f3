package cmd

import (
	"fmt"
	"time"

	"github.com/crmarques/autosync/gitrepo"
	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		GroupID: groupUserFacing,
		Short:   "Show the synchronization state of every managed directory",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			infof(cmd, "Config:        %s", path)
			infof(cmd, "Enabled:       %s", yesNo(cfg.IsEnabled()))
			infof(cmd, "Pull interval: %s", time.Duration(cfg.PullIntervalSeconds)*time.Second)
			infof(cmd, "Auto-commit:   %s", yesNo(cfg.AutoCommitBeforePull))

			if len(cfg.Directories) == 0 {
				infof(cmd, "Directories:   none (run \"autosync setup\")")
				return nil
			}

			auth, err := gitrepo.AuthMethod(cfg.Auth)
			if err != nil {
				return err
			}

			infof(cmd, "Directories:")
			for _, dir := range cfg.Directories {
				infof(cmd, "  %s (%s)", dir, describeRepository(dir, auth))
			}
			return nil
		},
	}
}

func describeRepository(dir string, auth gitrepo.TransportAuth) string {
	repo, err := gitrepo.Open(dir, auth)
	if err != nil {
		return fmt.Sprintf("unavailable: %v", err)
	}

	dirty, err := repo.IsDirty()
	if err != nil {
		return fmt.Sprintf("status unreadable: %v", err)
	}
	if dirty {
		return "local changes pending"
	}
	return "clean"
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
