package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/crmarques/autosync/config"
	"github.com/crmarques/autosync/engine"
	"github.com/crmarques/autosync/gitrepo"
	"github.com/spf13/cobra"
)

type checkStatus string

const (
	checkStatusOK      checkStatus = "OK"
	checkStatusFailed  checkStatus = "FAILED"
	checkStatusSkipped checkStatus = "SKIPPED"
)

func newDiagnoseCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "diagnose",
		GroupID: groupUtility,
		Short:   "Check that the configuration and every managed repository are usable",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			healthy := true

			cfg, path, err := loadConfig(cmd)
			if !reportCheck(cmd, fmt.Sprintf("configuration %s", path), err) {
				return handledError{msg: "diagnose found problems"}
			}

			healthy = reportCheck(cmd, "commit message template", config.ValidateTemplate(cfg.Template())) && healthy

			auth, err := gitrepo.AuthMethod(cfg.Auth)
			healthy = reportCheck(cmd, "git credentials", err) && healthy

			if len(cfg.Directories) == 0 {
				reportCheckStatus(cmd, "managed directories (none configured)", checkStatusSkipped, nil)
			}
			for _, dir := range cfg.Directories {
				healthy = reportCheck(cmd, fmt.Sprintf("directory %s", dir), checkDirectory(dir, auth)) && healthy
				reportLastPull(cmd, dir)
			}

			if !healthy {
				return handledError{msg: "diagnose found problems"}
			}
			return nil
		},
	}
}

func checkDirectory(dir string, auth gitrepo.TransportAuth) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("not a directory")
	}

	repo, err := gitrepo.Open(dir, auth)
	if err != nil {
		return err
	}
	if _, err := repo.IsDirty(); err != nil {
		return err
	}

	remotes, err := repo.Remotes()
	if err != nil {
		return err
	}
	if len(remotes) == 0 {
		return errors.New("no git remote configured")
	}
	return nil
}

func reportLastPull(cmd *cobra.Command, dir string) {
	last, ok := engine.LastRecordedPull(dir)
	if !ok {
		reportCheckStatus(cmd, fmt.Sprintf("last pull for %s (never pulled)", dir), checkStatusSkipped, nil)
		return
	}
	reportCheckStatus(cmd, fmt.Sprintf("last pull for %s at %s", dir, last.Format(time.RFC3339)), checkStatusOK, nil)
}

func reportCheck(cmd *cobra.Command, label string, err error) bool {
	status := checkStatusOK
	if err != nil {
		status = checkStatusFailed
	}
	return reportCheckStatus(cmd, label, status, err)
}

func reportCheckStatus(cmd *cobra.Command, label string, status checkStatus, err error) bool {
	switch status {
	case checkStatusFailed:
		if err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "[FAILED] %s: %v\n", label, err)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "[FAILED] %s\n", label)
		}
		return false
	case checkStatusSkipped:
		fmt.Fprintf(cmd.OutOrStdout(), "[SKIPPED] %s\n", label)
		return true
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "[OK] %s\n", label)
		return true
	}
}
