package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/crmarques/autosync/config"
	"github.com/spf13/cobra"
)

func newSetupCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "setup",
		GroupID: groupUserFacing,
		Short:   "Interactively configure the directories to keep in sync",
		Long: `Setup walks through the main settings and writes the configuration file.
Existing values are offered as defaults, so rerunning it edits in place.
Credentials and less common settings are edited directly in the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if err := runSetupForm(cmd, cfg); err != nil {
				return err
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}

			successf(cmd, "configuration written to %s", path)
			return nil
		},
	}
}

func runSetupForm(cmd *cobra.Command, cfg *config.Config) error {
	directories := strings.Join(cfg.Directories, ", ")
	interval := strconv.Itoa(cfg.PullIntervalSeconds)
	template := cfg.Template()
	autoCommit := cfg.AutoCommitBeforePull
	silent := cfg.Silent

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Directories to keep in sync (comma separated)").
			Prompt("> ").
			Value(&directories).
			Validate(func(input string) error {
				if len(splitDirectories(input)) == 0 {
					return errors.New("at least one directory is required")
				}
				return nil
			}),
		huh.NewInput().
			Title("Minimum seconds between automatic pulls").
			Prompt("> ").
			Value(&interval).
			Validate(func(input string) error {
				parsed, err := strconv.Atoi(strings.TrimSpace(input))
				if err != nil {
					return errors.New("enter a whole number of seconds")
				}
				if parsed < 0 {
					return errors.New("the interval cannot be negative")
				}
				return nil
			}),
		huh.NewInput().
			Title(fmt.Sprintf("Commit message template (%%s becomes the file path, default %q)", config.DefaultCommitMessageTemplate)).
			Prompt("> ").
			Value(&template).
			Validate(func(input string) error {
				if strings.TrimSpace(input) == "" {
					return nil
				}
				return config.ValidateTemplate(input)
			}),
		huh.NewConfirm().
			Title("Auto-commit local changes before pulling?").
			Value(&autoCommit),
		huh.NewConfirm().
			Title("Suppress informational sync messages?").
			Value(&silent),
	)).
		WithShowHelp(false).
		WithInput(cmd.InOrStdin()).
		WithOutput(cmd.OutOrStdout())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Directories = splitDirectories(directories)
	cfg.PullIntervalSeconds, _ = strconv.Atoi(strings.TrimSpace(interval))
	cfg.AutoCommitBeforePull = autoCommit
	cfg.Silent = silent

	template = strings.TrimSpace(template)
	if template == config.DefaultCommitMessageTemplate {
		template = ""
	}
	cfg.CommitMessageTemplate = template

	return nil
}

func splitDirectories(raw string) []string {
	var dirs []string
	for _, piece := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(piece); trimmed != "" {
			dirs = append(dirs, trimmed)
		}
	}
	return dirs
}
