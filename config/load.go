package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Path resolves the configuration file location: the env override when set,
// the default location otherwise. The result is tilde-expanded.
func Path() (string, error) {
	if fromEnv := strings.TrimSpace(os.Getenv(ConfigFileEnvVar)); fromEnv != "" {
		return ExpandPath(fromEnv)
	}
	return ExpandPath(DefaultConfigPath)
}

// Load reads and normalizes the configuration at path. A missing file yields
// the defaults so first runs work before `autosync setup` was ever invoked.
func Load(path string) (*Config, error) {
	cfg := &Config{
		PullIntervalSeconds: DefaultPullIntervalSeconds,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save persists cfg with write-then-rename so a crash mid-write cannot leave
// a corrupt configuration behind.
func Save(path string, cfg *Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".autosync-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tempPath := tempFile.Name()

	_, writeErr := tempFile.Write(raw)
	closeErr := tempFile.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(tempPath)
		if writeErr != nil {
			return fmt.Errorf("write temp config: %w", writeErr)
		}
		return fmt.Errorf("close temp config: %w", closeErr)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replace config %s: %w", path, err)
	}
	return nil
}

func (c *Config) normalize() error {
	if c.PullIntervalSeconds < 0 {
		return fmt.Errorf("pull-interval-seconds must be >= 0, got %d", c.PullIntervalSeconds)
	}

	if err := ValidateTemplate(c.Template()); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(c.Directories))
	normalized := make([]string, 0, len(c.Directories))
	for _, dir := range c.Directories {
		expanded, err := ExpandPath(dir)
		if err != nil {
			return err
		}
		if expanded == "" {
			continue
		}
		if _, dup := seen[expanded]; dup {
			continue
		}
		seen[expanded] = struct{}{}
		normalized = append(normalized, expanded)
	}
	c.Directories = normalized
	return nil
}

// ValidateTemplate enforces the one-path-placeholder contract of the commit
// message template.
func ValidateTemplate(template string) error {
	cleaned := strings.ReplaceAll(template, "%%", "")
	if strings.Count(cleaned, "%s") != 1 {
		return fmt.Errorf("commit-message-template must contain exactly one %%s placeholder, got %q", template)
	}
	if strings.Count(cleaned, "%") != 1 {
		return fmt.Errorf("commit-message-template supports only the %%s placeholder, got %q", template)
	}
	return nil
}

// ExpandPath resolves a leading tilde against the current user's home
// directory and returns an absolute, cleaned path.
func ExpandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}
