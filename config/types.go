package config

const (
	// ConfigFileEnvVar overrides the on-disk configuration location.
	ConfigFileEnvVar = "AUTOSYNC_CONFIG"
	// DefaultConfigPath is consulted when the env var is unset.
	DefaultConfigPath = "~/.autosync/config.yaml"

	// DefaultPullIntervalSeconds is the minimum time between automatic pulls.
	DefaultPullIntervalSeconds = 60
	// DefaultCommitMessageTemplate must contain exactly one %s, replaced by
	// the saved file's path relative to the repository root.
	DefaultCommitMessageTemplate = "Auto-sync: Updated %s"
)

// Config is the immutable-for-a-session settings set. It is read once per
// operation; nothing owns it beyond the process-wide object built by Load.
type Config struct {
	Directories           []string `yaml:"directories"`
	PullIntervalSeconds   int      `yaml:"pull-interval-seconds"`
	AutoCommitBeforePull  bool     `yaml:"auto-commit-before-pull"`
	CommitMessageTemplate string   `yaml:"commit-message-template,omitempty"`
	Silent                bool     `yaml:"silent,omitempty"`
	Debug                 bool     `yaml:"debug,omitempty"`

	// Enabled persists the enable/disable/toggle state across invocations.
	// Absent means enabled.
	Enabled *bool `yaml:"enabled,omitempty"`

	// MetricsListen, when set, exposes /metrics on that address in run mode.
	MetricsListen string `yaml:"metrics-listen,omitempty"`

	// Auth applies to every managed remote. Absent means whatever the
	// ambient git transport provides (ssh-agent, credential helpers).
	Auth *GitAuth `yaml:"auth,omitempty"`
}

type GitAuth struct {
	BasicAuth *BasicAuth     `yaml:"basic-auth,omitempty"`
	SSH       *SSHAuth       `yaml:"ssh,omitempty"`
	AccessKey *AccessKeyAuth `yaml:"access-key,omitempty"`
}

type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type SSHAuth struct {
	User                  string `yaml:"user,omitempty"`
	PrivateKeyFile        string `yaml:"private-key-file"`
	Passphrase            string `yaml:"passphrase,omitempty"`
	KnownHostsFile        string `yaml:"known-hosts-file,omitempty"`
	InsecureIgnoreHostKey bool   `yaml:"insecure-ignore-host-key,omitempty"`
}

type AccessKeyAuth struct {
	Token string `yaml:"token"`
}

func (c *Config) IsEnabled() bool {
	if c == nil {
		return false
	}
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

func (c *Config) SetEnabled(enabled bool) {
	c.Enabled = &enabled
}

func (c *Config) Template() string {
	if c == nil || c.CommitMessageTemplate == "" {
		return DefaultCommitMessageTemplate
	}
	return c.CommitMessageTemplate
}
