package gitrepo

import (
	"errors"
	"strings"

	"github.com/crmarques/autosync/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/crypto/ssh"
)

// TransportAuth aliases go-git's transport auth so callers outside this
// package never import go-git directly.
type TransportAuth = transport.AuthMethod

// AuthMethod maps the configured credentials onto a go-git transport auth
// method. A nil config means the ambient transport defaults (ssh-agent,
// credential helpers) apply.
func AuthMethod(cfg *config.GitAuth) (TransportAuth, error) {
	if cfg == nil {
		return nil, nil
	}

	count := 0
	if cfg.BasicAuth != nil {
		count++
	}
	if cfg.SSH != nil {
		count++
	}
	if cfg.AccessKey != nil {
		count++
	}
	if count > 1 {
		return nil, errors.New("multiple git auth methods configured")
	}

	switch {
	case cfg.BasicAuth != nil:
		username := strings.TrimSpace(cfg.BasicAuth.Username)
		if username == "" {
			return nil, errors.New("git basic auth requires username")
		}
		return &githttp.BasicAuth{
			Username: username,
			Password: cfg.BasicAuth.Password,
		}, nil

	case cfg.AccessKey != nil:
		token := strings.TrimSpace(cfg.AccessKey.Token)
		if token == "" {
			return nil, errors.New("git access key token is required")
		}
		return &githttp.BasicAuth{
			Username: "x-access-token",
			Password: token,
		}, nil

	case cfg.SSH != nil:
		return sshAuth(cfg.SSH)

	default:
		return nil, nil
	}
}

func sshAuth(cfg *config.SSHAuth) (transport.AuthMethod, error) {
	keyFile := strings.TrimSpace(cfg.PrivateKeyFile)
	if keyFile == "" {
		return nil, errors.New("git ssh auth requires private-key-file")
	}

	username := strings.TrimSpace(cfg.User)
	if username == "" {
		username = "git"
	}

	keys, err := gitssh.NewPublicKeysFromFile(username, keyFile, cfg.Passphrase)
	if err != nil {
		return nil, err
	}

	if cfg.InsecureIgnoreHostKey {
		keys.HostKeyCallback = ssh.InsecureIgnoreHostKey()
	} else if knownHosts := strings.TrimSpace(cfg.KnownHostsFile); knownHosts != "" {
		callback, err := gitssh.NewKnownHostsCallback(knownHosts)
		if err != nil {
			return nil, err
		}
		keys.HostKeyCallback = callback
	}

	return keys, nil
}
