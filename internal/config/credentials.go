package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

// fallbackAPIKeyEnv is checked when the configured variable is unset
const fallbackAPIKeyEnv = "API_KEY"

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// CredentialSource names where the API key was found
type CredentialSource string

const (
	SourceEnv     CredentialSource = "env"
	SourceKeyring CredentialSource = "keyring"
	SourceNone    CredentialSource = "none"
)

// ResolveAPIKey reads the external-service credential once: the configured
// env var, then API_KEY, then the OS keyring
func (c *TranscriptionConfig) ResolveAPIKey() (string, CredentialSource, error) {
	for _, name := range []string{c.APIKeyEnv, fallbackAPIKeyEnv} {
		if name == "" {
			continue
		}
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, SourceEnv, nil
		}
	}

	if c.KeyringService == "" {
		return "", SourceNone, nil
	}

	username := c.KeyringUser
	if username == "" {
		username = systemUser()
	}

	secret, err := keyring.Get(c.KeyringService, username)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", SourceNone, nil
		}
		return "", SourceNone, fmt.Errorf("failed to read API key from keyring: %w", err)
	}
	return strings.TrimSpace(secret), SourceKeyring, nil
}

func systemUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
