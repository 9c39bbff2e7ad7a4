// Package secrets keeps account credentials in the OS keychain so the yaml
// config file never holds a password.
package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups the engine's secrets in the OS keychain.
	KeyringService = "autopilot"
)

// IdentityAccount is the keyring account name for one LinkedIn identity.
func IdentityAccount(index int, email string) string {
	return fmt.Sprintf("autopilot:linkedin:%d:%s", index, email)
}

// IMAPAccount is the keyring account name for the ingestion mailbox.
func IMAPAccount(username, host string) string {
	return fmt.Sprintf("autopilot:imap:%s@%s", username, host)
}

func Get(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", errors.New("keyring account name is empty")
	}
	pw, err := keyring.Get(KeyringService, account)
	if err != nil || strings.TrimSpace(pw) == "" {
		return "", errors.New("secret not found (set it in keychain via the API)")
	}
	return pw, nil
}

func Set(account string, secret string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(secret) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, account, secret)
}

func Delete(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}
