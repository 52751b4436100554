package config

import (
	"fmt"

	"github.com/zalando/go-keyring"

	"tastymetrics/pkg/errors"
	"tastymetrics/pkg/models"
)

const keyringService = "tastymetrics"

// StorePassword saves a profile password in the OS keychain. When no
// keychain is available the password is encrypted into the config value
// instead, so the profile still works on headless machines.
func StorePassword(profile *models.Profile, password string) error {
	err := keyring.Set(keyringService, profile.Name, password)
	if err == nil {
		profile.Password = ""
		return nil
	}

	encrypted, encErr := EncryptPassword(password)
	if encErr != nil {
		return fmt.Errorf("keychain unavailable (%v) and encryption failed: %w", err, encErr)
	}
	profile.Password = encrypted
	return nil
}

// ResolvePassword returns the plaintext password for a profile, preferring
// the OS keychain over the config file value.
func ResolvePassword(profile models.Profile) (string, error) {
	if secret, err := keyring.Get(keyringService, profile.Name); err == nil {
		return secret, nil
	}

	if profile.Password != "" {
		return DecryptPassword(profile.Password)
	}

	return "", errors.New(errors.ErrCodeSecretNotFound,
		fmt.Sprintf("no password stored for profile %q", profile.Name)).
		WithSuggestions("Run 'tastymetrics setup' to store credentials")
}

// DeletePassword removes a profile's keychain entry, ignoring missing keys.
func DeletePassword(profileName string) error {
	err := keyring.Delete(keyringService, profileName)
	if err == keyring.ErrNotFound {
		return nil
	}
	return err
}
