// Package keystore persists the realtime API key between runs.
package keystore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const keyFile = "api_key"

// Path returns the location of the persisted key file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("keystore: resolve home: %w", err)
	}
	return filepath.Join(home, ".voice-console", keyFile), nil
}

// Load returns the persisted API key, or "" when none is stored.
func Load() (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("keystore: read %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save persists the API key with owner-only permissions.
func Save(key string) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("keystore: create dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(key+"\n"), 0600); err != nil {
		return fmt.Errorf("keystore: write %s: %w", path, err)
	}
	return nil
}

// Clear removes the persisted key. Missing file is not an error.
func Clear() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("keystore: remove %s: %w", path, err)
	}
	return nil
}
