// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/codenoteai/codenote/pkg/codenote"
)

// storedCookie is the persisted subset of a session cookie.
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Path  string `json:"path,omitempty"`
}

// sessionFilePath returns ~/.codenote/session.json.
func sessionFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".codenote", "session.json"), nil
}

// newClient builds an API client seeded with any persisted session cookies.
func newClient(apiURL string) (*codenote.Client, error) {
	client, err := codenote.New(apiURL)
	if err != nil {
		return nil, err
	}

	path, err := sessionFilePath()
	if err != nil {
		return client, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return client, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal(raw, &stored); err != nil {
		// A corrupt session file just means logging in again.
		return client, nil
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, cookie := range stored {
		cookies = append(cookies, &http.Cookie{
			Name:  cookie.Name,
			Value: cookie.Value,
			Path:  cookie.Path,
		})
	}
	client.SetCookies(cookies)
	return client, nil
}

// saveSession writes the client's current cookies to the session file.
func saveSession(client *codenote.Client) error {
	path, err := sessionFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	cookies := client.Cookies()
	stored := make([]storedCookie, 0, len(cookies))
	for _, cookie := range cookies {
		stored = append(stored, storedCookie{
			Name:  cookie.Name,
			Value: cookie.Value,
			Path:  cookie.Path,
		})
	}

	encoded, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	// Cookies grant account access; keep the file owner-only.
	return os.WriteFile(path, encoded, 0o600)
}

// clearSession removes the persisted session file.
func clearSession() error {
	path, err := sessionFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
