package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go-todo-client/internal/model"
)

const credentialFileName = "credential.json"

// FileCredentialStore keeps the credential in a JSON file so it survives
// across invocations of the CLI. The file is owner-only (0600).
type FileCredentialStore struct {
	path string
	mu   sync.Mutex
}

func NewFileCredentialStore(path string) (*FileCredentialStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("credential file path is required")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve credential file path: %w", err)
	}

	return &FileCredentialStore{path: abs}, nil
}

// DefaultCredentialPath returns $XDG_CONFIG_HOME/todo/credential.json, falling
// back to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultCredentialPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "todo-"+credentialFileName)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "todo", credentialFileName)
}

func (s *FileCredentialStore) Path() string {
	return s.path
}

func (s *FileCredentialStore) Set(credential model.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !credential.Present() {
		return s.clearLocked()
	}

	data, err := json.MarshalIndent(credential, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credential directory %s: %w", dir, err)
	}

	// Write-then-rename so a crash never leaves a half-written token behind.
	tmp, err := os.CreateTemp(dir, ".credential-*")
	if err != nil {
		return fmt.Errorf("create temp credential file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod credential file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credential file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace credential file %s: %w", s.path, err)
	}

	return nil
}

func (s *FileCredentialStore) Get() (model.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("read credential file", "path", s.path, "error", err)
		}
		return model.Credential{}, false
	}

	var credential model.Credential
	if err := json.Unmarshal(data, &credential); err != nil {
		slog.Warn("credential file is corrupt; treating session as anonymous", "path", s.path, "error", err)
		return model.Credential{}, false
	}
	if !credential.Present() {
		return model.Credential{}, false
	}

	return credential, true
}

func (s *FileCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clearLocked()
}

func (s *FileCredentialStore) clearLocked() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credential file %s: %w", s.path, err)
	}
	return nil
}
