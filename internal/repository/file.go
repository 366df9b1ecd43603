package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileSessionRepository keeps session payloads in a single JSON file
// mapping storage keys to payloads. Writes replace the file atomically.
type FileSessionRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileSessionRepository(path string) *FileSessionRepository {
	return &FileSessionRepository{path: path}
}

func (r *FileSessionRepository) Load(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.read()
	if err != nil {
		return nil, err
	}
	payload, ok := entries[key]
	if !ok {
		return nil, nil
	}
	return payload, nil
}

func (r *FileSessionRepository) Save(_ context.Context, key string, payload []byte) error {
	if !json.Valid(payload) {
		return fmt.Errorf("session payload for %q is not valid JSON", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.read()
	if err != nil {
		// An unreadable file is replaced rather than blocking logins.
		entries = map[string]json.RawMessage{}
	}
	entries[key] = json.RawMessage(payload)
	return r.write(entries)
}

func (r *FileSessionRepository) Remove(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.read()
	if err != nil {
		// Nothing usable is stored; start over.
		return r.write(map[string]json.RawMessage{})
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return r.write(entries)
}

func (r *FileSessionRepository) read() (map[string]json.RawMessage, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, err
	}
	defer f.Close()

	entries := map[string]json.RawMessage{}
	if err := json.NewDecoder(f).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return entries, nil
}

func (r *FileSessionRepository) write(entries map[string]json.RawMessage) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(entries); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}
