package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore keeps the save slot in a single JSON file, overwritten
// wholesale on every save. This is the default backend.
type FileStore struct {
	path   string
	logger *slog.Logger
}

var _ SaveStore = (*FileStore)(nil)

func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}
}

func (f *FileStore) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read save file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return data, nil
}

func (f *FileStore) Save(_ context.Context, data []byte) error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create save directory: %w", err)
		}
	}
	if err := os.WriteFile(f.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write save file: %w", err)
	}
	f.logger.Debug("Save file written", "path", f.path, "bytes", len(data))
	return nil
}

func (f *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove save file: %w", err)
	}
	return nil
}
