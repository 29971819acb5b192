package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FilePersister keeps the session in a single file readable only by the
// owner. Used by the CLI.
type FilePersister struct {
	path string
}

// NewFilePersister persists to path, creating parent directories on save.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Path returns the backing file.
func (p *FilePersister) Path() string {
	return p.path
}

func (p *FilePersister) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoSession
	}
	return data, nil
}

func (p *FilePersister) Save(_ context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return os.Rename(tmp, p.path)
}

func (p *FilePersister) Clear(_ context.Context) error {
	err := os.Remove(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
