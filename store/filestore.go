package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// FileStore persists each resource as a pretty-printed JSON file inside a
// single directory. Writes are atomic (tmp file + rename), matching how the
// rest of the application persists state.
type FileStore struct {
	fs  afero.Fs
	dir string
}

// NewFileStore creates the backing directory if needed.
func NewFileStore(fs afero.Fs, dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage directory not provided")
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create resource dir: %w", err)
	}
	return &FileStore{fs: fs, dir: dir}, nil
}

func (s *FileStore) Get(ctx context.Context, resource string) (json.RawMessage, error) {
	path, err := s.path(resource)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read resource %s: %w", resource, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return json.RawMessage(data), nil
}

func (s *FileStore) Put(ctx context.Context, resource string, doc any) error {
	path, err := s.path(resource)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode resource %s: %w", resource, err)
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write resource %s: %w", resource, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace resource %s: %w", resource, err)
	}
	return nil
}

func (s *FileStore) path(resource string) (string, error) {
	resource = strings.TrimSpace(resource)
	if resource == "" || strings.ContainsAny(resource, `/\`) || resource != filepath.Base(resource) {
		return "", fmt.Errorf("%w: %q", ErrBadResourceName, resource)
	}
	return filepath.Join(s.dir, resource+".json"), nil
}
