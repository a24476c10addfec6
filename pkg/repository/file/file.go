package file

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/plantops/pkg/domain/interfaces"
	"github.com/secmon-lab/plantops/pkg/domain/model"
)

// File stores each blob as one file in a directory. Writes go through a temp file and rename.
type File struct {
	dir string
}

var _ interfaces.BlobStore = &File{}

// New creates the directory if needed
func New(dir string) (*File, error) {
	if dir == "" {
		return nil, goerr.New("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, goerr.Wrap(err, "failed to create data directory", goerr.V("dir", dir))
	}
	return &File{dir: dir}, nil
}

// path escapes key so that keys containing '/' or ':' stay inside dir
func (f *File) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key))
}

func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, goerr.Wrap(model.ErrNotFound, "blob not found", goerr.V(model.KeyKey, key))
		}
		return nil, goerr.Wrap(err, "failed to read blob", goerr.V(model.KeyKey, key))
	}
	return data, nil
}

func (f *File) Put(ctx context.Context, key string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temp file", goerr.V(model.KeyKey, key))
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return goerr.Wrap(err, "failed to write temp file", goerr.V(model.KeyKey, key))
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return goerr.Wrap(err, "failed to sync temp file", goerr.V(model.KeyKey, key))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close temp file", goerr.V(model.KeyKey, key))
	}

	if err := os.Rename(tmpName, f.path(key)); err != nil {
		return goerr.Wrap(err, "failed to replace blob", goerr.V(model.KeyKey, key))
	}
	return nil
}

func (f *File) Delete(ctx context.Context, key string) error {
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return goerr.Wrap(err, "failed to delete blob", goerr.V(model.KeyKey, key))
	}
	return nil
}

func (f *File) Close() error {
	return nil
}
