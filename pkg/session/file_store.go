package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	overlayerrors "github.com/DeBrosOfficial/overlay/pkg/errors"
)

// FileStore keeps the session in a YAML file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (f *FileStore) Path() string { return f.path }

// Load reads the session file. A missing or blank file is ErrNotSaved.
func (f *FileStore) Load(ctx context.Context) (*Session, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotSaved
	}
	if err != nil {
		return nil, overlayerrors.NewStorageError("file", "read "+f.path, err)
	}

	var st State
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&st); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNotSaved
		}
		return nil, overlayerrors.NewStorageError("file", "parse "+f.path, err)
	}
	return FromState(st), nil
}

// Save writes st atomically: a temp file in the same directory is renamed
// over the old one.
func (f *FileStore) Save(ctx context.Context, st State) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return overlayerrors.NewStorageError("file", "marshal", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return overlayerrors.NewStorageError("file", "create "+dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.yaml")
	if err != nil {
		return overlayerrors.NewStorageError("file", "create temp file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return overlayerrors.NewStorageError("file", "write temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return overlayerrors.NewStorageError("file", "close temp file", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return overlayerrors.NewStorageError("file", "replace "+f.path, err)
	}
	return nil
}
