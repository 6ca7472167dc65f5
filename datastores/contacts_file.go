package datastores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ContactsFile implements [Persister] with a single JSON document.
type ContactsFile struct {
	Path string
}

var _ Persister = (*ContactsFile)(nil)

func (f *ContactsFile) LoadAll(_ context.Context) (Directory, error) {
	var d Directory
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return d, nil
	}
	if err != nil {
		return d, err
	}
	err = json.Unmarshal(b, &d)
	if err != nil {
		return d, fmt.Errorf("decode %s: %w", f.Path, err)
	}
	return d, nil
}

// Persist replaces the document atomically through a temporary file in
// the same directory.
func (f *ContactsFile) Persist(_ context.Context, d Directory) error {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.Path), "."+filepath.Base(f.Path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint: errcheck // gone after rename

	_, err = tmp.Write(b)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}

// Ping checks that the directory holding the document is still there.
func (f *ContactsFile) Ping(_ context.Context) error {
	_, err := os.Stat(filepath.Dir(f.Path))
	return err
}
