package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	pkglog "github.com/theroutercompany/goldenapi/pkg/log"
)

// Dir stores each key as a file below a root directory, mirroring the key's
// slash-separated path.
type Dir struct {
	root string
}

// NewDir creates a directory-backed store. The root is created lazily on the
// first write.
func NewDir(root string) (*Dir, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("storage: directory root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute root directory.
func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) Get(_ context.Context, key string) ([]byte, error) {
	path, err := d.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Put writes data atomically: readers see either the previous file or the
// complete new one.
func (d *Dir) Put(_ context.Context, key string, data []byte) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create fixture dir: %w", err)
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending file %s: %w", key, err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			pkglog.Logger().Debugw("cleanup pending fixture file", "key", key, "error", err)
		}
	}()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// path maps a key onto the file system, refusing keys that would escape root.
func (d *Dir) path(key string) (string, error) {
	if key == "" || strings.Contains(key, `\`) {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("storage: key escapes root: %q", key)
	}
	return filepath.Join(d.root, clean), nil
}
