package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/book-expert/tts-router/internal/core"
)

// File and directory permissions.
const (
	filePermissions = 0o640
	dirPermissions  = 0o750
	tempFilePattern = ".upload-*"
)

// Static errors.
var (
	ErrRootEmpty    = errors.New("storage mount root cannot be empty")
	ErrInvalidKey   = errors.New("invalid object key")
	ErrObjectExists = errors.New("object already exists")
)

// FileStore implements the core.ObjectStore interface on a mounted bucket.
// Keys are slash-separated paths relative to the mount root.
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at the given mount point, creating it if needed.
func NewFileStore(root string) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, ErrRootEmpty
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mount root '%s': %w", root, err)
	}

	mkdirErr := os.MkdirAll(absRoot, dirPermissions)
	if mkdirErr != nil {
		return nil, fmt.Errorf("failed to create mount root '%s': %w", absRoot, mkdirErr)
	}

	return &FileStore{root: absRoot}, nil
}

// Path resolves a key to its location inside the mount.
func (f *FileStore) Path(key string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimSpace(key))
	if strings.TrimSpace(key) == "" || cleaned == "/" || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}

	return filepath.Join(f.root, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}

// Download reads an object from the mount.
func (f *FileStore) Download(_ context.Context, key string) ([]byte, error) {
	objectPath, err := f.Path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(objectPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: '%s'", core.ErrObjectNotFound, key)
		}

		return nil, fmt.Errorf("failed to read object '%s': %w", key, err)
	}

	return data, nil
}

// Upload writes an object to the mount. The bytes are written to a temp file in
// the destination directory and renamed into place, so readers never observe a
// partial object. Existing objects are never overwritten.
func (f *FileStore) Upload(ctx context.Context, key string, data []byte) error {
	objectPath, err := f.Path(key)
	if err != nil {
		return err
	}

	exists, err := f.Exists(ctx, key)
	if err != nil {
		return err
	}

	if exists {
		return fmt.Errorf("%w: '%s'", ErrObjectExists, key)
	}

	dir := filepath.Dir(objectPath)

	mkdirErr := os.MkdirAll(dir, dirPermissions)
	if mkdirErr != nil {
		return fmt.Errorf("failed to create directory for object '%s': %w", key, mkdirErr)
	}

	tempFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file for object '%s': %w", key, err)
	}

	tempName := tempFile.Name()

	writeErr := writeAndClose(tempFile, data)
	if writeErr != nil {
		_ = os.Remove(tempName)

		return fmt.Errorf("failed to write object '%s': %w", key, writeErr)
	}

	renameErr := os.Rename(tempName, objectPath)
	if renameErr != nil {
		_ = os.Remove(tempName)

		return fmt.Errorf("failed to move object '%s' into place: %w", key, renameErr)
	}

	return nil
}

// Exists reports whether an object is present at the key.
func (f *FileStore) Exists(_ context.Context, key string) (bool, error) {
	objectPath, err := f.Path(key)
	if err != nil {
		return false, err
	}

	info, statErr := os.Stat(objectPath)
	if statErr == nil {
		return !info.IsDir(), nil
	}

	if errors.Is(statErr, fs.ErrNotExist) {
		return false, nil
	}

	return false, fmt.Errorf("failed to check object '%s': %w", key, statErr)
}

func writeAndClose(file *os.File, data []byte) error {
	_, writeErr := file.Write(data)
	if writeErr != nil {
		_ = file.Close()

		return writeErr
	}

	syncErr := file.Sync()
	if syncErr != nil {
		_ = file.Close()

		return syncErr
	}

	chmodErr := file.Chmod(filePermissions)
	if chmodErr != nil {
		_ = file.Close()

		return chmodErr
	}

	return file.Close()
}
