package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bobzap/batisync/internal/domain"
)

// DocumentStore is the narrow interface to wherever invoice documents
// live. The engine only needs to put a file and later delete it by the
// locator it got back.
type DocumentStore interface {
	Put(ctx context.Context, src io.Reader, nameHint string) (locator string, err error)
	Delete(ctx context.Context, locator string) error
	// Path resolves a locator to a local path for display/opening
	Path(locator string) string
}

// FileStore keeps documents as plain files under a root directory
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// Put stores the content under a timestamped name derived from nameHint
// and returns the locator (the filename relative to the root)
func (s *FileStore) Put(ctx context.Context, src io.Reader, nameHint string) (string, error) {
	if err := os.MkdirAll(s.root, 0700); err != nil {
		return "", fmt.Errorf("%w: create document directory: %v", domain.ErrStorage, err)
	}

	locator := fmt.Sprintf("%d-%s", time.Now().UnixNano(), sanitizeName(nameHint))

	dst, err := os.Create(filepath.Join(s.root, locator))
	if err != nil {
		return "", fmt.Errorf("%w: create document file: %v", domain.ErrStorage, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("%w: write document: %v", domain.ErrStorage, err)
	}

	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("%w: close document: %v", domain.ErrStorage, err)
	}

	return locator, nil
}

// Delete removes a stored document. Deleting a locator that is already
// gone is not an error.
func (s *FileStore) Delete(ctx context.Context, locator string) error {
	err := os.Remove(filepath.Join(s.root, locator))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: delete document %s: %v", domain.ErrStorage, locator, err)
	}
	return nil
}

// Path resolves a locator to its path under the store root
func (s *FileStore) Path(locator string) string {
	return filepath.Join(s.root, locator)
}

// sanitizeName strips path separators and whitespace from a name hint
func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." {
		name = "document"
	}
	return name
}
