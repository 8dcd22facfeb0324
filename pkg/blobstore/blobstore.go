// Package blobstore stores uploaded document files on local disk and serves
// them back by URL.
package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Upload is the result of storing a blob.
type Upload struct {
	URL      string
	PublicID string
}

// Store saves and deletes blobs. Blobs are addressed by an opaque public ID
// so that the on-disk layout never leaks into stored rows.
type Store struct {
	dir     string
	baseURL string
}

// New creates a Store rooted at dir. Files are served under baseURL.
func New(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WithStack(err)
	}
	return &Store{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Put writes data under the given folder and returns its URL and public ID.
// The original filename only contributes its extension; the stored name is
// always a fresh UUID so uploads can never collide or traverse paths.
func (s *Store) Put(_ context.Context, data []byte, folder, filename string) (*Upload, error) {
	id := uuid.NewString()
	ext := filepath.Ext(filepath.Base(filename))
	publicID := filepath.Join(folder, id+ext)

	path := filepath.Join(s.dir, publicID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, errors.WithStack(err)
	}

	return &Upload{
		URL:      s.baseURL + "/" + filepath.ToSlash(publicID),
		PublicID: publicID,
	}, nil
}

// Delete removes the blob with the given public ID. Deleting a blob that is
// already gone is not an error.
func (s *Store) Delete(_ context.Context, publicID string) error {
	path := filepath.Join(s.dir, filepath.Clean("/"+publicID))
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return nil
}

// Dir returns the root directory blobs are written to.
func (s *Store) Dir() string {
	return s.dir
}
