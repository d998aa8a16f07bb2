// Package cas stores generated files by content.
//
// Blobs are addressed by SHA-256 and laid out as
// <root>/blobs/sha256/<first2>/<hash>. A BLAKE3 pointer file per blob maps
// the faster BLAKE3 digest back to the SHA-256 address, so manifests can
// carry either hash.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// ErrBlobNotFound is returned when a blob with the given hash does not exist.
var ErrBlobNotFound = errors.New("blob not found")

// ErrInvalidHash is returned when a hash string is not 64 lowercase hex characters.
var ErrInvalidHash = errors.New("invalid hash format")

var hashPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Store is a content-addressed blob directory.
type Store struct {
	root string
}

// NewStore opens the store at root, creating its directories if needed.
func NewStore(root string) (*Store, error) {
	for _, dir := range []string{"sha256", "blake3"} {
		if err := os.MkdirAll(filepath.Join(root, "blobs", dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create blob directory: %w", err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// Put stores data and returns its digest. Storing the same content twice
// is a no-op.
func (s *Store) Put(data []byte) (Digest, error) {
	d := Sum(data)

	if !s.Has(d.SHA256) {
		if err := writeAtomic(s.blobPath(d.SHA256), ".blob-*", data); err != nil {
			return Digest{}, fmt.Errorf("failed to store blob: %w", err)
		}
	}
	if err := s.linkBlake3(d); err != nil {
		return Digest{}, fmt.Errorf("failed to create BLAKE3 pointer: %w", err)
	}
	return d, nil
}

// Get returns the blob with the given SHA-256 hash.
func (s *Store) Get(hash string) ([]byte, error) {
	if !hashPattern.MatchString(hash) {
		return nil, ErrInvalidHash
	}
	data, err := os.ReadFile(s.blobPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

// Has reports whether a blob with the given SHA-256 hash is stored.
func (s *Store) Has(hash string) bool {
	if !hashPattern.MatchString(hash) {
		return false
	}
	_, err := os.Stat(s.blobPath(hash))
	return err == nil
}

func (s *Store) blobPath(hash string) string {
	return filepath.Join(s.root, "blobs", "sha256", hash[:2], hash)
}

// writeAtomic writes data to a temp file next to path and renames it into
// place.
func writeAtomic(path, pattern string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := osRename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// SHA256 returns the hex SHA-256 of data.
func SHA256(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
