package cas

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// Digest identifies a blob by both hashes.
type Digest struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
	Size   int64  `json:"size"`
}

// Sum computes the digest of data without storing it.
func Sum(data []byte) Digest {
	return Digest{
		SHA256: SHA256(data),
		BLAKE3: BLAKE3(data),
		Size:   int64(len(data)),
	}
}

// BLAKE3 returns the hex BLAKE3-256 of data.
func BLAKE3(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// blake3Pointer is the content of <root>/blobs/blake3/<first2>/<blake3>.json.
type blake3Pointer struct {
	SHA256 string `json:"sha256"`
}

func (s *Store) pointerPath(blake3Hash string) string {
	return filepath.Join(s.root, "blobs", "blake3", blake3Hash[:2], blake3Hash+".json")
}

func (s *Store) linkBlake3(d Digest) error {
	path := s.pointerPath(d.BLAKE3)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := json.Marshal(blake3Pointer{SHA256: d.SHA256})
	if err != nil {
		return err
	}
	return writeAtomic(path, ".pointer-*", data)
}

// ResolveBlake3 returns the SHA-256 address of the blob with the given
// BLAKE3 hash.
func (s *Store) ResolveBlake3(blake3Hash string) (string, error) {
	if !hashPattern.MatchString(blake3Hash) {
		return "", ErrInvalidHash
	}
	data, err := os.ReadFile(s.pointerPath(blake3Hash))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrBlobNotFound
		}
		return "", fmt.Errorf("failed to read pointer: %w", err)
	}

	var p blake3Pointer
	if err := json.Unmarshal(data, &p); err != nil {
		return "", fmt.Errorf("failed to parse pointer: %w", err)
	}
	return p.SHA256, nil
}

// GetByBlake3 returns the blob with the given BLAKE3 hash.
func (s *Store) GetByBlake3(blake3Hash string) ([]byte, error) {
	sha, err := s.ResolveBlake3(blake3Hash)
	if err != nil {
		return nil, err
	}
	return s.Get(sha)
}
