package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Buckets keep voice notes and generic file uploads apart on disk.
const (
	BucketAudio = "audio"
	BucketFiles = "files"
)

// Store persists uploaded blobs on the local filesystem and hands
// back URL paths served by the /uploads/ file server.
type Store struct {
	root string
}

// New creates the uploads root and its buckets.
func New(root string) (*Store, error) {
	for _, bucket := range []string{BucketAudio, BucketFiles} {
		if err := os.MkdirAll(filepath.Join(root, bucket), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
	}
	return &Store{root: root}, nil
}

// Save writes the blob under the bucket with a uuid-based name
// (keeping the original extension) and returns its retrievable URL.
func (s *Store) Save(bucket, suggestedName string, data []byte) (string, error) {
	name := uuid.NewString() + safeExt(suggestedName)
	path := filepath.Join(s.root, bucket, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store file: %w", err)
	}
	return "/uploads/" + bucket + "/" + name, nil
}

// safeExt keeps only a short, plain extension from the client-supplied
// name. ファイル名自体は信用せず拡張子だけ引き継ぐ。
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) > 10 {
		return ""
	}
	for _, r := range ext {
		if !(r == '.' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return ""
		}
	}
	return ext
}
