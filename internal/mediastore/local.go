package mediastore

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// LocalStore writes images under a root directory and serves them from
// baseURL/uploads. Files are content-addressed by SHA-256, so repeated
// uploads of the same payload are idempotent.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload decodes the payload, verifies it is an image and stores it.
func (s *LocalStore) Upload(_ context.Context, payload string) (string, error) {
	if payload == "" {
		return "", ErrEmptyPayload
	}

	// Strip a data URI wrapper ("data:image/png;base64,....") if present.
	if idx := strings.Index(payload, ","); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decode media payload: %w", err)
	}

	if !filetype.IsImage(data) {
		return "", ErrNotImage
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", ErrNotImage
	}

	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:]) + "." + kind.Extension
	rel := filepath.Join(name[:2], name)
	path := filepath.Join(s.root, rel)

	if err := s.write(path, data); err != nil {
		return "", err
	}
	return s.baseURL + "/uploads/" + name[:2] + "/" + name, nil
}

func (s *LocalStore) write(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create media directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write media: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("store media: %w", err)
	}
	return nil
}
