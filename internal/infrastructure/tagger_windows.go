//go:build windows

package infrastructure

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// StreamTagger stores the fingerprint in an NTFS alternate data stream
type StreamTagger struct{}

// NewMetadataTagger returns the tagger for this platform
func NewMetadataTagger() *StreamTagger {
	return &StreamTagger{}
}

func streamPath(path string) string {
	return path + ":" + MetadataAttributeName
}

// Tag stores hash on the file at path
func (t *StreamTagger) Tag(path, hash string) error {
	if err := os.WriteFile(streamPath(path), []byte(hash), 0644); err != nil {
		return fmt.Errorf("failed to write alternate data stream on %s: %w", path, err)
	}
	return nil
}

// Read returns the stored hash and whether one was present
func (t *StreamTagger) Read(path string) (string, bool, error) {
	data, err := os.ReadFile(streamPath(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read alternate data stream on %s: %w", path, err)
	}
	value := strings.TrimSpace(string(data))
	return value, value != "", nil
}
