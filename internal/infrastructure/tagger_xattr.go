//go:build linux || darwin

package infrastructure

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

const xattrName = "user." + MetadataAttributeName

// XattrTagger stores the fingerprint in an extended attribute
type XattrTagger struct{}

// NewMetadataTagger returns the tagger for this platform
func NewMetadataTagger() *XattrTagger {
	return &XattrTagger{}
}

// Tag stores hash on the file at path
func (t *XattrTagger) Tag(path, hash string) error {
	if err := unix.Setxattr(path, xattrName, []byte(hash), 0); err != nil {
		return fmt.Errorf("failed to set extended attribute on %s: %w", path, err)
	}
	return nil
}

// Read returns the stored hash and whether one was present
func (t *XattrTagger) Read(path string) (string, bool, error) {
	// A sha256 hex digest is 64 bytes; leave room for foreign values.
	buf := make([]byte, 256)
	for {
		n, err := unix.Getxattr(path, xattrName, buf)
		switch {
		case err == nil:
			value := strings.TrimSpace(string(buf[:n]))
			return value, value != "", nil
		case errors.Is(err, errNoAttr):
			return "", false, nil
		case errors.Is(err, unix.ERANGE):
			buf = make([]byte, len(buf)*2)
		default:
			return "", false, fmt.Errorf("failed to read extended attribute on %s: %w", path, err)
		}
	}
}
