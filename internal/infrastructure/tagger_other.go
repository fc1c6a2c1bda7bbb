//go:build !linux && !darwin && !windows

package infrastructure

import "github.com/yourusername/reduce-go/internal/domain"

// UnsupportedTagger is used where no metadata store is available
type UnsupportedTagger struct{}

// NewMetadataTagger returns the tagger for this platform
func NewMetadataTagger() *UnsupportedTagger {
	return &UnsupportedTagger{}
}

func (t *UnsupportedTagger) Tag(path, hash string) error {
	return domain.ErrTaggingUnsupported
}

func (t *UnsupportedTagger) Read(path string) (string, bool, error) {
	return "", false, domain.ErrTaggingUnsupported
}
