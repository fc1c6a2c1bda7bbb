package domain

import "context"

// ServerCapabilities describes how a server can deliver a resource. It is
// determined once per URL.
type ServerCapabilities struct {
	RangeSupported     bool `json:"range_supported"`
	StreamingSupported bool `json:"streaming_supported"`
}

// Fingerprinter computes a content fingerprint for a remote resource
type Fingerprinter interface {
	// Head returns the lowercased response headers of a HEAD request
	Head(ctx context.Context, url string) (map[string]string, error)

	// Fingerprint returns the hash of the sampled prefix, or "" when no
	// fingerprint is available. headers is the result of an earlier Head
	// call; nil makes Fingerprint fetch them itself.
	Fingerprint(ctx context.Context, url string, headers map[string]string) (string, ServerCapabilities)
}

// MetadataTagger attaches a fingerprint to a file as out-of-band metadata
type MetadataTagger interface {
	// Tag stores hash on the file at path
	Tag(path, hash string) error

	// Read returns the stored hash and whether one was present
	Read(path string) (string, bool, error)
}

// DecisionService is the client side of the decision endpoint
type DecisionService interface {
	ProcessDownload(ctx context.Context, req *DecisionRequest) Action
	DeleteRecord(ctx context.Context, partialHash string, device DeviceInfo) (bool, error)
}

// CommandRunner executes an external download tool
type CommandRunner interface {
	LookPath(tool string) (string, error)
	Run(ctx context.Context, tool string, args []string) error
}
