package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSize         = errors.New("total size unknown")
	ErrShortRead           = errors.New("short read")
	ErrUnsupportedTransfer = errors.New("server supports neither range requests nor streaming")
	ErrRangeNotHonored     = errors.New("server did not honor range request")
	ErrMissingEnvelope     = errors.New(`missing "id" or "data" in the received JSON`)
	ErrIncompleteData      = errors.New("incomplete data received")
	ErrMissingFinalURL     = errors.New("finalUrl is missing in download_meta_data")
	ErrNoFilename          = errors.New("unable to extract filename")
	ErrTaggingUnsupported  = errors.New("file tagging not supported on this platform")
	ErrToolNotFound        = errors.New("command not found")
	ErrNoURL               = errors.New("no URL provided")
)

// NetworkError represents a timeout, connection failure or unexpected status
// while talking to a remote server.
type NetworkError struct {
	Operation  string // head, sample, process_download, delete_record
	URL        string
	StatusCode int // 0 for transport errors
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("network error during %s of %s (HTTP %d)", e.Operation, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("network error during %s of %s: %v", e.Operation, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StoreError wraps a persistence failure
type StoreError struct {
	Operation string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Operation, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is returned when the decision endpoint answers with
// something that is not a valid decision.
type MalformedResponseError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response (HTTP %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("malformed response (HTTP %d): %s", e.StatusCode, e.Body)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
