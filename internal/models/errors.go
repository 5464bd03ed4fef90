package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an event (or a label target) does not exist.
// Malformed identifiers are reported the same way.
var ErrNotFound = errors.New("not found")

// Stable reason codes for client input errors.
const (
	CodeInvalidBBox     = "invalid_bbox"
	CodeInvalidSource   = "invalid_source"
	CodeInvalidLimit    = "invalid_limit"
	CodeInvalidOffset   = "invalid_offset"
	CodeInvalidTime     = "invalid_time"
	CodeInvalidNumber   = "invalid_number"
	CodeInvalidFeatJSON = "invalid_feat_json"
	CodeMissingField    = "missing_field"
	CodeMissingFile     = "missing_file"
)

// ClientError is a rejected request input.
type ClientError struct {
	Code    string
	Message string
}

func (e *ClientError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// NewClientError builds a ClientError with a formatted message.
func NewClientError(code, format string, args ...any) *ClientError {
	return &ClientError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps a failure of the backing store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage: " + e.Op + ": " + e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// MediaWriteError wraps a failure to persist an uploaded media file.
type MediaWriteError struct {
	Op  string
	Err error
}

func (e *MediaWriteError) Error() string { return "media: " + e.Op + ": " + e.Err.Error() }
func (e *MediaWriteError) Unwrap() error { return e.Err }

// IsClientError reports whether err is (or wraps) a *ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}
