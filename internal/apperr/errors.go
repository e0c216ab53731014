package apperr

import "errors"

var (
	// ErrUploadFailed marks a transient destination-store upload failure.
	// It is the only error kind the upload retry loop retries.
	ErrUploadFailed = errors.New("upload failed")

	ErrNotFound = errors.New("not found")
)
