package domain

import (
	"errors"
	"strings"
)

// Common errors
var (
	ErrNotFound  = errors.New("record not found")
	ErrInvalidID = errors.New("invalid product id")
)

// UploadFailedError aggregates the original filenames of every file in a
// batch that exhausted its upload attempts. Create aborts with this error;
// no product record is written.
type UploadFailedError struct {
	Filenames []string
}

func (e *UploadFailedError) Error() string {
	return "upload failed for the following files: " + strings.Join(e.Filenames, ", ")
}
