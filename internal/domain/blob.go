package domain

import (
	"context"
	"errors"
	"io"
)

var ErrBlobNotFound = errors.New("blob not found")

// FileUpload is one decoded file buffer from a create/update request.
// Multipart parsing happens at the transport layer; the core only sees this.
type FileUpload struct {
	OriginalName string
	ContentType  string
	Data         []byte
}

// BlobInfo describes a stored blob.
type BlobInfo struct {
	Name        string
	ContentType string
	Size        int64
}

// BlobStore defines the interface for binary object storage. Names are
// assigned by the caller and never reused; a stored blob is either fully
// readable under its name or absent.
type BlobStore interface {
	// Put writes the file's bytes under name, tagging the blob with the
	// content type and original filename.
	Put(ctx context.Context, name string, file FileUpload) error
	// Open returns a reader over the blob's bytes together with its info.
	// ErrBlobNotFound when no blob has that name.
	Open(ctx context.Context, name string) (io.ReadCloser, BlobInfo, error)
	// Remove deletes the blob by name. ErrBlobNotFound when it is already
	// absent, so callers can treat that case as a no-op.
	Remove(ctx context.Context, name string) error
}
