package service

import (
	"context"
	"fmt"
	"time"

	"github.com/harpiastore/catalog-service/internal/domain"
	"github.com/oklog/ulid/v2"
)

// Uploader writes a single file buffer to the blob store, retrying on
// failure up to a fixed number of attempts. Every attempt uses a fresh
// blob name, so a failed attempt can never collide with a later one and
// no partial blob is silently resumed.
type Uploader struct {
	blobs          domain.BlobStore
	attempts       int
	attemptTimeout time.Duration
}

func NewUploader(blobs domain.BlobStore, attempts int, attemptTimeout time.Duration) *Uploader {
	if attempts < 1 {
		attempts = 1
	}
	return &Uploader{
		blobs:          blobs,
		attempts:       attempts,
		attemptTimeout: attemptTimeout,
	}
}

// newBlobName returns a unique blob name: millisecond timestamp plus
// random suffix, never reused across attempts.
func newBlobName() string {
	return ulid.Make().String()
}

// Upload stores the file and returns the assigned blob name. After the
// last failed attempt it returns the last error tagged with the original
// filename for caller attribution.
func (u *Uploader) Upload(ctx context.Context, file domain.FileUpload) (string, error) {
	var lastErr error
	for attempt := 0; attempt < u.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		name := newBlobName()
		attemptCtx := ctx
		cancel := func() {}
		if u.attemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, u.attemptTimeout)
		}
		err := u.blobs.Put(attemptCtx, name, file)
		cancel()
		if err == nil {
			return name, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("upload of %s failed after %d attempts: %w", file.OriginalName, u.attempts, lastErr)
}
