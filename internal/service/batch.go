package service

import (
	"context"

	"github.com/harpiastore/catalog-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

// fileUploader uploads one file and returns the blob name it ended up under.
type fileUploader interface {
	Upload(ctx context.Context, file domain.FileUpload) (string, error)
}

// BatchResult partitions a batch's outcomes. Uploaded holds blob names of
// files that made it into the store, Failed the original filenames of files
// that exhausted their attempts. Policy (abort vs. best-effort) is the
// caller's business.
type BatchResult struct {
	Uploaded []string
	Failed   []string
}

// BatchUploader fans out the files of one request concurrently and waits
// for every outcome. A failure in one file never cancels the others.
type BatchUploader struct {
	uploader fileUploader
}

func NewBatchUploader(uploader fileUploader) *BatchUploader {
	return &BatchUploader{uploader: uploader}
}

func (b *BatchUploader) UploadAll(ctx context.Context, files []domain.FileUpload) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, domain.ErrNoFilesUploaded
	}

	type outcome struct {
		blobName string
		err      error
	}
	outcomes := make([]outcome, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			name, err := b.uploader.Upload(gCtx, file)
			// Per-file failures are recorded as data, not returned as
			// errors, so the remaining uploads settle instead of being
			// cancelled.
			outcomes[i] = outcome{blobName: name, err: err}
			return nil
		})
	}
	// Goroutines never return errors; Wait is the barrier before the
	// caller may touch the catalog record.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &BatchResult{}
	for i, o := range outcomes {
		if o.err != nil {
			result.Failed = append(result.Failed, files[i].OriginalName)
			continue
		}
		result.Uploaded = append(result.Uploaded, o.blobName)
	}
	return result, nil
}
