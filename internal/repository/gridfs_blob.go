package repository

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/harpiastore/catalog-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSBlobStore implements domain.BlobStore on top of a GridFS bucket.
// A blob name maps to the GridFS filename; content type and the original
// upload filename live in the file's metadata document.
type GridFSBlobStore struct {
	bucket *gridfs.Bucket
}

func NewGridFSBlobStore(db *mongo.Database, bucketName string) (*GridFSBlobStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("failed to create gridfs bucket: %w", err)
	}
	return &GridFSBlobStore{bucket: bucket}, nil
}

func (s *GridFSBlobStore) Put(ctx context.Context, name string, file domain.FileUpload) error {
	uploadOpts := options.GridFSUpload().SetMetadata(bson.M{
		"contentType":  file.ContentType,
		"originalname": file.OriginalName,
	})

	stream, err := s.bucket.OpenUploadStream(name, uploadOpts)
	if err != nil {
		return fmt.Errorf("failed to open upload stream: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		stream.SetWriteDeadline(deadline)
	}

	if _, err := stream.Write(file.Data); err != nil {
		stream.Abort()
		return fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to finalize blob %s: %w", name, err)
	}
	return nil
}

func (s *GridFSBlobStore) Open(ctx context.Context, name string) (io.ReadCloser, domain.BlobInfo, error) {
	if deadline, ok := ctx.Deadline(); ok {
		s.bucket.SetReadDeadline(deadline)
	}

	stream, err := s.bucket.OpenDownloadStreamByName(name)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, domain.BlobInfo{}, domain.ErrBlobNotFound
		}
		return nil, domain.BlobInfo{}, fmt.Errorf("failed to open blob %s: %w", name, err)
	}

	file := stream.GetFile()
	info := domain.BlobInfo{
		Name:        name,
		ContentType: "application/octet-stream",
		Size:        file.Length,
	}
	if file.Metadata != nil {
		if ct, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok {
			info.ContentType = ct
		}
	}
	return stream, info, nil
}

func (s *GridFSBlobStore) Remove(ctx context.Context, name string) error {
	// Resolve the file id by filename first, the bucket deletes by id.
	var file struct {
		ID interface{} `bson:"_id"`
	}
	err := s.bucket.GetFilesCollection().FindOne(ctx, bson.M{"filename": name}).Decode(&file)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return domain.ErrBlobNotFound
		}
		return fmt.Errorf("failed to look up blob %s: %w", name, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		s.bucket.SetWriteDeadline(deadline)
	}
	if err := s.bucket.Delete(file.ID); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return domain.ErrBlobNotFound
		}
		return fmt.Errorf("failed to delete blob %s: %w", name, err)
	}
	return nil
}
