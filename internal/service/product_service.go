package service

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/harpiastore/catalog-service/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

const cacheProductTTL = time.Hour

// batchUploader is the fan-out step of create/update.
type batchUploader interface {
	UploadAll(ctx context.Context, files []domain.FileUpload) (*BatchResult, error)
}

// ProductServiceImpl implements domain.ProductService
type ProductServiceImpl struct {
	products domain.ProductRepository
	blobs    domain.BlobStore
	cache    domain.ProductCache
	batch    batchUploader

	orphanedBlobs   metric.Int64Counter
	cleanupFailures metric.Int64Counter
}

// NewProductService creates a new product service
func NewProductService(
	products domain.ProductRepository,
	blobs domain.BlobStore,
	cache domain.ProductCache,
	batch batchUploader,
) *ProductServiceImpl {
	meter := otel.Meter("catalog")
	orphaned, _ := meter.Int64Counter("catalog.orphaned_blobs",
		metric.WithDescription("Blobs uploaded by a create that was aborted; candidates for the orphan sweep"))
	failures, _ := meter.Int64Counter("catalog.blob_cleanup_failures",
		metric.WithDescription("Blob deletions that errored during product delete"))

	return &ProductServiceImpl{
		products:        products,
		blobs:           blobs,
		cache:           cache,
		batch:           batch,
		orphanedBlobs:   orphaned,
		cleanupFailures: failures,
	}
}

// Create uploads every file and inserts the product record referencing the
// resulting blob names. The batch is all-or-nothing: if any file exhausted
// its attempts, no record is written and the error names every failed file.
func (s *ProductServiceImpl) Create(ctx context.Context, input domain.ProductInput, files []domain.FileUpload) (*domain.Product, error) {
	if len(files) == 0 {
		return nil, domain.ErrNoFilesUploaded
	}

	result, err := s.batch.UploadAll(ctx, files)
	if err != nil {
		return nil, err
	}

	if len(result.Failed) > 0 {
		// Blobs of the files that did succeed are not rolled back; they
		// are counted and logged for the out-of-band orphan sweep.
		if len(result.Uploaded) > 0 {
			s.orphanedBlobs.Add(ctx, int64(len(result.Uploaded)))
			log.Printf("Warning: create aborted, %d uploaded blobs orphaned: %v", len(result.Uploaded), result.Uploaded)
		}
		return nil, &domain.UploadFailedError{Filenames: result.Failed}
	}

	product := productFromInput(input)
	product.Images = result.Uploaded

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	// Re-read so the caller observes exactly what persisted, including the
	// store-assigned id and timestamps.
	return s.reload(ctx, product.ID)
}

// Update replaces the product's fields and its image list. Unlike create,
// a partial upload failure does not abort: failed files are dropped and
// the final list is kept ++ newly uploaded.
func (s *ProductServiceImpl) Update(ctx context.Context, id string, input domain.ProductInput, keptImages []string, files []domain.FileUpload) (*domain.Product, error) {
	existing, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var newImages []string
	if len(files) > 0 {
		result, err := s.batch.UploadAll(ctx, files)
		if err != nil {
			return nil, err
		}
		newImages = result.Uploaded
		if len(result.Failed) > 0 {
			log.Printf("Warning: dropping %d failed uploads from update of product %s: %v", len(result.Failed), id, result.Failed)
		}
	}

	product := productFromInput(input)
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	product.Images = append(filterKept(keptImages, existing.Images), newImages...)

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	if err := s.cache.InvalidateProduct(ctx, id); err != nil {
		log.Printf("Warning: failed to invalidate cached product %s: %v", id, err)
	}
	return s.reload(ctx, id)
}

// Delete removes the record after attempting to delete every referenced
// blob. Blob cleanup is best-effort: an already-absent blob is a no-op and
// any other blob error is logged and counted, never propagated.
func (s *ProductServiceImpl) Delete(ctx context.Context, id string) error {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if len(product.Images) > 0 {
		var g errgroup.Group
		for _, name := range product.Images {
			g.Go(func() error {
				err := s.blobs.Remove(ctx, name)
				switch {
				case err == nil:
					log.Printf("Image %s deleted", name)
				case errors.Is(err, domain.ErrBlobNotFound):
					log.Printf("Warning: image %s already absent from blob store", name)
				default:
					s.cleanupFailures.Add(ctx, 1)
					log.Printf("Error deleting image %s: %v", name, err)
				}
				return nil
			})
		}
		// Barrier: every deletion settles before the record goes away.
		g.Wait()
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.cache.InvalidateProduct(ctx, id); err != nil {
		log.Printf("Warning: failed to invalidate cached product %s: %v", id, err)
	}
	return nil
}

// Get returns a product by id, serving from cache when possible.
func (s *ProductServiceImpl) Get(ctx context.Context, id string) (*domain.Product, error) {
	if cached, err := s.cache.GetProduct(ctx, id); err != nil {
		log.Printf("Warning: product cache read failed for %s: %v", id, err)
	} else if cached != nil {
		return cached, nil
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetProduct(ctx, product, cacheProductTTL); err != nil {
		log.Printf("Warning: failed to cache product %s: %v", id, err)
	}
	return product, nil
}

// List returns all products.
func (s *ProductServiceImpl) List(ctx context.Context) ([]*domain.Product, error) {
	return s.products.List(ctx)
}

// OpenImage streams a product image by blob name.
func (s *ProductServiceImpl) OpenImage(ctx context.Context, name string) (io.ReadCloser, domain.BlobInfo, error) {
	return s.blobs.Open(ctx, name)
}

func (s *ProductServiceImpl) reload(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetProduct(ctx, product, cacheProductTTL); err != nil {
		log.Printf("Warning: failed to cache product %s: %v", id, err)
	}
	return product, nil
}

func productFromInput(input domain.ProductInput) *domain.Product {
	return &domain.Product{
		Name:        input.Name,
		Slug:        input.Slug,
		Price:       input.Price,
		Style:       input.Style,
		Collection:  input.Collection,
		Category:    input.Category,
		Description: input.Description,
		Dimensions:  input.Dimensions,
		Weight:      input.Weight,
		Stock:       input.Stock,
		Warranty:    input.Warranty,
		Active:      input.Active,
	}
}

// filterKept keeps only the caller-supplied names that the record actually
// references, preserving the caller's order. Names that were never
// associated with this product are dropped.
func filterKept(kept, existing []string) []string {
	if len(kept) == 0 {
		return nil
	}
	known := make(map[string]struct{}, len(existing))
	for _, name := range existing {
		known[name] = struct{}{}
	}
	var out []string
	for _, name := range kept {
		if _, ok := known[name]; ok {
			out = append(out, name)
		}
	}
	return out
}
