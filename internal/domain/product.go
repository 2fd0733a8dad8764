package domain

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrDuplicateSlug       = errors.New("product slug already exists")
	ErrNoFilesUploaded     = errors.New("no files uploaded")
	ErrProductDeleteFailed = errors.New("product could not be deleted")
)

// Dimensions is the physical size of a product in centimeters.
type Dimensions struct {
	Height float64 `json:"height" bson:"height"`
	Width  float64 `json:"width" bson:"width"`
	Depth  float64 `json:"depth" bson:"depth"`
}

// Product is a catalog record. Images holds the ordered blob names of the
// product's pictures; every name was written to the blob store before the
// record referencing it was persisted.
type Product struct {
	ID          string     `json:"id" bson:"_id,omitempty"`
	Name        string     `json:"name" bson:"name"`
	Slug        string     `json:"slug" bson:"slug"` // Unique index
	Price       float64    `json:"price" bson:"price"`
	Images      []string   `json:"images" bson:"images"`
	Style       string     `json:"style" bson:"style"`         // e.g., "Modern", "Industrial"
	Collection  string     `json:"collection" bson:"collection"`
	Category    string     `json:"category" bson:"category"`
	Description string     `json:"description" bson:"description"`
	Dimensions  Dimensions `json:"dimensions" bson:"dimensions"`
	Weight      float64    `json:"weight" bson:"weight"`
	Stock       int        `json:"stock" bson:"stock"`
	Warranty    string     `json:"warranty" bson:"warranty"` // e.g., "12 months"
	Active      bool       `json:"active" bson:"active"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// ProductInput enumerates every recognized product field coming from a
// create or update request. Unknown request fields never reach the record.
type ProductInput struct {
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Price       float64    `json:"price"`
	Style       string     `json:"style"`
	Collection  string     `json:"collection"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Dimensions  Dimensions `json:"dimensions"`
	Weight      float64    `json:"weight"`
	Stock       int        `json:"stock"`
	Warranty    string     `json:"warranty"`
	Active      bool       `json:"active"`
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	Update(ctx context.Context, product *Product) error
	// Delete removes the record; ErrProductDeleteFailed when no document
	// was removed.
	Delete(ctx context.Context, id string) error
}

// ProductService orchestrates the product lifecycle: uploads on create and
// update, cascading blob cleanup on delete.
type ProductService interface {
	Create(ctx context.Context, input ProductInput, files []FileUpload) (*Product, error)
	Update(ctx context.Context, id string, input ProductInput, keptImages []string, files []FileUpload) (*Product, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	OpenImage(ctx context.Context, name string) (io.ReadCloser, BlobInfo, error)
}

// ProductCache caches products by id with a TTL. A nil product and nil
// error means cache miss.
type ProductCache interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	SetProduct(ctx context.Context, product *Product, ttl time.Duration) error
	InvalidateProduct(ctx context.Context, id string) error
}
