package repository

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/harpiastore/catalog-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// setupMongo spins up a MongoDB container for repository tests.
func setupMongo(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:latest")
	if err != nil {
		t.Fatalf("failed to start container: %s", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(endpoint))
	if err != nil {
		t.Fatalf("failed to connect to mongo: %v", err)
	}
	t.Cleanup(func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Printf("failed to disconnect mongo: %v", err)
		}
	})

	return client.Database("test_db")
}

func TestMongoProductRepositoryCRUD(t *testing.T) {
	db := setupMongo(t)
	repo := NewMongoProductRepository(db)
	ctx := context.Background()

	product := &domain.Product{
		Name:       "Costela Armchair",
		Slug:       "costela-armchair",
		Price:      1890,
		Images:     []string{"blob-1", "blob-2"},
		Category:   "armchairs",
		Dimensions: domain.Dimensions{Height: 95, Width: 82, Depth: 88},
		Stock:      15,
		Active:     true,
	}
	require.NoError(t, repo.Create(ctx, product))
	require.NotEmpty(t, product.ID)

	got, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "costela-armchair", got.Slug)
	assert.Equal(t, []string{"blob-1", "blob-2"}, got.Images)
	assert.False(t, got.CreatedAt.IsZero())

	got.Images = []string{"blob-1", "blob-3"}
	got.Price = 1699
	require.NoError(t, repo.Update(ctx, got))

	reread, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"blob-1", "blob-3"}, reread.Images)
	assert.Equal(t, 1699.0, reread.Price)

	require.NoError(t, repo.Delete(ctx, product.ID))
	_, err = repo.GetByID(ctx, product.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, product.ID), domain.ErrProductDeleteFailed)
}

func TestMongoProductRepositoryInvalidID(t *testing.T) {
	db := setupMongo(t)
	repo := NewMongoProductRepository(db)

	_, err := repo.GetByID(context.Background(), "not-an-object-id")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestMongoProductRepositoryDuplicateSlug(t *testing.T) {
	db := setupMongo(t)
	repo := NewMongoProductRepository(db)
	ctx := context.Background()

	first := &domain.Product{Name: "A", Slug: "same-slug"}
	require.NoError(t, repo.Create(ctx, first))

	second := &domain.Product{Name: "B", Slug: "same-slug"}
	assert.ErrorIs(t, repo.Create(ctx, second), domain.ErrDuplicateSlug)
}

func TestGridFSBlobStoreRoundTrip(t *testing.T) {
	db := setupMongo(t)
	store, err := NewGridFSBlobStore(db, "uploads")
	require.NoError(t, err)
	ctx := context.Background()

	file := domain.FileUpload{
		OriginalName: "a.jpg",
		ContentType:  "image/jpeg",
		Data:         []byte("jpeg bytes go here"),
	}
	require.NoError(t, store.Put(ctx, "blob-a", file))

	reader, info, err := store.Open(ctx, "blob-a")
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	reader.Close()
	require.NoError(t, err)
	assert.Equal(t, file.Data, data)
	assert.Equal(t, "image/jpeg", info.ContentType)
	assert.Equal(t, int64(len(file.Data)), info.Size)

	require.NoError(t, store.Remove(ctx, "blob-a"))
	assert.ErrorIs(t, store.Remove(ctx, "blob-a"), domain.ErrBlobNotFound)

	_, _, err = store.Open(ctx, "blob-a")
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)
}
