package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/harpiastore/catalog-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProductService scripts domain.ProductService for handler tests.
type fakeProductService struct {
	createErr error
	lastInput domain.ProductInput
	lastFiles []domain.FileUpload
	lastKept  []string
	product   *domain.Product
	blob      []byte
	blobType  string
}

func (f *fakeProductService) Create(ctx context.Context, input domain.ProductInput, files []domain.FileUpload) (*domain.Product, error) {
	f.lastInput = input
	f.lastFiles = files
	if f.createErr != nil {
		return nil, f.createErr
	}
	if len(files) == 0 {
		return nil, domain.ErrNoFilesUploaded
	}
	return f.product, nil
}

func (f *fakeProductService) Update(ctx context.Context, id string, input domain.ProductInput, kept []string, files []domain.FileUpload) (*domain.Product, error) {
	f.lastInput = input
	f.lastKept = kept
	f.lastFiles = files
	if f.product == nil || f.product.ID != id {
		return nil, domain.ErrProductNotFound
	}
	return f.product, nil
}

func (f *fakeProductService) Delete(ctx context.Context, id string) error {
	if f.product == nil || f.product.ID != id {
		return domain.ErrProductNotFound
	}
	return nil
}

func (f *fakeProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	if f.product == nil || f.product.ID != id {
		return nil, domain.ErrProductNotFound
	}
	return f.product, nil
}

func (f *fakeProductService) List(ctx context.Context) ([]*domain.Product, error) {
	if f.product == nil {
		return nil, nil
	}
	return []*domain.Product{f.product}, nil
}

func (f *fakeProductService) OpenImage(ctx context.Context, name string) (io.ReadCloser, domain.BlobInfo, error) {
	if f.blob == nil {
		return nil, domain.BlobInfo{}, domain.ErrBlobNotFound
	}
	info := domain.BlobInfo{Name: name, ContentType: f.blobType, Size: int64(len(f.blob))}
	return io.NopCloser(bytes.NewReader(f.blob)), info, nil
}

func newTestApp(svc domain.ProductService) *fiber.App {
	h := NewProductHandler(svc, 10)
	app := fiber.New()
	v1 := app.Group("/v1")
	v1.Get("/products", h.ListProducts)
	v1.Post("/products", h.CreateProduct)
	v1.Get("/products/:id", h.GetProduct)
	v1.Put("/products/:id", h.UpdateProduct)
	v1.Delete("/products/:id", h.DeleteProduct)
	v1.Get("/uploads/:name", h.GetImage)
	return app
}

// multipartBody builds a product form with the given image files.
func multipartBody(t *testing.T, fields map[string]string, images map[string][]byte, kept []string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for _, name := range kept {
		require.NoError(t, writer.WriteField("existingImages", name))
	}
	for name, data := range images {
		part, err := writer.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func sampleProduct() *domain.Product {
	return &domain.Product{
		ID:     "65f000000000000000000001",
		Name:   "Costela Armchair",
		Slug:   "costela-armchair",
		Price:  1890,
		Images: []string{"blob-1", "blob-2"},
	}
}

func TestCreateProductHandler(t *testing.T) {
	svc := &fakeProductService{product: sampleProduct()}
	app := newTestApp(svc)

	body, contentType := multipartBody(t,
		map[string]string{
			"name":  "Costela Armchair",
			"slug":  "costela-armchair",
			"price": "1890.00",
			"stock": "15",
		},
		map[string][]byte{"a.jpg": []byte("aaa"), "b.jpg": []byte("bbb")},
		nil,
	)
	req := httptest.NewRequest(fiber.MethodPost, "/v1/products", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	assert.Equal(t, "costela-armchair", svc.lastInput.Slug)
	assert.Equal(t, 1890.00, svc.lastInput.Price)
	assert.Equal(t, 15, svc.lastInput.Stock)
	assert.Len(t, svc.lastFiles, 2)

	payload := decodeBody(t, resp)
	assert.Equal(t, true, payload["success"])
}

func TestCreateProductHandlerUploadFailed(t *testing.T) {
	svc := &fakeProductService{
		createErr: &domain.UploadFailedError{Filenames: []string{"b.jpg"}},
	}
	app := newTestApp(svc)

	body, contentType := multipartBody(t, map[string]string{"name": "x"},
		map[string][]byte{"a.jpg": []byte("aaa"), "b.jpg": []byte("bbb")}, nil)
	req := httptest.NewRequest(fiber.MethodPost, "/v1/products", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	payload := decodeBody(t, resp)
	assert.Equal(t, []interface{}{"b.jpg"}, payload["failed_files"])
}

func TestCreateProductHandlerNoFiles(t *testing.T) {
	svc := &fakeProductService{}
	app := newTestApp(svc)

	body, contentType := multipartBody(t, map[string]string{"name": "x"}, nil, nil)
	req := httptest.NewRequest(fiber.MethodPost, "/v1/products", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUpdateProductHandlerPassesKeptImages(t *testing.T) {
	svc := &fakeProductService{product: sampleProduct()}
	app := newTestApp(svc)

	body, contentType := multipartBody(t, map[string]string{"name": "x"},
		map[string][]byte{"c.jpg": []byte("ccc")}, []string{"blob-1", "blob-2"})
	req := httptest.NewRequest(fiber.MethodPut, "/v1/products/"+svc.product.ID, body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"blob-1", "blob-2"}, svc.lastKept)
	assert.Len(t, svc.lastFiles, 1)
}

func TestGetProductHandlerNotFound(t *testing.T) {
	app := newTestApp(&fakeProductService{})

	req := httptest.NewRequest(fiber.MethodGet, "/v1/products/missing", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDeleteProductHandler(t *testing.T) {
	svc := &fakeProductService{product: sampleProduct()}
	app := newTestApp(svc)

	req := httptest.NewRequest(fiber.MethodDelete, "/v1/products/"+svc.product.ID, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestGetImageHandlerStreamsBlob(t *testing.T) {
	svc := &fakeProductService{blob: []byte("image bytes"), blobType: "image/png"}
	app := newTestApp(svc)

	req := httptest.NewRequest(fiber.MethodGet, "/v1/uploads/some-blob", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("image bytes"), data)
}

func TestGetImageHandlerNotFound(t *testing.T) {
	app := newTestApp(&fakeProductService{})

	req := httptest.NewRequest(fiber.MethodGet, "/v1/uploads/missing", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
