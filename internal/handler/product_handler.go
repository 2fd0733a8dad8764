package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/harpiastore/catalog-service/internal/domain"
)

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	service     domain.ProductService
	maxUploadMB int64
}

// NewProductHandler creates a new product handler
func NewProductHandler(service domain.ProductService, maxUploadMB int64) *ProductHandler {
	return &ProductHandler{
		service:     service,
		maxUploadMB: maxUploadMB,
	}
}

// CreateProduct handles POST /v1/products
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid multipart form: " + err.Error(),
		})
	}

	files, err := h.readFiles(form.File["images"])
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	product, err := h.service.Create(c.UserContext(), productInputFromForm(form), files)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    product,
	})
}

// UpdateProduct handles PUT /v1/products/:id
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id := c.Params("id")

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid multipart form: " + err.Error(),
		})
	}

	files, err := h.readFiles(form.File["images"])
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	kept := form.Value["existingImages"]

	product, err := h.service.Update(c.UserContext(), id, productInputFromForm(form), kept, files)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    product,
	})
}

// DeleteProduct handles DELETE /v1/products/:id
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "product deleted",
	})
}

// GetProduct handles GET /v1/products/:id
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    product,
	})
}

// ListProducts handles GET /v1/products
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	products, err := h.service.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	if products == nil {
		products = []*domain.Product{}
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    products,
	})
}

// GetImage handles GET /v1/uploads/:name and streams the blob bytes
func (h *ProductHandler) GetImage(c *fiber.Ctx) error {
	reader, info, err := h.service.OpenImage(c.UserContext(), c.Params("name"))
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, info.ContentType)
	if info.Size > 0 {
		return c.SendStream(reader, int(info.Size))
	}
	return c.SendStream(reader)
}

// readFiles decodes multipart file headers into in-memory buffers for the
// service layer, enforcing the per-file size limit.
func (h *ProductHandler) readFiles(headers []*multipart.FileHeader) ([]domain.FileUpload, error) {
	maxBytes := h.maxUploadMB * 1024 * 1024

	var files []domain.FileUpload
	for _, header := range headers {
		if header.Size > maxBytes {
			return nil, fmt.Errorf("file %s exceeds maximum size of %dMB", header.Filename, h.maxUploadMB)
		}

		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded file %s", header.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read uploaded file %s", header.Filename)
		}

		files = append(files, domain.FileUpload{
			OriginalName: header.Filename,
			ContentType:  header.Header.Get("Content-Type"),
			Data:         data,
		})
	}
	return files, nil
}

// productInputFromForm maps recognized form fields onto the typed input.
// Anything else in the form never reaches the record.
func productInputFromForm(form *multipart.Form) domain.ProductInput {
	value := func(key string) string {
		if v, ok := form.Value[key]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}
	return domain.ProductInput{
		Name:        value("name"),
		Slug:        value("slug"),
		Price:       parseFloat(value("price")),
		Style:       value("style"),
		Collection:  value("collection"),
		Category:    value("category"),
		Description: value("description"),
		Dimensions: domain.Dimensions{
			Height: parseFloat(value("height")),
			Width:  parseFloat(value("width")),
			Depth:  parseFloat(value("depth")),
		},
		Weight:   parseFloat(value("weight")),
		Stock:    parseInt(value("stock")),
		Warranty: value("warranty"),
		Active:   parseBool(value("active")),
	}
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func parseBool(s string) bool {
	v, _ := strconv.ParseBool(s)
	return v
}

// respondError translates domain errors into HTTP responses
func respondError(c *fiber.Ctx, err error) error {
	var uploadErr *domain.UploadFailedError
	if errors.As(err, &uploadErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success":      false,
			"error":        uploadErr.Error(),
			"failed_files": uploadErr.Filenames,
		})
	}

	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrBlobNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidID), errors.Is(err, domain.ErrNoFilesUploaded):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateSlug):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}
