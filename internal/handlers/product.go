package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/toteco/apiserver/internal/services"
	"github.com/toteco/apiserver/internal/validation"
	"github.com/toteco/apiserver/types"
)

// ProductHandler provides HTTP handlers for products.
type ProductHandler struct {
	productService *services.ProductService
	logger         logrus.FieldLogger
}

func NewProductHandler(productService *services.ProductService, logger logrus.FieldLogger) *ProductHandler {
	return &ProductHandler{productService: productService, logger: logger}
}

// ProductRouter registers product routes on the given router.
func ProductRouter(r chi.Router, productService *services.ProductService, authMiddleware func(http.Handler) http.Handler, logger logrus.FieldLogger) {
	handler := NewProductHandler(productService, logger)

	r.Use(authMiddleware)
	r.Post("/", handler.CreateProduct)
	r.Put("/", handler.UpdateProduct)
	r.Delete("/", handler.DeleteProducts)
	r.Get("/", handler.ListProducts)
	r.Get("/id/{id}", handler.GetProduct)
	r.Delete("/id/{id}", handler.DeleteProduct)
	r.Get("/publication/{id}", handler.FindByPublication)
	r.Get("/menu/{id}", handler.FindByMenu)
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req types.ProductInput
	if !decodeBody(w, r, &req, validation.ProductCreateRules) {
		return
	}

	product, err := h.productService.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "create product")
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req types.ProductUpdate
	if !decodeBody(w, r, &req, validation.ProductUpdateRules) {
		return
	}

	rows, err := h.productService.Update(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err, "update product")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *ProductHandler) DeleteProducts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.productService.DeleteAll(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "delete products")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	rows, err := h.productService.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "delete product")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "fetch product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) FindByPublication(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	products, err := h.productService.FindByPublication(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "find products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) FindByMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	products, err := h.productService.FindByMenu(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "find products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}
