package transport

import (
	"net/http"
	"strings"

	"beestore/internal/domain"
	"beestore/internal/middleware"
	"beestore/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler serves the public storefront
type CatalogHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, logger: logger}
}

// RegisterRoutes registers the catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/categories", h.Categories)
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/featured", h.Featured)
		r.Get("/{productID}", h.Get)
	})
}

// List handles GET /api/products?category=&search=&price_min=&price_max=&page=&page_size=.
// Malformed price bounds are ignored.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ProductFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	if v, err := domain.ParseAmount(q.Get("price_min")); err == nil {
		filter.PriceMin = &v
	}
	if v, err := domain.ParseAmount(q.Get("price_max")); err == nil {
		filter.PriceMax = &v
	}

	page, err := h.catalogService.ListProducts(r.Context(), filter, queryInt(r, "page"), queryInt(r, "page_size"))
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) Featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogService.Featured(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load featured products")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(r.Context(), productID)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to get product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.Categories(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to list categories")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}
