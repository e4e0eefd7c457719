package catalog

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-checkout/internal/common"
)

// ProductView is the public product payload.
type ProductView struct {
	Name        string      `json:"name"`
	Price       json.Number `json:"price"`
	ProductCode string      `json:"productCode"`
}

// View renders p for API responses without losing price precision.
func (p Product) View() ProductView {
	price := "0"
	if p.Price != nil {
		price = p.Price.String()
	}
	return ProductView{Name: p.Name, Price: json.Number(price), ProductCode: p.ProductCode}
}

// Handler exposes public catalog endpoints.
type Handler struct {
	catalog *Catalog
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Catalog *Catalog
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{catalog: cfg.Catalog}
}

// Codes handles GET /api/v1/products and lists every product code, or every
// product payload when called with ?view=full.
func (h *Handler) Codes(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog not configured", nil)
		return
	}
	switch view := strings.TrimSpace(r.URL.Query().Get("view")); view {
	case "", "codes":
		common.JSON(w, http.StatusOK, map[string]any{"data": h.catalog.Codes()})
	case "full":
		products := h.catalog.Products()
		views := make([]ProductView, 0, len(products))
		for _, p := range products {
			views = append(views, p.View())
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": views})
	default:
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "unsupported view", map[string]any{"view": view})
	}
}

// Product handles GET /api/v1/products/{code}.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "catalog not configured", nil)
		return
	}
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		common.WriteError(w, common.BadRequest("product code is required", nil))
		return
	}
	product, ok := h.catalog.Get(code)
	if !ok {
		common.WriteError(w, common.NotFound("product not found"))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": product.View()})
}
