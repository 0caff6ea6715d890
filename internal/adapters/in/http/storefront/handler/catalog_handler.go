// internal/adapters/in/http/storefront/handler/catalog_handler.go
package storefrontHandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	sfquery "storefront/internal/application/query/storefront"
)

// CatalogHandler serves the catalog pages. Every page load of a session goes
// through the page's loader under the view "<session>/<page>", so a newer
// load from the same session supersedes the one in flight.
type CatalogHandler struct {
	loaders *sfquery.CatalogLoaders
	log     *zap.Logger
}

func NewCatalogHandler(loaders *sfquery.CatalogLoaders, log *zap.Logger) *CatalogHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogHandler{loaders: loaders, log: log.Named("catalog_handler")}
}

func viewKey(r *http.Request, page string) string {
	return sessionID(r) + "/" + page
}

// GET /mall/home
func (h *CatalogHandler) Home(w http.ResponseWriter, r *http.Request) {
	v, err := h.loaders.Home.Load(r.Context(), viewKey(r, "home"), struct{}{})
	if err != nil {
		writeAppErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// GET /mall/products?q=&category=
func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	params := sfquery.ProductsParams{
		Search:     r.URL.Query().Get("q"),
		CategoryID: r.URL.Query().Get("category"),
	}.Normalize()

	v, err := h.loaders.Products.Load(r.Context(), viewKey(r, "products"), params)
	if err != nil {
		writeAppErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// GET /mall/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	v, err := h.loaders.Categories.Load(r.Context(), viewKey(r, "categories"), struct{}{})
	if err != nil {
		writeAppErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// GET /mall/categories/{slug}
func (h *CatalogHandler) CategoryDetail(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" {
		badRequest(w, "slug is required")
		return
	}
	v, err := h.loaders.CategoryDetail.Load(r.Context(), viewKey(r, "category_detail"), slug)
	if err != nil {
		writeAppErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type loadStateResponse struct {
	Page   string `json:"page"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// GET /mall/loads/{page}
// Reports the loading / ready / failed state of the session's page view.
func (h *CatalogHandler) LoadState(w http.ResponseWriter, r *http.Request) {
	page := strings.TrimSpace(chi.URLParam(r, "page"))
	st, ok := h.loaders.State(page, viewKey(r, page))
	if !ok {
		writeErr(w, http.StatusNotFound, "not_found")
		return
	}
	resp := loadStateResponse{Page: page, Status: st.Status.String()}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
