// internal/adapters/in/http/storefront/router.go
package storefront

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storefront/internal/adapters/in/http/middleware"
	storefrontHandler "storefront/internal/adapters/in/http/storefront/handler"
)

// Deps is the storefront handler set.
type Deps struct {
	Catalog *storefrontHandler.CatalogHandler
	Cart    *storefrontHandler.CartHandler

	AllowedOrigins []string
	Logger         *zap.Logger
}

// Healthz answers liveness probes.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// NewRouter builds the storefront API. Handler groups missing from deps are
// not mounted; their routes answer 404.
func NewRouter(deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	// CORS outermost so recovered panics still carry CORS headers
	r.Use(middleware.CORS(deps.AllowedOrigins))
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.Recover(log))

	r.Get("/healthz", Healthz)

	r.Route("/mall", func(r chi.Router) {
		r.Use(middleware.Session)

		if c := deps.Catalog; c != nil {
			r.Get("/home", c.Home)
			r.Get("/products", c.Products)
			r.Get("/categories", c.Categories)
			r.Get("/categories/{slug}", c.CategoryDetail)
			r.Get("/loads/{page}", c.LoadState)
		} else {
			log.Warn("nil handler: Catalog (catalog routes not mounted)")
		}

		if c := deps.Cart; c != nil {
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", c.Get)
				r.Delete("/", c.Clear)
				r.Get("/badge", c.Badge)
				r.Get("/events", c.Events)
				r.Post("/items", c.AddItem)
				r.Put("/items/{id}", c.UpdateQuantity)
				r.Delete("/items/{id}", c.RemoveItem)
			})
		} else {
			log.Warn("nil handler: Cart (cart routes not mounted)")
		}
	})

	return r
}
