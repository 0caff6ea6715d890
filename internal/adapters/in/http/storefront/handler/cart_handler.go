// internal/adapters/in/http/storefront/handler/cart_handler.go
package storefrontHandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	sfquery "storefront/internal/application/query/storefront"
	cartdom "storefront/internal/domain/cart"
)

// CartService is the part of the cart usecase the handlers mutate through.
type CartService interface {
	AddItem(ctx context.Context, sessionID, productID string) (cartdom.State, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (cartdom.State, bool, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (cartdom.State, bool, error)
	Clear(ctx context.Context, sessionID string) (cartdom.State, error)
	Watch(ctx context.Context, sessionID string, obs cartdom.Observer) (cartdom.State, func(), error)
}

// CartHandler serves the session cart. Every mutation answers with the
// resulting cart.
type CartHandler struct {
	uc    CartService
	query *sfquery.CartQuery
	log   *zap.Logger
}

func NewCartHandler(uc CartService, query *sfquery.CartQuery, log *zap.Logger) *CartHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartHandler{uc: uc, query: query, log: log.Named("cart_handler")}
}

// GET /mall/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.query.Get(r.Context(), sessionID(r))
	if err != nil {
		writeAppErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// GET /mall/cart/badge
func (h *CartHandler) Badge(w http.ResponseWriter, r *http.Request) {
	v, err := h.query.Badge(r.Context(), sessionID(r))
	if err != nil {
		writeAppErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

// POST /mall/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	pid := strings.TrimSpace(req.ProductID)
	if pid == "" {
		badRequest(w, "productId is required")
		return
	}

	st, err := h.uc.AddItem(r.Context(), sessionID(r), pid)
	if err != nil {
		writeAppErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.query.FromState(r.Context(), st))
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

// PUT /mall/cart/items/{id}
// Quantities below one are clamped to one. An id not in the cart leaves the
// cart unchanged.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	var req updateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Quantity == nil {
		badRequest(w, "quantity is required")
		return
	}

	st, changed, err := h.uc.UpdateQuantity(r.Context(), sessionID(r), id, *req.Quantity)
	if err != nil {
		writeAppErr(w, r, h.log, err)
		return
	}
	if !changed {
		h.log.Debug("update quantity: item not in cart", zap.String("sessionId", sessionID(r)), zap.String("itemId", id))
	}
	writeJSON(w, http.StatusOK, h.query.FromState(r.Context(), st))
}

// DELETE /mall/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	st, changed, err := h.uc.RemoveItem(r.Context(), sessionID(r), id)
	if err != nil {
		writeAppErr(w, r, h.log, err)
		return
	}
	if !changed {
		h.log.Debug("remove item: item not in cart", zap.String("sessionId", sessionID(r)), zap.String("itemId", id))
	}
	writeJSON(w, http.StatusOK, h.query.FromState(r.Context(), st))
}

// DELETE /mall/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	st, err := h.uc.Clear(r.Context(), sessionID(r))
	if err != nil {
		writeAppErr(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.query.FromState(r.Context(), st))
}
