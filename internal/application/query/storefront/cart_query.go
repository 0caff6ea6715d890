// internal/application/query/storefront/cart_query.go
package storefront

import (
	"context"

	"storefront/internal/application/query/storefront/dto"
	appresolver "storefront/internal/application/resolver"
	cartdom "storefront/internal/domain/cart"
)

// CartStateReader is the part of the cart usecase the query reads from.
type CartStateReader interface {
	State(ctx context.Context, sessionID string) (cartdom.State, error)
}

// CartQuery renders session carts for the cart panel and the badge.
type CartQuery struct {
	Carts  CartStateReader
	Images appresolver.ImageURLResolver
}

func NewCartQuery(carts CartStateReader, images appresolver.ImageURLResolver) *CartQuery {
	return &CartQuery{Carts: carts, Images: appresolver.OrPassthrough(images)}
}

func (q *CartQuery) Get(ctx context.Context, sessionID string) (dto.CartDTO, error) {
	st, err := q.Carts.State(ctx, sessionID)
	if err != nil {
		return dto.CartDTO{}, err
	}
	return q.FromState(ctx, st), nil
}

func (q *CartQuery) Badge(ctx context.Context, sessionID string) (dto.BadgeDTO, error) {
	st, err := q.Carts.State(ctx, sessionID)
	if err != nil {
		return dto.BadgeDTO{}, err
	}
	return dto.BadgeDTO{TotalItems: st.TotalItems}, nil
}

// FromState converts a state already in hand (mutation results, events).
func (q *CartQuery) FromState(ctx context.Context, st cartdom.State) dto.CartDTO {
	items := make([]dto.CartItemDTO, 0, len(st.Items))
	for _, it := range st.Items {
		items = append(items, dto.CartItemDTO{
			ID:        it.ID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal().StringFixed(2),
			ImageURL:  q.Images.ResolveImageURL(ctx, it.ImageRef),
		})
	}
	return dto.CartDTO{
		Items:       items,
		TotalItems:  st.TotalItems,
		TotalAmount: st.TotalAmount.StringFixed(2),
		Version:     st.Version,
	}
}
