// internal/domain/product/entity.go
package product

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("product: not found")
	ErrInvalidID = errors.New("product: invalid id")
)

// Product is a catalog record as served by the catalog database.
//   - Price is stored as numeric (decimal-as-string on the wire)
//   - ImageURL / CategoryID are nullable
type Product struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	ImageURL   *string         `json:"imageUrl"`
	CategoryID *string         `json:"categoryId"`
	IsFeatured bool            `json:"isFeatured"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// ImageOr returns the image url or fallback when the record has none.
func (p Product) ImageOr(fallback string) string {
	if p.ImageURL != nil {
		if s := strings.TrimSpace(*p.ImageURL); s != "" {
			return s
		}
	}
	return fallback
}

// InCategory reports whether the product belongs to categoryID.
func (p Product) InCategory(categoryID string) bool {
	return p.CategoryID != nil && *p.CategoryID == categoryID
}
