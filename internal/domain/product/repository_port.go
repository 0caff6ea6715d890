// internal/domain/product/repository_port.go
package product

import (
	"context"
	"sort"
	"strings"
)

// Filter narrows a product listing. Zero values mean "no condition".
type Filter struct {
	// NameContains matches a case-insensitive substring of Name.
	NameContains string

	CategoryID string

	// FeaturedOnly keeps is_featured = true records.
	FeaturedOnly bool
}

// Order selects the listing order.
type Order int

const (
	// OrderNone leaves ordering to the backend.
	OrderNone Order = iota
	// OrderFeaturedThenNewest sorts featured first, then by created_at descending.
	OrderFeaturedThenNewest
)

// ListOptions are applied after filtering. Limit <= 0 means unlimited.
type ListOptions struct {
	Order Order
	Limit int
}

// Repository is the read port of the catalog's products.
type Repository interface {
	List(ctx context.Context, filter Filter, opts ListOptions) ([]Product, error)
	GetByID(ctx context.Context, id string) (Product, error)

	// CountByCategory returns categoryId -> number of products.
	// Products without a category are not counted.
	CountByCategory(ctx context.Context) (map[string]int, error)
}

// Match reports whether p satisfies f. Backends that cannot express a
// condition natively apply it in memory with Match.
func (f Filter) Match(p Product) bool {
	if q := strings.TrimSpace(f.NameContains); q != "" {
		if !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q)) {
			return false
		}
	}
	if c := strings.TrimSpace(f.CategoryID); c != "" && !p.InCategory(c) {
		return false
	}
	if f.FeaturedOnly && !p.IsFeatured {
		return false
	}
	return true
}

// Apply sorts and truncates items in place according to opts.
func (opts ListOptions) Apply(items []Product) []Product {
	if opts.Order == OrderFeaturedThenNewest {
		sort.SliceStable(items, func(i, j int) bool {
			if items[i].IsFeatured != items[j].IsFeatured {
				return items[i].IsFeatured
			}
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	}
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}
	return items
}
