// internal/domain/category/entity.go
package category

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var (
	ErrNotFound    = errors.New("category: not found")
	ErrInvalidSlug = errors.New("category: invalid slug")
)

// Category groups products. Slug is unique and URL-safe.
type Category struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
}

// ListOptions for category listings. Limit <= 0 means unlimited.
type ListOptions struct {
	OrderByName bool
	Limit       int
}

// Repository is the read port of the catalog's categories.
type Repository interface {
	List(ctx context.Context, opts ListOptions) ([]Category, error)

	// GetBySlug returns ErrNotFound when no category has slug.
	GetBySlug(ctx context.Context, slug string) (Category, error)
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// NormalizeSlug trims and lower-cases s and checks it is URL-safe.
func NormalizeSlug(s string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" || !slugPattern.MatchString(v) {
		return "", ErrInvalidSlug
	}
	return v, nil
}
