// internal/application/query/storefront/errors.go
package storefront

import "errors"

var (
	// ErrNotFound is a shared sentinel error for "not found" in this package.
	// - handlers may check with errors.Is(err, storefront.ErrNotFound)
	ErrNotFound = errors.New("not_found")

	// ErrStale is returned to a load superseded by a newer load of the same view.
	ErrStale = errors.New("stale: superseded by a newer load")
)
