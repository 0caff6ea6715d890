// internal/application/resolver/image_url_resolver.go
package resolver

import (
	"context"
	"strings"
)

// ImageURLResolver turns a stored image reference (URL, gs:// ref or object
// path) into a URL for responses.
type ImageURLResolver interface {
	ResolveImageURL(ctx context.Context, ref string) string
}

// Passthrough returns references unchanged (trimmed). Used when no image
// bucket is configured.
type Passthrough struct{}

func (Passthrough) ResolveImageURL(_ context.Context, ref string) string {
	return strings.TrimSpace(ref)
}

// OrPassthrough returns r, or Passthrough when r is nil.
func OrPassthrough(r ImageURLResolver) ImageURLResolver {
	if r == nil {
		return Passthrough{}
	}
	return r
}
