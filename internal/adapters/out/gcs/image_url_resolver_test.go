package gcs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGCSRef(t *testing.T) {
	cases := []struct {
		in     string
		bucket string
		obj    string
		ok     bool
	}{
		{"gs://shop-images/products/p1.png", "shop-images", "products/p1.png", true},
		{"https://storage.googleapis.com/shop-images/a%20b.png", "shop-images", "a b.png", true},
		{"https://storage.cloud.google.com/b/x/y.jpg", "b", "x/y.jpg", true},
		{"https://cdn.example.com/b/x.jpg", "", "", false},
		{"gs://only-bucket", "", "", false},
		{"products/p1.png", "", "", false},
	}
	for _, tc := range cases {
		b, o, ok := ParseGCSRef(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.bucket, b, tc.in)
		assert.Equal(t, tc.obj, o, tc.in)
	}
}

func TestImageURLResolver_Public(t *testing.T) {
	r := NewImageURLResolver(nil, "shop-images", false, nil)
	ctx := context.Background()

	assert.Equal(t, "", r.ResolveImageURL(ctx, "  "))
	assert.Equal(t, "https://cdn.example.com/a.png", r.ResolveImageURL(ctx, "https://cdn.example.com/a.png"))
	assert.Equal(t, "https://storage.googleapis.com/other/p.png", r.ResolveImageURL(ctx, "gs://other/p.png"))
	assert.Equal(t, "https://storage.googleapis.com/shop-images/products/p.png", r.ResolveImageURL(ctx, "/products/p.png"))

	// signing without a client falls back to the public URL
	signed := NewImageURLResolver(nil, "shop-images", true, nil)
	assert.Equal(t, "https://storage.googleapis.com/other/p.png", signed.ResolveImageURL(ctx, "gs://other/p.png"))

	noBucket := NewImageURLResolver(nil, "", false, nil)
	assert.Equal(t, "products/p.png", noBucket.ResolveImageURL(ctx, "products/p.png"))
}
