// internal/adapters/out/gcs/image_url_resolver.go
package gcs

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

const (
	publicBaseURL       = "https://storage.googleapis.com"
	defaultSignedURLTTL = 15 * time.Minute
)

// ImageURLResolver turns stored image references into URLs a browser can load.
//
// ref can be:
// - http(s)://... (returned as-is)
// - gs://bucket/object or https://storage.googleapis.com/bucket/object
// - objectPath (treated as object path within Bucket)
//
// With Signed set, GCS refs become V4 signed GET URLs; on signing failure the
// public URL is returned.
type ImageURLResolver struct {
	Client *storage.Client
	Bucket string
	Signed bool
	TTL    time.Duration

	log *zap.Logger
}

func NewImageURLResolver(client *storage.Client, bucket string, signed bool, log *zap.Logger) *ImageURLResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &ImageURLResolver{
		Client: client,
		Bucket: strings.TrimSpace(bucket),
		Signed: signed,
		TTL:    defaultSignedURLTTL,
		log:    log.Named("image_url_resolver"),
	}
}

func (r *ImageURLResolver) ResolveImageURL(ctx context.Context, ref string) string {
	p := strings.TrimSpace(ref)
	if p == "" {
		return ""
	}

	b, obj, ok := ParseGCSRef(p)
	if !ok {
		if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
			return p
		}
		if r.Bucket == "" {
			return p
		}
		b, obj = r.Bucket, strings.TrimLeft(p, "/")
	}

	if r.Signed && r.Client != nil {
		u, err := r.Client.Bucket(b).SignedURL(obj, &storage.SignedURLOptions{
			Scheme:  storage.SigningSchemeV4,
			Method:  "GET",
			Expires: time.Now().Add(r.ttl()),
		})
		if err == nil {
			return u
		}
		r.log.Warn("sign url failed", zap.String("bucket", b), zap.String("object", obj), zap.Error(err))
	}
	return PublicURL(b, obj)
}

func (r *ImageURLResolver) ttl() time.Duration {
	if r.TTL <= 0 {
		return defaultSignedURLTTL
	}
	return r.TTL
}

// PublicURL builds a public GCS URL. The leading "/" of objectPath is dropped.
func PublicURL(bucket, objectPath string) string {
	obj := strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	return fmt.Sprintf("%s/%s/%s", publicBaseURL, strings.TrimSpace(bucket), obj)
}

// ParseGCSRef parses a GCS reference and returns (bucket, objectPath, ok).
// Supported:
//   - gs://<bucket>/<object>
//   - https://storage.googleapis.com/<bucket>/<object>
//   - https://storage.cloud.google.com/<bucket>/<object>
func ParseGCSRef(ref string) (string, string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", "", false
	}

	var p string
	switch strings.ToLower(parsed.Scheme) {
	case "gs":
		p = parsed.Host + "/" + strings.TrimLeft(parsed.EscapedPath(), "/")
	case "http", "https":
		host := strings.ToLower(parsed.Host)
		if host != "storage.googleapis.com" && host != "storage.cloud.google.com" {
			return "", "", false
		}
		p = strings.TrimLeft(parsed.EscapedPath(), "/")
	default:
		return "", "", false
	}

	parts := strings.SplitN(p, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	obj, err := url.PathUnescape(parts[1])
	if err != nil {
		return "", "", false
	}
	return parts[0], obj, true
}
